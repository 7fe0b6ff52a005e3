package category

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"trackme/internal/activity"
)

// Rule is one ordered categorization entry. Matching is case-insensitive
// regexp search; order in the rule list is priority (first match wins).
type Rule struct {
	Pattern    string
	Category   string
	Score      int
	Confidence float64
	Learned    bool

	re *regexp.Regexp
}

// Engine maps activity snapshots to a category, detected project and
// productivity score. Each instance owns its rule lists; learned rules are
// appended at runtime and never jump ahead of built-ins.
type Engine struct {
	mu        sync.RWMutex
	appRules  []Rule
	urlRules  []Rule
	workStart int // minutes since midnight
	workEnd   int
}

const (
	defaultScore      = 50
	learnedConfidence = 0.8
)

// NewEngine builds an engine with the built-in rule tables and the given
// work-hours window ("HH:MM" strings, end exclusive).
func NewEngine(workStart, workEnd string) (*Engine, error) {
	start, err := activity.ParseClock(workStart)
	if err != nil {
		return nil, fmt.Errorf("invalid work start: %w", err)
	}
	end, err := activity.ParseClock(workEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid work end: %w", err)
	}

	e := &Engine{workStart: start, workEnd: end}
	for _, spec := range defaultAppRules {
		e.appRules = append(e.appRules, compileBuiltin(spec))
	}
	for _, spec := range defaultURLRules {
		e.urlRules = append(e.urlRules, compileBuiltin(spec))
	}
	return e, nil
}

func compileBuiltin(spec RuleSpec) Rule {
	return Rule{
		Pattern:    spec.Pattern,
		Category:   spec.Category,
		Score:      spec.Score,
		Confidence: 1.0,
		re:         regexp.MustCompile("(?i)" + spec.Pattern),
	}
}

// AddRule appends a learned app rule at the end of the list, below every
// built-in rule.
func (e *Engine) AddRule(pattern, category string, score int) error {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("invalid rule pattern %q: %w", pattern, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.appRules = append(e.appRules, Rule{
		Pattern:    pattern,
		Category:   category,
		Score:      score,
		Confidence: learnedConfidence,
		Learned:    true,
		re:         re,
	})
	return nil
}

// Categorize returns the category for a snapshot. Precedence: URL rules,
// then app rules, then title keyword heuristics, then "Uncategorized".
func (e *Engine) Categorize(s activity.Snapshot) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if s.URL != "" {
		for _, r := range e.urlRules {
			if r.re.MatchString(s.URL) {
				return r.Category
			}
		}
	}
	for _, r := range e.appRules {
		if r.re.MatchString(s.AppName) {
			return r.Category
		}
	}
	if c := categorizeByTitle(s.Title); c != "" {
		return c
	}
	return "Uncategorized"
}

var (
	developmentKeywords   = []string{"github", "gitlab", "stackoverflow", ".js", ".ts", ".py", ".java"}
	meetingKeywords       = []string{"zoom", "meet", "teams", "meeting"}
	communicationKeywords = []string{"slack", "discord", "message"}
)

func categorizeByTitle(title string) string {
	lower := strings.ToLower(title)
	for _, kw := range developmentKeywords {
		if strings.Contains(lower, kw) {
			return "Development"
		}
	}
	for _, kw := range meetingKeywords {
		if strings.Contains(lower, kw) {
			return "Meeting"
		}
	}
	for _, kw := range communicationKeywords {
		if strings.Contains(lower, kw) {
			return "Communication"
		}
	}
	return ""
}

// Score returns the productivity score (0-100) for a snapshot already
// assigned to category. An app rule's score overrides a URL rule's score
// when both match; the time-of-day adjustment comes last.
func (e *Engine) Score(s activity.Snapshot, category string) int {
	e.mu.RLock()
	base := defaultScore
	if s.URL != "" {
		for _, r := range e.urlRules {
			if r.re.MatchString(s.URL) {
				base = r.Score
				break
			}
		}
	}
	for _, r := range e.appRules {
		if r.re.MatchString(s.AppName) {
			base = r.Score
			break
		}
	}
	e.mu.RUnlock()

	return e.adjustForTimeOfDay(base, category, s.TimeOfDay)
}

func (e *Engine) adjustForTimeOfDay(score int, category string, timeOfDay float64) int {
	inWork := e.inWorkHours(timeOfDay)
	if !inWork && (category == "Communication" || category == "Social Media") {
		return max(0, score-30)
	}
	if inWork && category == "Entertainment" {
		return max(0, score-10)
	}
	return score
}

func (e *Engine) inWorkHours(timeOfDay float64) bool {
	minutes := int(timeOfDay * 60)
	return minutes >= e.workStart && minutes < e.workEnd
}

var (
	editorTitleRe = regexp.MustCompile(`(?i)^(.+?)\s*[-–]\s*(VSCode|Visual Studio Code|IntelliJ|PyCharm|Xcode)`)
	ticketRe      = regexp.MustCompile(`^([A-Z]+-\d+)`)
	repoHostRe    = regexp.MustCompile(`(?i)(?:github|gitlab)\.com/[^/]+/([^/?#]+)`)
	sourceExtRe   = regexp.MustCompile(`(?i)\.(js|ts|jsx|tsx|py|java|cpp|c|go|rs|rb)$`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// Directory names skipped when scanning a path-like title for a project.
var skipDirs = map[string]bool{
	"src": true, "lib": true, "dist": true, "build": true,
	"node_modules": true, "public": true,
}

// DetectProject extracts a project name from the window title or URL.
// Returns "" when nothing qualifies.
func (e *Engine) DetectProject(s activity.Snapshot) string {
	if s.Title != "" {
		if m := editorTitleRe.FindStringSubmatch(s.Title); m != nil {
			return cleanProjectName(m[1])
		}
		if m := ticketRe.FindStringSubmatch(s.Title); m != nil {
			return m[1]
		}
		if strings.Contains(s.Title, "/") {
			parts := strings.Split(s.Title, "/")
			for i := len(parts) - 1; i >= 0; i-- {
				part := parts[i]
				if skipDirs[part] || len(part) <= 2 || strings.Contains(part, ".") {
					continue
				}
				return cleanProjectName(part)
			}
		}
	}
	if s.URL != "" {
		if m := repoHostRe.FindStringSubmatch(s.URL); m != nil {
			return cleanProjectName(m[1])
		}
	}
	return ""
}

func cleanProjectName(name string) string {
	name = sourceExtRe.ReplaceAllString(name, "")
	name = strings.TrimPrefix(name, "~")
	name = whitespaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
