package category

// Template is a pre-configured manual activity offered in check-in
// prompts. DefaultMin is the suggested duration in minutes.
type Template struct {
	Name       string
	Emoji      string
	Category   string
	Score      int
	DefaultMin int
	IsFrequent bool
	IsMeeting  bool
}

// DefaultTemplates is the built-in check-in vocabulary. List order matters:
// frequent-template filler in suggestions follows this order.
var DefaultTemplates = []Template{
	// Work activities
	{Name: "Team Meeting", Emoji: "👥", Category: "Meeting", Score: 75, DefaultMin: 60, IsFrequent: true, IsMeeting: true},
	{Name: "1-on-1 Meeting", Emoji: "🤝", Category: "Meeting", Score: 80, DefaultMin: 30, IsFrequent: true, IsMeeting: true},
	{Name: "Client Call", Emoji: "📞", Category: "Communication", Score: 85, DefaultMin: 45, IsFrequent: true, IsMeeting: true},
	{Name: "Phone Call", Emoji: "☎️", Category: "Communication", Score: 70, DefaultMin: 15, IsFrequent: true},
	{Name: "Code Review", Emoji: "👀", Category: "Development", Score: 90, DefaultMin: 30},
	{Name: "Planning/Brainstorming", Emoji: "📝", Category: "Planning", Score: 85, DefaultMin: 60, IsFrequent: true},
	{Name: "Reading/Research", Emoji: "📚", Category: "Learning", Score: 80, DefaultMin: 45},
	{Name: "Workshop/Training", Emoji: "🎓", Category: "Learning", Score: 85, DefaultMin: 120},

	// Breaks and personal
	{Name: "Lunch Break", Emoji: "🍽️", Category: "Break", Score: 0, DefaultMin: 60, IsFrequent: true},
	{Name: "Coffee Break", Emoji: "☕", Category: "Break", Score: 0, DefaultMin: 15, IsFrequent: true},
	{Name: "Short Break", Emoji: "🚶", Category: "Break", Score: 0, DefaultMin: 10, IsFrequent: true},
	{Name: "Commute", Emoji: "🚗", Category: "Commute", Score: 0, DefaultMin: 30, IsFrequent: true},
	{Name: "Gym/Exercise", Emoji: "💪", Category: "Personal", Score: 0, DefaultMin: 60},

	// Administrative
	{Name: "Email/Inbox", Emoji: "📧", Category: "Administrative", Score: 60, DefaultMin: 30, IsFrequent: true},
	{Name: "Paperwork", Emoji: "📄", Category: "Administrative", Score: 50, DefaultMin: 45},
	{Name: "Other", Emoji: "🔹", Category: "Other", Score: 50, DefaultMin: 30, IsFrequent: true},
}

// TemplateByName returns the template with the given name, or nil.
func TemplateByName(name string) *Template {
	for i := range DefaultTemplates {
		if DefaultTemplates[i].Name == name {
			return &DefaultTemplates[i]
		}
	}
	return nil
}
