package category

// RuleSpec is the declarative form of a categorization rule. The engine
// compiles these into ordered Rule lists at construction; order is
// priority (first match wins).
type RuleSpec struct {
	Pattern  string
	Category string
	Score    int
}

// Built-in application rules, matched against the foreground app name.
var defaultAppRules = []RuleSpec{
	// Development tools
	{`^(Visual Studio Code|Code|VSCode|code)$`, "Development", 95},
	{`^(IntelliJ IDEA|PyCharm|WebStorm|PhpStorm|RubyMine|GoLand|CLion)$`, "Development", 95},
	{`^(Xcode|Android Studio|Eclipse)$`, "Development", 95},
	{`^(Terminal|iTerm|iTerm2|Hyper|Alacritty|kitty)$`, "Development", 90},
	{`^(Sublime Text|Atom|Vim|Emacs|Notepad\+\+)$`, "Development", 95},
	{`^(Docker|Docker Desktop)$`, "Development", 85},
	{`^(Postman|Insomnia)$`, "Development", 85},

	// Design tools
	{`^(Figma|Sketch|Adobe XD)$`, "Design", 90},
	{`^(Adobe Photoshop|Photoshop)$`, "Design", 90},
	{`^(Adobe Illustrator|Illustrator)$`, "Design", 90},
	{`^(Canva)$`, "Design", 85},

	// Communication
	{`^(Slack)$`, "Communication", 70},
	{`^(Microsoft Teams|Teams)$`, "Communication", 70},
	{`^(Discord)$`, "Communication", 60},
	{`^(Zoom|zoom\.us)$`, "Meeting", 75},
	{`^(Google Meet|Meet)$`, "Meeting", 75},
	{`^(Skype)$`, "Communication", 70},
	{`^(WhatsApp|Telegram|Signal)$`, "Communication", 40},

	// Email
	{`^(Mail|Outlook|Thunderbird|Mailspring)$`, "Email", 65},
	{`^(Gmail)$`, "Email", 65},

	// Browsers: weak base category, refined by URL rules when one matches
	{`^(Google Chrome|Chrome|Chromium)$`, "Browsing", 50},
	{`^(Safari)$`, "Browsing", 50},
	{`^(Firefox|Mozilla Firefox)$`, "Browsing", 50},
	{`^(Microsoft Edge|Edge)$`, "Browsing", 50},

	// Productivity tools
	{`^(Notion)$`, "Productivity", 85},
	{`^(Obsidian|Roam Research)$`, "Productivity", 85},
	{`^(Evernote|OneNote)$`, "Productivity", 80},
	{`^(Trello|Asana|Jira|Linear)$`, "Project Management", 85},

	// Office suite
	{`^(Microsoft Word|Word)$`, "Documents", 80},
	{`^(Microsoft Excel|Excel)$`, "Spreadsheets", 80},
	{`^(Microsoft PowerPoint|PowerPoint)$`, "Presentations", 80},
	{`^(Google Docs|Docs)$`, "Documents", 80},
	{`^(Google Sheets|Sheets)$`, "Spreadsheets", 80},

	// Entertainment
	{`^(Spotify|Apple Music|Music)$`, "Entertainment", 20},
	{`^(Netflix|Hulu|Disney\+|Prime Video)$`, "Entertainment", 10},
	{`^(Steam|Epic Games|PlayStation|Xbox)$`, "Gaming", 5},

	// Social media
	{`^(Twitter|X)$`, "Social Media", 15},
	{`^(Facebook)$`, "Social Media", 15},
	{`^(Instagram)$`, "Social Media", 15},
	{`^(LinkedIn)$`, "Social Media", 50},

	// File management
	{`^(Finder|Windows Explorer|Explorer|Nautilus|Dolphin|Thunar)$`, "File Management", 60},
}

// Built-in URL rules, matched against the full URL of browser windows.
var defaultURLRules = []RuleSpec{
	// Development
	{`github\.com`, "Development", 90},
	{`gitlab\.com`, "Development", 90},
	{`stackoverflow\.com`, "Development", 85},
	{`stackexchange\.com`, "Development", 85},
	{`dev\.to`, "Development", 80},
	{`medium\.com.*programming`, "Development", 80},
	{`localhost`, "Development", 95},
	{`127\.0\.0\.1`, "Development", 95},

	// Documentation
	{`docs\.`, "Learning", 85},
	{`documentation`, "Learning", 85},
	{`readthedocs`, "Learning", 85},
	{`npmjs\.com`, "Development", 85},

	// Communication
	{`slack\.com`, "Communication", 70},
	{`teams\.microsoft\.com`, "Communication", 70},
	{`discord\.com`, "Communication", 60},
	{`zoom\.us`, "Meeting", 75},
	{`meet\.google\.com`, "Meeting", 75},

	// Email
	{`mail\.google\.com`, "Email", 65},
	{`outlook\.office\.com`, "Email", 65},
	{`outlook\.live\.com`, "Email", 65},

	// Project management
	{`trello\.com`, "Project Management", 85},
	{`asana\.com`, "Project Management", 85},
	{`jira\.`, "Project Management", 85},
	{`linear\.app`, "Project Management", 85},
	{`notion\.so`, "Productivity", 85},

	// Social media
	{`twitter\.com`, "Social Media", 15},
	{`x\.com`, "Social Media", 15},
	{`facebook\.com`, "Social Media", 15},
	{`instagram\.com`, "Social Media", 15},
	{`linkedin\.com`, "Social Media", 50},
	{`reddit\.com`, "Social Media", 20},

	// Entertainment
	{`youtube\.com`, "Entertainment", 20},
	{`netflix\.com`, "Entertainment", 10},
	{`twitch\.tv`, "Entertainment", 10},
	{`spotify\.com`, "Entertainment", 20},

	// News
	{`news\.`, "News", 30},
	{`nytimes\.com`, "News", 30},
	{`bbc\.`, "News", 30},

	// Shopping
	{`amazon\.`, "Shopping", 10},
	{`ebay\.`, "Shopping", 10},
	{`shop`, "Shopping", 10},
}
