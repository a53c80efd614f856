package budget

// Severity classifies a Signal for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
)

// Rule names the recommendation rule that produced a Signal.
type Rule string

const (
	RulePace     Rule = "pace"
	RuleCategory Rule = "category"
	RuleDaily    Rule = "daily"
	RuleWeekly   Rule = "weekly"
)

// Signal is one advisory message.
type Signal struct {
	Rule     Rule     `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	// Category is set by the category rule only.
	Category string `json:"category,omitempty"`
	// Percent is the magnitude the message reports, when it reports one
	// (over-average for category, week-over-week change for weekly).
	Percent float64 `json:"percent,omitempty"`
}
