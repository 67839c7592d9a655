// Package report implements the user-facing reporting dialogue: a per-user
// finite-state machine that walks a reporter through identifying a message,
// classifying the abuse type, and capturing age-sensitive risk signals. All
// state lives on the Session instance; sessions are in-memory and scoped to
// an active report.
package report

// Keywords the dialogue understands. Matching is exact and case-sensitive.
const (
	StartKeyword  = "report"
	CancelKeyword = "cancel"
	HelpKeyword   = "help"

	UnderageKeyword = "under"
	OverageKeyword  = "over"
	BlockKeyword    = "block"
	NoBlockKeyword  = "no block"
)

// Category is the closed set of abuse types a reporter can choose from.
type Category int

const (
	CategoryUnset Category = iota
	CategoryIntimate
	CategorySelfHarm
	CategoryHate
	CategoryViolence
	CategorySpam
	CategoryOther
)

// categoryKeywords maps the user-facing keywords 1:1 to categories.
var categoryKeywords = map[string]Category{
	"intimate":               CategoryIntimate,
	"self harm":              CategorySelfHarm,
	"hate speech/harassment": CategoryHate,
	"violence":               CategoryViolence,
	"spam":                   CategorySpam,
	"other":                  CategoryOther,
}

// CategoryMenu lists the category keywords in menu order.
var CategoryMenu = []string{
	"intimate",
	"self harm",
	"hate speech/harassment",
	"violence",
	"spam",
	"other",
}

// ParseCategory maps a keyword to its Category. The match is case-sensitive,
// mirroring the closed vocabulary shown in the menu.
func ParseCategory(s string) (Category, bool) {
	c, ok := categoryKeywords[s]
	return c, ok
}

func (c Category) String() string {
	switch c {
	case CategoryIntimate:
		return "intimate"
	case CategorySelfHarm:
		return "self harm"
	case CategoryHate:
		return "hate speech/harassment"
	case CategoryViolence:
		return "violence"
	case CategorySpam:
		return "spam"
	case CategoryOther:
		return "other"
	default:
		return "unset"
	}
}

// State enumerates the stages of the reporting dialogue. The
// message-identified phase is split into three prompt stages (category, age,
// block choice) so an unrecognized answer re-asks only the pending question
// and never re-asks a field that was already captured.
type State int

const (
	StateStart State = iota
	StateAwaitingLink
	StateAwaitingCategory
	StateAwaitingAge
	StateAwaitingBlockChoice
	StateChildSolicitation
	StateSubmitted
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateAwaitingLink:
		return "awaiting_link"
	case StateAwaitingCategory:
		return "awaiting_category"
	case StateAwaitingAge:
		return "awaiting_age"
	case StateAwaitingBlockChoice:
		return "awaiting_block_choice"
	case StateChildSolicitation:
		return "child_solicitation"
	case StateSubmitted:
		return "submitted"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further user input is expected in this state.
func (s State) Terminal() bool {
	return s == StateSubmitted || s == StateComplete
}

// MinorStatus is the tri-state age disclosure answer.
type MinorStatus int

const (
	MinorUnknown MinorStatus = iota
	MinorYes
	MinorNo
)
