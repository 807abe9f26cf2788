package variant

import "github.com/spindlehq/spindle/internal/strategy"

// Preview mode tags. The engine never interprets these; they ride the
// envelope so the caller can route a variant to the right preview frame.
const (
	ModeDesktop = "desktop"
	ModeMobile  = "mobile"
	ModeHTML    = "html"
)

// Request describes one batch generation call.
type Request struct {
	Count      int            `json:"count"`
	Seed       uint64         `json:"seed,omitempty"`
	Strategies strategy.Flags `json:"strategies"`
	Mode       string         `json:"mode,omitempty"`
}

// Variant is one concrete rendering of a template. Variants are value
// objects: equality for deduplication is Text equality, and ID is envelope
// metadata with no semantic meaning.
type Variant struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"`
}

// Stats reports how a batch was produced.
type Stats struct {
	Requested       int  `json:"requested"`
	Unique          int  `json:"unique"`
	Attempts        int  `json:"attempts"`
	BudgetExhausted bool `json:"budget_exhausted"`
}
