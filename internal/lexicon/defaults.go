package lexicon

// Built-in word lists used to seed a fresh database and to back the
// offline CLI when no database is configured.

var defaultSynonyms = map[string][]string{
	"amazing":   {"incredible", "remarkable", "stunning"},
	"best":      {"top", "leading", "finest"},
	"big":       {"huge", "major", "massive"},
	"buy":       {"get", "grab", "order"},
	"cheap":     {"affordable", "budget-friendly", "low-cost"},
	"deal":      {"offer", "bargain", "promotion"},
	"discount":  {"markdown", "price cut", "saving"},
	"exclusive": {"members-only", "private", "select"},
	"fast":      {"quick", "rapid", "speedy"},
	"free":      {"complimentary", "no-cost", "zero-cost"},
	"great":     {"excellent", "fantastic", "superb"},
	"hello":     {"hi", "hey", "greetings"},
	"important": {"essential", "critical", "key"},
	"limited":   {"scarce", "rare", "short-run"},
	"new":       {"fresh", "brand-new", "latest"},
	"now":       {"today", "right away", "immediately"},
	"offer":     {"deal", "proposal", "promotion"},
	"sale":      {"clearance", "markdown", "promotion"},
	"save":      {"keep", "pocket", "retain"},
	"special":   {"unique", "standout", "one-off"},
	"welcome":   {"greetings", "good to see you", "glad you are here"},
}

var defaultTrending = []string{
	"AI",
	"carbon-neutral",
	"contactless",
	"next-gen",
	"smart home",
	"subscription",
	"sustainable",
	"wellness",
}

// Builtin is an in-memory lexicon backed by the built-in word lists.
// It serves CLI commands that run without a database.
type Builtin struct{}

// Synonyms implements the strategy lexicon interface.
func (Builtin) Synonyms() (map[string][]string, error) {
	table := make(map[string][]string, len(defaultSynonyms))
	for word, alts := range defaultSynonyms {
		table[word] = append([]string(nil), alts...)
	}
	return table, nil
}

// TrendingTerms implements the strategy lexicon interface.
func (Builtin) TrendingTerms() ([]string, error) {
	return append([]string(nil), defaultTrending...), nil
}
