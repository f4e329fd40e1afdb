// Package catalog provides in-memory product lookup with fuzzy matching.
package catalog

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
)

// DefaultMinConfidence is the floor below which candidates are dropped.
const DefaultMinConfidence = 0.5

type Match struct {
	Product    domain.Product
	Confidence float64
}

// Index is a read-only snapshot of the catalog. Resolve is side-effect free;
// build a fresh index when the product list changes.
type Index struct {
	products      []domain.Product
	names         []string
	minConfidence float64
}

func NewIndex(products []domain.Product) *Index {
	ix := &Index{
		products:      products,
		names:         make([]string, len(products)),
		minConfidence: DefaultMinConfidence,
	}
	for i, p := range products {
		ix.names[i] = normalize(p.Name)
	}
	return ix
}

// Resolve ranks catalog candidates for a free-text fragment. Exact name
// matches rank above token-subset matches, which rank above fuzzy matches.
func (ix *Index) Resolve(fragment string) []Match {
	frag := normalize(fragment)
	if frag == "" {
		return nil
	}

	confidences := make(map[int]float64)

	fragTokens := strings.Fields(frag)
	for i, name := range ix.names {
		switch {
		case name == frag:
			confidences[i] = 1.0
		case containsAllTokens(name, fragTokens):
			confidences[i] = 0.9
		case strings.Contains(name, frag) || strings.Contains(frag, name):
			confidences[i] = 0.8
		}
	}

	// Fuzzy tier only fills in candidates the stricter tiers missed.
	if len(frag) >= 3 {
		results := fuzzy.Find(frag, ix.names)
		for rank, m := range results {
			if _, ok := confidences[m.Index]; ok {
				continue
			}
			if m.Score <= 0 {
				continue
			}
			conf := 0.75 - 0.05*float64(rank)
			if conf < ix.minConfidence {
				continue
			}
			confidences[m.Index] = conf
		}
	}

	matches := make([]Match, 0, len(confidences))
	for i, conf := range confidences {
		if conf < ix.minConfidence {
			continue
		}
		matches = append(matches, Match{Product: ix.products[i], Confidence: conf})
	}

	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Confidence != matches[b].Confidence {
			return matches[a].Confidence > matches[b].Confidence
		}
		return matches[a].Product.Name < matches[b].Product.Name
	})

	return matches
}

// irregulars that singularizeToken's suffix stripping cannot handle.
var irregularPlurals = map[string]string{
	"mice":   "mouse",
	"geese":  "goose",
	"people": "person",
}

func normalize(s string) string {
	tokens := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, tok := range tokens {
		tokens[i] = singularizeToken(tok)
	}
	return strings.Join(tokens, " ")
}

func singularizeToken(tok string) string {
	if irregular, ok := irregularPlurals[tok]; ok {
		return irregular
	}
	switch {
	case len(tok) > 3 && strings.HasSuffix(tok, "ies"):
		return tok[:len(tok)-3] + "y"
	case len(tok) > 3 && strings.HasSuffix(tok, "ses"):
		return tok[:len(tok)-2]
	case len(tok) > 2 && strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss"):
		return tok[:len(tok)-1]
	default:
		return tok
	}
}

func containsAllTokens(name string, fragTokens []string) bool {
	nameTokens := strings.Fields(name)
	for _, ft := range fragTokens {
		found := false
		for _, nt := range nameTokens {
			if nt == ft {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
