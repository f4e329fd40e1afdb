package nlu

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
)

// ItemMention pairs a product text fragment with the quantity token found
// closest to it.
type ItemMention struct {
	ProductText string
	Quantity    int
}

type Entities struct {
	Items    []ItemMention
	OrderRef string
	TimeHint string
}

var (
	orderRefPattern = regexp.MustCompile(`(?i)\b(order[_\s#-]?)([0-9a-f]{6,12})\b`)
	hashRefPattern  = regexp.MustCompile(`#([A-Za-z0-9_-]{4,})`)
	numberPattern   = regexp.MustCompile(`^\d{1,3}(,\d{3})*$|^\d+$`)
	// Commas only split when followed by whitespace so "1,000" stays intact.
	segmentSplit = regexp.MustCompile(`(?i)\s*(?:,\s+|;|\band\s+also\b|\band\b|\bplus\b)\s*`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "twenty": 20, "thirty": 30,
	"forty": 40, "fifty": 50, "hundred": 100, "dozen": 12,
}

var timeHints = []string{"recent", "latest", "last", "yesterday", "today", "this week", "last week"}

// mention stopwords: request verbs, politeness, and filler that never belongs
// to a product name.
var mentionStopwords = map[string]bool{
	"i": true, "we": true, "you": true, "me": true, "my": true, "us": true,
	"want": true, "need": true, "would": true, "like": true, "to": true,
	"please": true, "order": true, "buy": true, "purchase": true, "get": true,
	"place": true, "make": true, "an": true, "a": true, "the": true,
	"some": true, "of": true, "unit": true, "units": true, "piece": true,
	"pieces": true, "pcs": true, "for": true, "also": true, "too": true,
	"hi": true, "hello": true, "hey": true, "thanks": true, "thank": true,
	"can": true, "could": true, "more": true, "another": true, "new": true,
	"do": true, "does": true, "have": true, "has": true,
	"sell": true, "is": true, "are": true, "there": true, "any": true,
	"what": true, "which": true, "how": true, "much": true, "many": true,
	"in": true, "stock": true, "available": true, "your": true, "price": true,
}

// Extract turns a message into typed candidate entities. Quantities pair with
// the nearest product fragment; a message with multiple product fragments but
// unmatchable quantities fails with domain.ErrExtractionAmbiguous, and a
// message with no actionable entities fails with domain.ErrExtractionEmpty.
func Extract(message string, intent Intent) (*Entities, error) {
	ents := &Entities{}

	cleaned := strings.TrimSpace(message)
	if cleaned == "" {
		return nil, domain.ErrExtractionEmpty
	}

	lower := strings.ToLower(cleaned)
	for _, hint := range timeHints {
		if strings.Contains(lower, hint) {
			ents.TimeHint = hint
			break
		}
	}

	if intent == IntentStatusQuery {
		// Only status queries carry references. In an order message a long
		// digit run after "order" is a quantity, never an id.
		if m := orderRefPattern.FindStringSubmatch(cleaned); m != nil {
			ents.OrderRef = "order_" + strings.ToLower(m[2])
		} else if m := hashRefPattern.FindStringSubmatch(cleaned); m != nil {
			ents.OrderRef = m[1]
		}
		return ents, nil
	}

	for _, segment := range segmentSplit.Split(cleaned, -1) {
		mention, ok, err := extractMention(segment)
		if err != nil {
			return nil, err
		}
		if ok {
			ents.Items = append(ents.Items, mention)
		}
	}

	if len(ents.Items) == 0 {
		return nil, domain.ErrExtractionEmpty
	}

	return ents, nil
}

// extractMention parses one segment into a (quantity, product text) pair.
// The quantity is the segment's number token; product text is whatever
// non-stopword tokens surround it, preferring the trailing side.
func extractMention(segment string) (ItemMention, bool, error) {
	tokens := strings.Fields(strings.ToLower(stripPunct(segment)))
	if len(tokens) == 0 {
		return ItemMention{}, false, nil
	}

	quantity := 0
	quantityIdx := -1
	for i, tok := range tokens {
		if n, ok := parseQuantity(tok); ok {
			if quantityIdx >= 0 {
				// Two numbers in one fragment: the pairing is no longer confident.
				return ItemMention{}, false, domain.ErrExtractionAmbiguous
			}
			quantity = n
			quantityIdx = i
		}
	}

	var productTokens []string
	if quantityIdx >= 0 {
		// Closest following words first; fall back to the preceding side.
		productTokens = filterStopwords(tokens[quantityIdx+1:])
		if len(productTokens) == 0 {
			productTokens = filterStopwords(tokens[:quantityIdx])
		}
		if len(productTokens) == 0 {
			return ItemMention{}, false, domain.ErrExtractionAmbiguous
		}
	} else {
		productTokens = filterStopwords(tokens)
		if len(productTokens) == 0 {
			return ItemMention{}, false, nil
		}
		// No number anywhere near the mention: a bare article reads as one.
		quantity = 1
	}

	return ItemMention{
		ProductText: strings.Join(productTokens, " "),
		Quantity:    quantity,
	}, true, nil
}

func parseQuantity(tok string) (int, bool) {
	if n, ok := numberWords[tok]; ok {
		return n, true
	}
	if numberPattern.MatchString(tok) {
		n, err := strconv.Atoi(strings.ReplaceAll(tok, ",", ""))
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

func filterStopwords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" || mentionStopwords[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '!', '?', '"', '\'', '(', ')', ':':
			return ' '
		}
		return r
	}, s)
}
