// Package nlu turns free-form messages into typed intents, entities, and
// validated order drafts, degrading gracefully when the language model
// misbehaves.
package nlu

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/kashmithnisakya/agentic-order-management/internal/port"
)

type Intent string

const (
	IntentOrderPlacement Intent = "ORDER_PLACEMENT"
	IntentStatusQuery    Intent = "STATUS_QUERY"
	IntentProductInquiry Intent = "PRODUCT_INQUIRY"
	IntentUnknown        Intent = "UNKNOWN"
)

// Rule corpus. Status verbs outrank order verbs because "where is my order"
// contains the word order.
var (
	statusPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bwhere('?s| is)?\s+(my|the)\s+(order|package|delivery)\b`),
		regexp.MustCompile(`(?i)\b(track|tracking|status|shipped|deliver(y|ed)?|arriv(e|ed|ing))\b`),
		regexp.MustCompile(`(?i)\bmy\s+(recent\s+)?orders?\b`),
	}
	orderPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(please\s+)?(i\s+(want|need|would\s+like)\s+(to\s+)?)?(order|buy|purchase|get)\b`),
		regexp.MustCompile(`(?i)\b(order|buy|purchase)\s+\d+\b`),
		regexp.MustCompile(`(?i)\b(place|make)\s+(an?\s+)?order\b`),
		regexp.MustCompile(`(?i)\bi('?d| would)\s+like\s+\d+\b`),
	}
	inquiryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(what|which|how\s+much|how\s+many|do\s+you|is\s+there|are\s+there|tell\s+me)\b`),
		regexp.MustCompile(`(?i)\b(in\s+stock|available|availability|price\s+of|catalog|sell)\b`),
		regexp.MustCompile(`\?\s*$`),
	}
)

type Classifier struct {
	completer port.Completer // optional refinement for ambiguous cases
	logger    *zap.Logger
}

func NewClassifier(completer port.Completer, logger *zap.Logger) *Classifier {
	return &Classifier{completer: completer, logger: logger}
}

// Classify decides which pipeline a message belongs to. Deterministic rules
// are the baseline; the model only refines messages the rules cannot place,
// and its output is clamped to the four known intents.
func (c *Classifier) Classify(ctx context.Context, message string) Intent {
	if intent, decided := classifyByRules(message); decided {
		return intent
	}

	if c.completer != nil {
		raw, err := c.completer.Complete(ctx, intentPrompt(message), intentSchemaHint)
		if err == nil {
			if intent := ClampIntent(raw); intent != IntentUnknown {
				c.logger.Debug("intent refined by model",
					zap.String("intent", string(intent)))
				return intent
			}
		} else {
			c.logger.Warn("intent refinement failed, keeping rule result", zap.Error(err))
		}
	}

	return IntentUnknown
}

func classifyByRules(message string) (Intent, bool) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return IntentUnknown, true
	}

	for _, re := range statusPatterns {
		if re.MatchString(msg) {
			return IntentStatusQuery, true
		}
	}
	for _, re := range orderPatterns {
		if re.MatchString(msg) {
			return IntentOrderPlacement, true
		}
	}
	for _, re := range inquiryPatterns {
		if re.MatchString(msg) {
			return IntentProductInquiry, true
		}
	}
	return IntentUnknown, false
}

// ClampIntent maps arbitrary model output onto the enumerated intents; any
// unrecognized value becomes UNKNOWN.
func ClampIntent(raw string) Intent {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	cleaned = strings.Trim(cleaned, "\"'`.")
	switch {
	case strings.Contains(cleaned, "ORDER_PLACEMENT"):
		return IntentOrderPlacement
	case strings.Contains(cleaned, "STATUS_QUERY"):
		return IntentStatusQuery
	case strings.Contains(cleaned, "PRODUCT_INQUIRY"):
		return IntentProductInquiry
	default:
		return IntentUnknown
	}
}
