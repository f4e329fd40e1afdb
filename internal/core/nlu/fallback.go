package nlu

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/catalog"
	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
	"github.com/kashmithnisakya/agentic-order-management/internal/port"
)

// FallbackLevel identifies which interpretation strategy produced a result.
type FallbackLevel int

const (
	LevelModel FallbackLevel = iota + 1
	LevelExtraction
	LevelRules
)

func (l FallbackLevel) String() string {
	switch l {
	case LevelModel:
		return "model"
	case LevelExtraction:
		return "extraction"
	case LevelRules:
		return "rules"
	default:
		return "unknown"
	}
}

// ambiguityMargin is the minimum confidence gap between the top two catalog
// candidates before a fragment counts as resolved.
const ambiguityMargin = 0.1

// OrderInterpreter runs the three-level fallback chain for order messages:
// model completion, embedded-JSON extraction from the model's free text, then
// deterministic rules over the entity extractor and catalog index. The chain
// stops at the first strategy whose output passes the schema gate.
type OrderInterpreter struct {
	completer port.Completer // nil disables the model levels
	validate  *validator.Validate
	timeout   time.Duration
	logger    *zap.Logger
}

func NewOrderInterpreter(completer port.Completer, timeout time.Duration, logger *zap.Logger) *OrderInterpreter {
	return &OrderInterpreter{
		completer: completer,
		validate:  validator.New(),
		timeout:   timeout,
		logger:    logger,
	}
}

// Interpret resolves a message into a validated order draft. Every escalation
// is logged so model quality can be audited over time.
func (oi *OrderInterpreter) Interpret(ctx context.Context, message string, products []domain.Product) (*OrderDraft, FallbackLevel, error) {
	byID, byName := productMaps(products)

	var raw string
	if oi.completer != nil {
		cctx, cancel := context.WithTimeout(ctx, oi.timeout)
		completion, err := oi.completer.Complete(cctx, buildOrderPrompt(message, products), orderSchemaHint)
		cancel()
		if err != nil {
			oi.logger.Warn("model interpretation unavailable, falling back",
				zap.String("level", LevelModel.String()),
				zap.Error(err))
		} else {
			raw = completion
			if draft, err := parseDraft(raw); err == nil {
				if err := validateDraft(oi.validate, draft, byID, byName); err == nil {
					oi.logger.Info("interpretation succeeded",
						zap.String("level", LevelModel.String()))
					return draft, LevelModel, nil
				} else {
					oi.logger.Warn("model output failed schema gate, falling back",
						zap.String("level", LevelModel.String()),
						zap.Error(err))
				}
			} else {
				oi.logger.Warn("model output not valid JSON, falling back",
					zap.String("level", LevelModel.String()),
					zap.Error(err))
			}
		}
	}

	if raw != "" {
		if fragment := ExtractJSON(raw); fragment != "" {
			if draft, err := parseDraft(fragment); err == nil {
				if err := validateDraft(oi.validate, draft, byID, byName); err == nil {
					oi.logger.Info("interpretation succeeded",
						zap.String("level", LevelExtraction.String()))
					return draft, LevelExtraction, nil
				} else {
					oi.logger.Warn("extracted fragment failed schema gate, falling back",
						zap.String("level", LevelExtraction.String()),
						zap.Error(err))
				}
			} else {
				oi.logger.Warn("extracted fragment not valid JSON, falling back",
					zap.String("level", LevelExtraction.String()),
					zap.Error(err))
			}
		}
	}

	draft, err := oi.interpretByRules(message, products, byID, byName)
	if err != nil {
		oi.logger.Warn("all interpretation strategies failed",
			zap.String("message", message),
			zap.Error(err))
		return nil, LevelRules, err
	}

	oi.logger.Info("interpretation succeeded", zap.String("level", LevelRules.String()))
	return draft, LevelRules, nil
}

// interpretByRules needs no model: extract entities, resolve each fragment
// against the catalog, reject unresolvable or ambiguous fragments.
func (oi *OrderInterpreter) interpretByRules(message string, products []domain.Product, byID, byName map[string]domain.Product) (*OrderDraft, error) {
	ents, err := Extract(message, IntentOrderPlacement)
	if err != nil {
		return nil, err
	}
	if len(ents.Items) == 0 {
		return nil, domain.ErrExtractionEmpty
	}

	index := catalog.NewIndex(products)

	draft := &OrderDraft{}
	for _, mention := range ents.Items {
		matches := index.Resolve(mention.ProductText)
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: no catalog match for %q", domain.ErrProductNotFound, mention.ProductText)
		}
		if len(matches) > 1 && matches[0].Confidence-matches[1].Confidence < ambiguityMargin {
			candidates := make([]string, 0, len(matches))
			for _, m := range matches {
				candidates = append(candidates, m.Product.Name)
			}
			return nil, &domain.AmbiguousProductError{Fragment: mention.ProductText, Candidates: candidates}
		}
		draft.Items = append(draft.Items, OrderDraftItem{
			ProductID:   matches[0].Product.ID,
			ProductName: matches[0].Product.Name,
			Quantity:    mention.Quantity,
		})
	}

	if err := validateDraft(oi.validate, draft, byID, byName); err != nil {
		return nil, fmt.Errorf("%w: %v (message %q)", domain.ErrInterpretationFailed, err, message)
	}

	return draft, nil
}
