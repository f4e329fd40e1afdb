package nlu

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
)

// OrderDraftItem is one requested line in a model-proposed order.
type OrderDraftItem struct {
	ProductID   string `json:"product_id" validate:"required"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
}

// OrderDraft is the structured payload every interpretation strategy must
// produce. It is gated by struct-tag validation plus a catalog cross-check
// before anything downstream trusts it.
type OrderDraft struct {
	Items   []OrderDraftItem `json:"products" validate:"required,min=1,dive"`
	Message string           `json:"message"`
}

// parseDraft requires the whole payload to be a single well-formed JSON
// object. Free text around it fails here and is handled by ExtractJSON.
func parseDraft(raw string) (*OrderDraft, error) {
	var draft OrderDraft
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(raw)))
	if err := dec.Decode(&draft); err != nil {
		return nil, err
	}
	// Trailing content after the object means this was not pure JSON.
	if dec.More() {
		return nil, &domain.ValidationError{Field: "payload", Reason: "trailing content after JSON object"}
	}
	return &draft, nil
}

// ExtractJSON locates the first brace-balanced JSON object embedded in free
// text, tolerating markdown fences and model chatter around it.
func ExtractJSON(response string) string {
	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}

	return ""
}

// validateDraft is the schema gate: struct-tag validation plus a cross-check
// that every referenced product exists in the catalog snapshot. Items with an
// unknown ID but a resolvable name are clamped onto the catalog entry.
func validateDraft(v *validator.Validate, draft *OrderDraft, byID map[string]domain.Product, byName map[string]domain.Product) error {
	if err := v.Struct(draft); err != nil {
		return &domain.ValidationError{Field: "products", Reason: err.Error()}
	}

	for i, item := range draft.Items {
		if p, ok := byID[item.ProductID]; ok {
			draft.Items[i].ProductName = p.Name
			continue
		}
		if p, ok := byName[strings.ToLower(item.ProductName)]; ok {
			draft.Items[i].ProductID = p.ID
			draft.Items[i].ProductName = p.Name
			continue
		}
		return &domain.ValidationError{
			Field:  "products",
			Reason: "unknown product " + item.ProductID,
		}
	}

	return nil
}

func productMaps(products []domain.Product) (map[string]domain.Product, map[string]domain.Product) {
	byID := make(map[string]domain.Product, len(products))
	byName := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
		byName[strings.ToLower(p.Name)] = p
	}
	return byID, byName
}
