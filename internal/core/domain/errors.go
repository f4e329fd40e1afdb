package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrExtractionAmbiguous  = errors.New("extraction ambiguous")
	ErrExtractionEmpty      = errors.New("no actionable entities found")
	ErrInterpretationFailed = errors.New("interpretation failed")
	ErrInvalidTransition    = errors.New("invalid status transition")
)

// InsufficientStockError carries the quantity actually available, and when the
// product is fully out of stock, alternatives from the same category.
type InsufficientStockError struct {
	ProductID    string
	Requested    int
	Available    int
	Alternatives []Product
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// AmbiguousProductError reports a text fragment that matched several catalog
// entries with no clear winner.
type AmbiguousProductError struct {
	Fragment   string
	Candidates []string
}

func (e *AmbiguousProductError) Error() string {
	return fmt.Sprintf("ambiguous product %q: candidates %s",
		e.Fragment, strings.Join(e.Candidates, ", "))
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// ErrorKind maps taxonomy errors to the stable error_kind strings exposed in
// structured responses. Unexpected errors map to "internal".
func ErrorKind(err error) string {
	var (
		stockErr      *InsufficientStockError
		ambiguousErr  *AmbiguousProductError
		validationErr *ValidationError
	)
	switch {
	case errors.Is(err, ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrExtractionAmbiguous):
		return "extraction_ambiguous"
	case errors.Is(err, ErrExtractionEmpty):
		return "extraction_empty"
	case errors.Is(err, ErrInterpretationFailed):
		return "interpretation_failed"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.As(err, &ambiguousErr):
		return "ambiguous_product"
	case errors.As(err, &validationErr):
		return "validation_error"
	default:
		return "internal"
	}
}
