package nlu

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
)

func interpreterProducts() []domain.Product {
	return []domain.Product{
		{ID: "prod_001", Name: "Wireless Keyboard", Category: "electronics", Price: decimal.RequireFromString("49.99"), Stock: 500},
		{ID: "prod_002", Name: "Wireless Mouse", Category: "electronics", Price: decimal.RequireFromString("24.99"), Stock: 750},
		{ID: "prod_004", Name: "Laptop Stand", Category: "accessories", Price: decimal.RequireFromString("34.99"), Stock: 200},
	}
}

func TestInterpret_ModelLevelSucceeds(t *testing.T) {
	fc := &fakeCompleter{output: `{"products": [{"product_id": "prod_001", "quantity": 100}], "message": "ok"}`}
	oi := NewOrderInterpreter(fc, time.Second, zap.NewNop())

	draft, level, err := oi.Interpret(context.Background(), "order 100 wireless keyboards", interpreterProducts())
	require.NoError(t, err)
	assert.Equal(t, LevelModel, level)
	require.Len(t, draft.Items, 1)
	assert.Equal(t, "prod_001", draft.Items[0].ProductID)
	assert.Equal(t, "Wireless Keyboard", draft.Items[0].ProductName)
	assert.Equal(t, 100, draft.Items[0].Quantity)
}

func TestInterpret_ModelNameOnlyClampedToCatalog(t *testing.T) {
	fc := &fakeCompleter{output: `{"products": [{"product_id": "sku-9", "product_name": "wireless keyboard", "quantity": 2}]}`}
	oi := NewOrderInterpreter(fc, time.Second, zap.NewNop())

	draft, level, err := oi.Interpret(context.Background(), "2 wireless keyboards", interpreterProducts())
	require.NoError(t, err)
	assert.Equal(t, LevelModel, level)
	assert.Equal(t, "prod_001", draft.Items[0].ProductID)
}

func TestInterpret_EmbeddedJSONFallsToExtraction(t *testing.T) {
	fc := &fakeCompleter{output: "Sure! Here is the order:\n```json\n" +
		`{"products": [{"product_id": "prod_002", "quantity": 3}]}` + "\n```\nLet me know."}
	oi := NewOrderInterpreter(fc, time.Second, zap.NewNop())

	draft, level, err := oi.Interpret(context.Background(), "3 wireless mice", interpreterProducts())
	require.NoError(t, err)
	assert.Equal(t, LevelExtraction, level)
	require.Len(t, draft.Items, 1)
	assert.Equal(t, "prod_002", draft.Items[0].ProductID)
	assert.Equal(t, 3, draft.Items[0].Quantity)
}

func TestInterpret_GarbageModelOutputFallsToRules(t *testing.T) {
	fc := &fakeCompleter{output: "I cannot help with that."}
	oi := NewOrderInterpreter(fc, time.Second, zap.NewNop())

	draft, level, err := oi.Interpret(context.Background(), "order 5 laptop stands", interpreterProducts())
	require.NoError(t, err)
	assert.Equal(t, LevelRules, level)
	require.Len(t, draft.Items, 1)
	assert.Equal(t, "prod_004", draft.Items[0].ProductID)
	assert.Equal(t, 5, draft.Items[0].Quantity)
}

func TestInterpret_ModelErrorFallsToRules(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("connection refused")}
	oi := NewOrderInterpreter(fc, time.Second, zap.NewNop())

	draft, level, err := oi.Interpret(context.Background(), "buy 2 wireless keyboards", interpreterProducts())
	require.NoError(t, err)
	assert.Equal(t, LevelRules, level)
	assert.Equal(t, "prod_001", draft.Items[0].ProductID)
}

func TestInterpret_SchemaGateRejectsUnknownProduct(t *testing.T) {
	// Valid JSON that references a product outside the catalog must not pass;
	// rules then resolve the real product from the message.
	fc := &fakeCompleter{output: `{"products": [{"product_id": "prod_999", "quantity": 1}]}`}
	oi := NewOrderInterpreter(fc, time.Second, zap.NewNop())

	draft, level, err := oi.Interpret(context.Background(), "order 1 wireless mouse", interpreterProducts())
	require.NoError(t, err)
	assert.Equal(t, LevelRules, level)
	assert.Equal(t, "prod_002", draft.Items[0].ProductID)
}

func TestInterpret_SchemaGateRejectsNonPositiveQuantity(t *testing.T) {
	fc := &fakeCompleter{output: `{"products": [{"product_id": "prod_001", "quantity": 0}]}`}
	oi := NewOrderInterpreter(fc, time.Second, zap.NewNop())

	draft, level, err := oi.Interpret(context.Background(), "order 4 wireless keyboards", interpreterProducts())
	require.NoError(t, err)
	assert.Equal(t, LevelRules, level)
	assert.Equal(t, 4, draft.Items[0].Quantity)
}

func TestInterpret_NoCompleterGoesStraightToRules(t *testing.T) {
	oi := NewOrderInterpreter(nil, time.Second, zap.NewNop())

	draft, level, err := oi.Interpret(context.Background(), "I want to order 10 wireless mice", interpreterProducts())
	require.NoError(t, err)
	assert.Equal(t, LevelRules, level)
	assert.Equal(t, "prod_002", draft.Items[0].ProductID)
	assert.Equal(t, 10, draft.Items[0].Quantity)
}

func TestInterpret_UnknownProductFailsAllLevels(t *testing.T) {
	oi := NewOrderInterpreter(nil, time.Second, zap.NewNop())

	_, level, err := oi.Interpret(context.Background(), "I want to order 3 flying carpets", interpreterProducts())
	assert.Equal(t, LevelRules, level)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestInterpret_AmbiguousFragmentReported(t *testing.T) {
	products := append(interpreterProducts(), domain.Product{
		ID: "prod_006", Name: "Mechanical Keyboard", Category: "electronics",
		Price: decimal.RequireFromString("89.99"), Stock: 120,
	})
	oi := NewOrderInterpreter(nil, time.Second, zap.NewNop())

	_, _, err := oi.Interpret(context.Background(), "order 2 keyboards", products)
	var ambiguous *domain.AmbiguousProductError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, "keyboards", ambiguous.Fragment)
	assert.Contains(t, ambiguous.Candidates, "Wireless Keyboard")
	assert.Contains(t, ambiguous.Candidates, "Mechanical Keyboard")
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"prefix {\"a\": {\"b\": 2}} suffix", `{"a": {"b": 2}}`},
		{`{"s": "brace } in string"}`, `{"s": "brace } in string"}`},
		{`{"s": "escaped \" quote"}`, `{"s": "escaped \" quote"}`},
		{"no json here", ""},
		{"{unterminated", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ExtractJSON(tc.in), "input %q", tc.in)
	}
}
