package nlu

import (
	"fmt"
	"strings"

	"github.com/kashmithnisakya/agentic-order-management/internal/core/domain"
)

// ChatMessage is one turn of prior conversation supplied by the caller.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const orderSchemaHint = `Respond with ONLY a JSON object of the form:
{"products":[{"product_id":"...","product_name":"...","quantity":1}],"message":"reply to the customer"}`

const intentSchemaHint = `Respond with exactly one of: ORDER_PLACEMENT, STATUS_QUERY, PRODUCT_INQUIRY, UNKNOWN`

func catalogContext(products []domain.Product) string {
	var sb strings.Builder
	for _, p := range products {
		fmt.Fprintf(&sb, "- %s (ID: %s): $%s each, %d %s in stock\n",
			p.Name, p.ID, p.Price.StringFixed(2), p.Stock, p.Unit)
	}
	return sb.String()
}

func buildOrderPrompt(message string, products []domain.Product) string {
	var sb strings.Builder
	sb.WriteString("Process the following customer order request.\n\n")
	fmt.Fprintf(&sb, "Customer message: %q\n\n", message)
	sb.WriteString("Available products:\n")
	sb.WriteString(catalogContext(products))
	sb.WriteString("\nIdentify which products the customer wants and how many units of each. ")
	sb.WriteString("Match product names against the available products, tolerating typos and plurals. ")
	sb.WriteString("Use only product IDs from the list above.\n")
	return sb.String()
}

func intentPrompt(message string) string {
	return fmt.Sprintf(
		"Classify the intent of this customer message for an order-management system.\n"+
			"Message: %q\n"+
			"ORDER_PLACEMENT means the customer wants to buy something now. "+
			"STATUS_QUERY means they ask about an existing order. "+
			"PRODUCT_INQUIRY means they ask about products, prices or availability.",
		message)
}

// BuildInquiryPrompt is used by the inquiry pipeline, which lives outside
// this package but shares the catalog context format.
func BuildInquiryPrompt(message string, history []ChatMessage, products []domain.Product) string {
	var sb strings.Builder
	sb.WriteString("Answer the following customer product inquiry.\n\n")
	fmt.Fprintf(&sb, "Customer question: %q\n", message)

	if len(history) > 0 {
		sb.WriteString("\nPrevious conversation:\n")
		start := 0
		if len(history) > 6 {
			start = len(history) - 6
		}
		for _, msg := range history[start:] {
			fmt.Fprintf(&sb, "%s: %s\n", strings.ToUpper(msg.Role), msg.Content)
		}
	}

	sb.WriteString("\nAvailable products:\n")
	sb.WriteString(catalogContext(products))
	sb.WriteString("\nAnswer helpfully using only the inventory above. Mention prices and stock levels.\n")
	return sb.String()
}
