package domain

type IssueType string

const (
	IssueLowStock       IssueType = "low_stock"
	IssueCriticalStock  IssueType = "critical_stock"
	IssueOutOfStock     IssueType = "out_of_stock"
	IssueStuckOrders    IssueType = "stuck_orders"
	IssueOldPending     IssueType = "old_pending"
	IssueLowFulfillment IssueType = "low_fulfillment"
)

type IssueSeverity string

const (
	SeverityMedium IssueSeverity = "medium"
	SeverityHigh   IssueSeverity = "high"
)

// Issue is derived on every analytics pass and never persisted.
type Issue struct {
	Type           IssueType
	Severity       IssueSeverity
	Message        string
	Products       []string
	Recommendation string
}
