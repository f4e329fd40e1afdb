package domain

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User records are read-only to the core; accounts are managed elsewhere.
type User struct {
	ID    string
	Name  string
	Email string
	Role  Role
}
