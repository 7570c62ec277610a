package types

import "github.com/samber/lo"

// Role is the actor role carried in the auth token
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

// Department is the actor department carried in the auth token
type Department string

const (
	DepartmentFinance    Department = "FINANCE"
	DepartmentHR         Department = "HR"
	DepartmentSales      Department = "SALES"
	DepartmentOperations Department = "OPERATIONS"
)

// HasFinanceAccess reports whether the actor may use ledger operations.
// Admins always can; everyone else needs to belong to finance.
func HasFinanceAccess(role Role, dept Department) bool {
	return role == RoleAdmin || dept == DepartmentFinance
}

func (r Role) Valid() bool {
	return lo.Contains([]Role{RoleAdmin, RoleManager, RoleEmployee}, r)
}
