// Package buyergroup holds the purchasing-role vocabulary used when
// classifying people at a target company.
package buyergroup

// Buyer group roles, in the order reports print them.
const (
	RoleDecisionMaker = "decision_maker"
	RoleChampion      = "champion"
	RoleStakeholder   = "stakeholder"
	RoleBlocker       = "blocker"
	RoleOpener        = "opener"
)

// Roles lists every known role in report order.
func Roles() []string {
	return []string{
		RoleDecisionMaker,
		RoleChampion,
		RoleStakeholder,
		RoleBlocker,
		RoleOpener,
	}
}

// ValidRole reports whether role is part of the known vocabulary.
func ValidRole(role string) bool {
	switch role {
	case RoleDecisionMaker, RoleChampion, RoleStakeholder, RoleBlocker, RoleOpener:
		return true
	}
	return false
}
