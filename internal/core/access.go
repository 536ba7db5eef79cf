package core

import "strings"

// Caller carries the explicit identity of the requesting user. It is passed
// into every core call; the core never consults ambient session state.
type Caller struct {
	ID       string
	Role     Role
	OfficeID string
}

// AccessPolicy decides which proposals a caller can see and mutate. The role
// set is closed: switching over it is exhaustive, and anything that parsed
// to RoleUnknown sees nothing.
type AccessPolicy struct{}

// Visible reports whether the caller's role grants read access to the
// proposal. The owner record may be nil when the owning user has been
// removed from the directory; office-scoped visibility then denies.
func (AccessPolicy) Visible(caller Caller, p Proposal, owner *User) bool {
	switch caller.Role {
	case RoleUser:
		return p.UserID == caller.ID
	case RolePSTO:
		return owner != nil && owner.OfficeID != "" && owner.OfficeID == caller.OfficeID
	case RoleHead, RoleRPMO, RoleStaff:
		return true
	case RoleUnknown:
		return false
	default:
		return false
	}
}

// CanMutate reports whether the caller may edit or delete the proposal:
// owner only, and only while the proposal is still Pending. Visibility and
// mutation are independent; a reviewer role sees proposals it can never
// touch.
func (AccessPolicy) CanMutate(caller Caller, p Proposal) bool {
	return p.UserID == caller.ID && p.Status == StatusPending
}

// MatchesSearch applies the free-text overlay: a case-insensitive substring
// match OR-combined across title, details, status, owner first/last name,
// proponent name, and beneficiary group name. An empty term matches
// everything.
func (AccessPolicy) MatchesSearch(term string, p Proposal, owner *User, proponent *Proponent, beneficiary *Beneficiary) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	contains := func(haystack string) bool {
		return strings.Contains(strings.ToLower(haystack), needle)
	}
	if contains(p.Title) || contains(p.Details) || contains(string(p.Status)) {
		return true
	}
	if owner != nil && (contains(owner.FirstName) || contains(owner.LastName)) {
		return true
	}
	if proponent != nil && contains(proponent.Name) {
		return true
	}
	if beneficiary != nil && contains(beneficiary.Group) {
		return true
	}
	return false
}
