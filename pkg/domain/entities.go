// Package domain defines the core persistent entities, value types, error
// taxonomy, and rule evaluation primitives used by grantcore.
package domain

import (
	"strconv"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityProposal identifies a funding proposal record.
	EntityProposal EntityType = "proposal"
	// EntityProponent identifies a proponent record.
	EntityProponent EntityType = "proponent"
	// EntityCollaborator identifies a collaborator record.
	EntityCollaborator EntityType = "collaborator"
	// EntityBeneficiary identifies a beneficiary group record.
	EntityBeneficiary EntityType = "beneficiary"
	// EntityProgram identifies a grant program record.
	EntityProgram EntityType = "program"
	// EntityUser identifies a directory user record.
	EntityUser EntityType = "user"
)

// Status represents the canonical proposal workflow states. The spellings are
// persisted and searched as data, so they keep their human-readable form.
type Status string

// Canonical proposal statuses. Only Pending permits owner edits and deletes;
// every other state is driven by the external review workflow.
const (
	// StatusPending is the initial state of every submitted proposal.
	StatusPending Status = "Pending"
	// StatusApproved marks a proposal accepted by the review workflow.
	StatusApproved Status = "Approved"
	// StatusRejected marks a proposal declined by the review workflow.
	StatusRejected    Status = "Rejected"
	StatusUnderReview Status = "Under Review"
)

// KnownStatuses enumerates every status value the core accepts.
func KnownStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusRejected, StatusUnderReview}
}

// ValidStatus reports whether s is one of the canonical proposal statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusUnderReview:
		return true
	default:
		return false
	}
}

// Sex enumerates the recorded sex values for proponents and beneficiary leaders.
type Sex string

// Recorded sex values. SexOther is accepted only for beneficiary leaders.
const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
	SexOther  Sex = "Other"
)

// Role is the closed set of caller roles recognised by the access policy.
// Unrecognised role strings parse to RoleUnknown, which sees nothing.
type Role string

// Caller roles. RoleUser sees own proposals, RolePSTO sees its office,
// RoleHead/RoleRPMO/RoleStaff see everything, RoleUnknown sees nothing.
const (
	RoleUser    Role = "user"
	RolePSTO    Role = "psto"
	RoleHead    Role = "head"
	RoleRPMO    Role = "rpmo"
	RoleStaff   Role = "staff"
	RoleUnknown Role = "unknown"
)

// ParseRole maps a raw role string onto the closed Role set. Anything outside
// the recognised values collapses to RoleUnknown.
func ParseRole(raw string) Role {
	switch Role(raw) {
	case RoleUser, RolePSTO, RoleHead, RoleRPMO, RoleStaff:
		return Role(raw)
	default:
		return RoleUnknown
	}
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Proposal is a funding request submitted under a program. It is the root
// entity of the core: every related entity reference is resolved before the
// proposal row is written, and the row is mutable only while Pending.
type Proposal struct {
	Base
	UserID         string  `json:"user_id"`
	ProgramID      string  `json:"program_id"`
	ProponentID    string  `json:"proponent_id"`
	CollaboratorID *string `json:"collaborator_id"`
	BeneficiaryID  string  `json:"beneficiary_id"`
	ProjectType    *string `json:"project_type"`
	Title          string  `json:"title"`
	Details        string  `json:"details"`
	Status         Status  `json:"status"`
}

// Proponent is the individual formally proposing a project. Two submissions
// with the same (name, sex) pair always resolve to the same row.
type Proponent struct {
	Base
	Name string `json:"proponent_name"`
	Sex  Sex    `json:"sex"`
}

// IdentityKey returns the exact-match dedup key for a proponent.
func (p Proponent) IdentityKey() string {
	return p.Name + "\x1f" + string(p.Sex)
}

// Collaborator is an optional co-participating entity on a proposal,
// deduplicated by bare name.
type Collaborator struct {
	Base
	Name string `json:"collaborator_name"`
}

// IdentityKey returns the dedup key for a collaborator.
func (c Collaborator) IdentityKey() string { return c.Name }

// Beneficiary is the group expected to benefit from a proposal, with a leader
// and gender-disaggregated head counts. Total is stored redundantly and must
// equal Male + Female at all times.
type Beneficiary struct {
	Base
	Group     string `json:"beneficiary"`
	Leader    string `json:"beneficiary_leader"`
	LeaderSex Sex    `json:"beneficiary_leader_sex"`
	Male      int    `json:"male_beneficiaries"`
	Female    int    `json:"female_beneficiaries"`
	Total     int    `json:"total_beneficiaries"`
}

// IdentityKey returns the exact-match dedup key for a beneficiary group.
func (b Beneficiary) IdentityKey() string {
	return b.Group + "\x1f" + b.Leader + "\x1f" + string(b.LeaderSex) + "\x1f" +
		strconv.Itoa(b.Male) + "\x1f" + strconv.Itoa(b.Female)
}

// Program is one of the small fixed set of funding tracks proposals are filed
// under. Programs are seeded reference data; the core never deletes them.
type Program struct {
	Base
	Name string `json:"program_name"`
}

// Seeded program names. LGIA and CEST proposals additionally carry a project
// sub-type tag.
const (
	ProgramCEST = "CEST"
	ProgramLGIA = "LGIA"
	ProgramSSCP = "SSCP"
)

// SeedPrograms returns the static program reference set in seed order.
func SeedPrograms() []Program {
	return []Program{
		{Name: ProgramCEST},
		{Name: ProgramLGIA},
		{Name: ProgramSSCP},
	}
}

// User mirrors the externally owned user directory: identity, display name,
// role, and office affiliation. The core reads it for office-scoped
// visibility and owner-name search; it never authenticates anyone.
type User struct {
	Base
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
	OfficeID  string `json:"office_id"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
