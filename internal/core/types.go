package core

import "grantcore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Status             = domain.Status
	Sex                = domain.Sex
	Role               = domain.Role
	Severity           = domain.Severity
	Base               = domain.Base
	Proposal           = domain.Proposal
	Proponent          = domain.Proponent
	Collaborator       = domain.Collaborator
	Beneficiary        = domain.Beneficiary
	Program            = domain.Program
	User               = domain.User
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	RulesEngine        = domain.RulesEngine
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityProposal     = domain.EntityProposal
	EntityProponent    = domain.EntityProponent
	EntityCollaborator = domain.EntityCollaborator
	EntityBeneficiary  = domain.EntityBeneficiary
	EntityProgram      = domain.EntityProgram
	EntityUser         = domain.EntityUser
)

const (
	StatusPending     = domain.StatusPending
	StatusApproved    = domain.StatusApproved
	StatusRejected    = domain.StatusRejected
	StatusUnderReview = domain.StatusUnderReview
)

const (
	RoleUser    = domain.RoleUser
	RolePSTO    = domain.RolePSTO
	RoleHead    = domain.RoleHead
	RoleRPMO    = domain.RoleRPMO
	RoleStaff   = domain.RoleStaff
	RoleUnknown = domain.RoleUnknown
)

const (
	SexMale   = domain.SexMale
	SexFemale = domain.SexFemale
	SexOther  = domain.SexOther
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
