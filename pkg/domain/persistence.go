package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. FindOrCreate operations are the
// storage-level insert-or-fetch primitives the entity resolver depends on:
// given identical identity keys they must return the same row, created at
// most once, no matter how many concurrent transactions race on it.
type Transaction interface {
	Snapshot() TransactionView
	CreateProposal(Proposal) (Proposal, error)
	UpdateProposal(id string, mutator func(*Proposal) error) (Proposal, error)
	DeleteProposal(id string) error
	FindProposal(id string) (Proposal, bool)
	FindOrCreateProponent(Proponent) (Proponent, bool, error)
	FindProponent(id string) (Proponent, bool)
	FindOrCreateCollaborator(Collaborator) (Collaborator, bool, error)
	FindCollaborator(id string) (Collaborator, bool)
	FindOrCreateBeneficiary(Beneficiary) (Beneficiary, bool, error)
	FindBeneficiary(id string) (Beneficiary, bool)
	FindOrCreateProgram(Program) (Program, bool, error)
	FindProgram(id string) (Program, bool)
	UpsertUser(User) (User, error)
}

// TransactionView provides read-only access to snapshot data for rules and
// list queries.
type TransactionView = RuleView

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetProposal(id string) (Proposal, bool)
	ListProposals() []Proposal
	GetProponent(id string) (Proponent, bool)
	ListProponents() []Proponent
	GetCollaborator(id string) (Collaborator, bool)
	ListCollaborators() []Collaborator
	GetBeneficiary(id string) (Beneficiary, bool)
	ListBeneficiaries() []Beneficiary
	GetProgram(id string) (Program, bool)
	ListPrograms() []Program
	GetUser(id string) (User, bool)
	ListUsers() []User
}
