// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments. Transactions run against a
// copy-on-write clone of the state under a single writer lock, so the
// find-or-create identity lookups can never race into duplicate rows.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"grantcore/pkg/domain"

	"github.com/google/uuid"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Proposal aliases domain.Proposal for in-memory persistence operations.
	Proposal = domain.Proposal
	// Proponent aliases domain.Proponent.
	Proponent = domain.Proponent
	// Collaborator aliases domain.Collaborator.
	Collaborator = domain.Collaborator
	// Beneficiary aliases domain.Beneficiary.
	Beneficiary = domain.Beneficiary
	// Program aliases domain.Program.
	Program = domain.Program
	// User aliases domain.User.
	User = domain.User
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type state struct {
	proposals     map[string]Proposal
	proponents    map[string]Proponent
	collaborators map[string]Collaborator
	beneficiaries map[string]Beneficiary
	programs      map[string]Program
	users         map[string]User

	// Identity indexes map each identity-key tuple onto the canonical row id.
	// They are rebuilt on import and kept in lockstep with the entity maps, so
	// a find-or-create inside a transaction is a map hit, not a scan.
	proponentIndex    map[string]string
	collaboratorIndex map[string]string
	beneficiaryIndex  map[string]string
	programIndex      map[string]string
}

func newState() state {
	return state{
		proposals:         make(map[string]Proposal),
		proponents:        make(map[string]Proponent),
		collaborators:     make(map[string]Collaborator),
		beneficiaries:     make(map[string]Beneficiary),
		programs:          make(map[string]Program),
		users:             make(map[string]User),
		proponentIndex:    make(map[string]string),
		collaboratorIndex: make(map[string]string),
		beneficiaryIndex:  make(map[string]string),
		programIndex:      make(map[string]string),
	}
}

func (s state) clone() state {
	cloned := newState()
	for k, v := range s.proposals {
		cloned.proposals[k] = cloneProposal(v)
	}
	for k, v := range s.proponents {
		cloned.proponents[k] = v
	}
	for k, v := range s.collaborators {
		cloned.collaborators[k] = v
	}
	for k, v := range s.beneficiaries {
		cloned.beneficiaries[k] = v
	}
	for k, v := range s.programs {
		cloned.programs[k] = v
	}
	for k, v := range s.users {
		cloned.users[k] = v
	}
	for k, v := range s.proponentIndex {
		cloned.proponentIndex[k] = v
	}
	for k, v := range s.collaboratorIndex {
		cloned.collaboratorIndex[k] = v
	}
	for k, v := range s.beneficiaryIndex {
		cloned.beneficiaryIndex[k] = v
	}
	for k, v := range s.programIndex {
		cloned.programIndex[k] = v
	}
	return cloned
}

func cloneProposal(p Proposal) Proposal {
	cp := p
	if p.CollaboratorID != nil {
		id := *p.CollaboratorID
		cp.CollaboratorID = &id
	}
	if p.ProjectType != nil {
		pt := *p.ProjectType
		cp.ProjectType = &pt
	}
	return cp
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  state
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the transaction timestamp source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now != nil {
		s.nowFn = now
	}
}

func newID() string { return uuid.NewString() }

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   state
	changes []Change
	now     time.Time
}

var _ Transaction = (*transaction)(nil)

// view exposes a read-only snapshot of transactional state to rules and queries.
type view struct {
	state *state
}

var _ TransactionView = view{}

// RunInTransaction executes fn within a transactional copy of the store state.
// The write lock is held for the whole commit, so rule evaluation and the
// state swap are atomic with respect to every other transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, view{state: &tx.state}, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(ctx context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(view{state: &snapshot})
}

// Snapshot returns a read-only view over the transaction's pending state.
func (tx *transaction) Snapshot() TransactionView {
	return view{state: &tx.state}
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// CreateProposal stores a new proposal within the transaction.
func (tx *transaction) CreateProposal(p Proposal) (Proposal, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	if _, exists := tx.state.proposals[p.ID]; exists {
		return Proposal{}, fmt.Errorf("proposal %q already exists", p.ID)
	}
	if p.Status == "" {
		p.Status = domain.StatusPending
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.proposals[p.ID] = cloneProposal(p)
	tx.recordChange(Change{Entity: domain.EntityProposal, Action: domain.ActionCreate, After: cloneProposal(p)})
	return cloneProposal(p), nil
}

// UpdateProposal mutates a proposal using the provided mutator function.
func (tx *transaction) UpdateProposal(id string, mutator func(*Proposal) error) (Proposal, error) {
	current, ok := tx.state.proposals[id]
	if !ok {
		return Proposal{}, domain.NotFoundError{Entity: domain.EntityProposal, ID: id}
	}
	before := cloneProposal(current)
	if err := mutator(&current); err != nil {
		return Proposal{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.proposals[id] = cloneProposal(current)
	tx.recordChange(Change{Entity: domain.EntityProposal, Action: domain.ActionUpdate, Before: before, After: cloneProposal(current)})
	return cloneProposal(current), nil
}

// DeleteProposal removes a proposal from the transaction state. Related
// proponent, collaborator, and beneficiary rows are left untouched; their
// lifetime is independent of any single proposal referencing them.
func (tx *transaction) DeleteProposal(id string) error {
	current, ok := tx.state.proposals[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityProposal, ID: id}
	}
	delete(tx.state.proposals, id)
	tx.recordChange(Change{Entity: domain.EntityProposal, Action: domain.ActionDelete, Before: cloneProposal(current)})
	return nil
}

// FindProposal retrieves a proposal from the transaction state.
func (tx *transaction) FindProposal(id string) (Proposal, bool) {
	p, ok := tx.state.proposals[id]
	if !ok {
		return Proposal{}, false
	}
	return cloneProposal(p), true
}

// FindOrCreateProponent returns the canonical proponent row for the identity
// key (name, sex), inserting it when absent. The returned bool reports
// whether a new row was created.
func (tx *transaction) FindOrCreateProponent(p Proponent) (Proponent, bool, error) {
	key := p.IdentityKey()
	if id, ok := tx.state.proponentIndex[key]; ok {
		return tx.state.proponents[id], false, nil
	}
	if p.ID == "" {
		p.ID = newID()
	}
	if _, exists := tx.state.proponents[p.ID]; exists {
		return Proponent{}, false, domain.ConflictError{Entity: domain.EntityProponent, Key: p.ID}
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.proponents[p.ID] = p
	tx.state.proponentIndex[key] = p.ID
	tx.recordChange(Change{Entity: domain.EntityProponent, Action: domain.ActionCreate, After: p})
	return p, true, nil
}

// FindProponent retrieves a proponent by id.
func (tx *transaction) FindProponent(id string) (Proponent, bool) {
	p, ok := tx.state.proponents[id]
	return p, ok
}

// FindOrCreateCollaborator returns the canonical collaborator row for the
// given name, inserting it when absent.
func (tx *transaction) FindOrCreateCollaborator(c Collaborator) (Collaborator, bool, error) {
	key := c.IdentityKey()
	if id, ok := tx.state.collaboratorIndex[key]; ok {
		return tx.state.collaborators[id], false, nil
	}
	if c.ID == "" {
		c.ID = newID()
	}
	if _, exists := tx.state.collaborators[c.ID]; exists {
		return Collaborator{}, false, domain.ConflictError{Entity: domain.EntityCollaborator, Key: c.ID}
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.collaborators[c.ID] = c
	tx.state.collaboratorIndex[key] = c.ID
	tx.recordChange(Change{Entity: domain.EntityCollaborator, Action: domain.ActionCreate, After: c})
	return c, true, nil
}

// FindCollaborator retrieves a collaborator by id.
func (tx *transaction) FindCollaborator(id string) (Collaborator, bool) {
	c, ok := tx.state.collaborators[id]
	return c, ok
}

// FindOrCreateBeneficiary returns the canonical beneficiary row for the full
// identity tuple, inserting it when absent. The stored total is always
// derived from the male and female counts.
func (tx *transaction) FindOrCreateBeneficiary(b Beneficiary) (Beneficiary, bool, error) {
	b.Total = b.Male + b.Female
	key := b.IdentityKey()
	if id, ok := tx.state.beneficiaryIndex[key]; ok {
		return tx.state.beneficiaries[id], false, nil
	}
	if b.ID == "" {
		b.ID = newID()
	}
	if _, exists := tx.state.beneficiaries[b.ID]; exists {
		return Beneficiary{}, false, domain.ConflictError{Entity: domain.EntityBeneficiary, Key: b.ID}
	}
	b.CreatedAt = tx.now
	b.UpdatedAt = tx.now
	tx.state.beneficiaries[b.ID] = b
	tx.state.beneficiaryIndex[key] = b.ID
	tx.recordChange(Change{Entity: domain.EntityBeneficiary, Action: domain.ActionCreate, After: b})
	return b, true, nil
}

// FindBeneficiary retrieves a beneficiary by id.
func (tx *transaction) FindBeneficiary(id string) (Beneficiary, bool) {
	b, ok := tx.state.beneficiaries[id]
	return b, ok
}

// FindOrCreateProgram returns the program with the given name, inserting it
// when absent. Used only to seed the static reference set.
func (tx *transaction) FindOrCreateProgram(p Program) (Program, bool, error) {
	if id, ok := tx.state.programIndex[p.Name]; ok {
		return tx.state.programs[id], false, nil
	}
	if p.ID == "" {
		p.ID = newID()
	}
	if _, exists := tx.state.programs[p.ID]; exists {
		return Program{}, false, domain.ConflictError{Entity: domain.EntityProgram, Key: p.ID}
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.programs[p.ID] = p
	tx.state.programIndex[p.Name] = p.ID
	tx.recordChange(Change{Entity: domain.EntityProgram, Action: domain.ActionCreate, After: p})
	return p, true, nil
}

// FindProgram retrieves a program by id.
func (tx *transaction) FindProgram(id string) (Program, bool) {
	p, ok := tx.state.programs[id]
	return p, ok
}

// UpsertUser inserts or replaces a directory user record.
func (tx *transaction) UpsertUser(u User) (User, error) {
	if u.ID == "" {
		u.ID = newID()
	}
	action := domain.ActionUpdate
	existing, ok := tx.state.users[u.ID]
	if ok {
		u.CreatedAt = existing.CreatedAt
	} else {
		action = domain.ActionCreate
		u.CreatedAt = tx.now
	}
	u.UpdatedAt = tx.now
	tx.state.users[u.ID] = u
	change := Change{Entity: domain.EntityUser, Action: action, After: u}
	if ok {
		change.Before = existing
	}
	tx.recordChange(change)
	return u, nil
}
