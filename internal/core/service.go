package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"grantcore/pkg/domain"
)

// typeaheadLimit caps suggestion results for the related-entity searches.
const typeaheadLimit = 15

// pageSizes enumerates the accepted page sizes for proposal listings.
var pageSizes = map[int]bool{10: true, 20: true, 50: true, 100: true}

const defaultPageSize = 10

// ListQuery describes a proposal listing request: an optional free-text
// search term plus pagination.
type ListQuery struct {
	Search  string
	Page    int
	PerPage int
}

// ProposalDetail bundles a proposal with its resolved relations. Relation
// pointers are nil when the referenced row no longer exists.
type ProposalDetail struct {
	Proposal     Proposal      `json:"proposal"`
	Program      *Program      `json:"program,omitempty"`
	Owner        *User         `json:"owner,omitempty"`
	Proponent    *Proponent    `json:"proponent,omitempty"`
	Collaborator *Collaborator `json:"collaborator,omitempty"`
	Beneficiary  *Beneficiary  `json:"beneficiary,omitempty"`
}

// ProposalPage is one page of a proposal listing.
type ProposalPage struct {
	Items    []ProposalDetail `json:"items"`
	Page     int              `json:"page"`
	PerPage  int              `json:"per_page"`
	Total    int              `json:"total"`
	LastPage int              `json:"last_page"`
}

// Service exposes the proposal submission and review operations on top of a
// persistent store. Every call takes the explicit caller identity; the
// service holds no session state.
type Service struct {
	store    PersistentStore
	resolver EntityResolver
	access   AccessPolicy
	logger   Logger
	audit    AuditRecorder
	metrics  MetricsRecorder
	tracer   Tracer
	clock    Clock
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		store:   store,
		logger:  options.logger,
		audit:   options.audit,
		metrics: options.metrics,
		tracer:  options.tracer,
		clock:   options.clock,
	}
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// auditOps maps audited operation names to the entity and action recorded in
// their audit entries. Operations absent from the table are not audited.
var auditOps = map[string]struct {
	entity EntityType
	action Action
}{
	"create_proposal":     {EntityProposal, ActionCreate},
	"update_proposal":     {EntityProposal, ActionUpdate},
	"delete_proposal":     {EntityProposal, ActionDelete},
	"set_proposal_status": {EntityProposal, ActionUpdate},
	"register_user":       {EntityUser, ActionUpdate},
	"seed_programs":       {EntityProgram, ActionCreate},
}

func (s *Service) recordAuditSuccess(ctx context.Context, operation, entityID, actor string, duration time.Duration) {
	op, ok := auditOps[operation]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: operation,
		Entity:    op.entity,
		EntityID:  entityID,
		Action:    op.action,
		Actor:     actor,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	})
}

func (s *Service) recordAuditError(ctx context.Context, operation, entityID, actor string, opErr error, duration time.Duration) {
	op, ok := auditOps[operation]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: operation,
		Entity:    op.entity,
		EntityID:  entityID,
		Action:    op.action,
		Actor:     actor,
		Status:    AuditStatusError,
		Reason:    opErr.Error(),
		Duration:  duration,
		Timestamp: s.clock.Now(),
	})
}

// finish closes out an instrumented operation: it ends the span, records
// metrics, and emits the audit entry for audited operations.
func (s *Service) finish(ctx context.Context, span TraceSpan, operation, entityID, actor string, started time.Time, err error) {
	duration := time.Since(started)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	if err != nil {
		s.recordAuditError(ctx, operation, entityID, actor, err, duration)
		s.logger.Error(operation+" failed", "entity_id", entityID, "actor", actor, "error", err)
		return
	}
	s.recordAuditSuccess(ctx, operation, entityID, actor, duration)
	s.logger.Debug(operation+" succeeded", "entity_id", entityID, "actor", actor)
}

// CreateProposal validates the input, resolves the related entities inside a
// single transaction, and persists a new Pending proposal owned by the
// caller under the given program.
func (s *Service) CreateProposal(ctx context.Context, caller Caller, programID string, input ProposalInput) (Proposal, Result, error) {
	const op = "create_proposal"
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, op)

	created, res, err := s.createProposal(ctx, caller, programID, input)
	s.finish(ctx, span, op, created.ID, caller.ID, started, err)
	return created, res, err
}

func (s *Service) createProposal(ctx context.Context, caller Caller, programID string, input ProposalInput) (Proposal, Result, error) {
	var created Proposal
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		program, ok := tx.FindProgram(programID)
		if !ok {
			return domain.NotFoundError{Entity: EntityProgram, ID: programID}
		}
		if err := validateProposalInput(input); err != nil {
			return err
		}
		proposal, err := s.buildProposal(tx, input)
		if err != nil {
			return err
		}
		proposal.UserID = caller.ID
		proposal.ProgramID = program.ID
		created, err = tx.CreateProposal(proposal)
		return err
	})
	return created, res, err
}

// UpdateProposal replaces the content of a Pending proposal owned by the
// caller, re-resolving the related entities against the new identity fields.
// An omitted project type keeps its stored value.
func (s *Service) UpdateProposal(ctx context.Context, caller Caller, id string, input ProposalInput) (Proposal, Result, error) {
	const op = "update_proposal"
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, op)

	updated, res, err := s.updateProposal(ctx, caller, id, input)
	s.finish(ctx, span, op, id, caller.ID, started, err)
	return updated, res, err
}

func (s *Service) updateProposal(ctx context.Context, caller Caller, id string, input ProposalInput) (Proposal, Result, error) {
	var updated Proposal
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		existing, ok := tx.FindProposal(id)
		if !ok {
			return domain.NotFoundError{Entity: EntityProposal, ID: id}
		}
		if !s.access.CanMutate(caller, existing) {
			if existing.UserID != caller.ID {
				return domain.ForbiddenError{Reason: "only the proposal owner may edit it"}
			}
			return domain.InvalidStateError{Entity: EntityProposal, ID: id, Status: existing.Status}
		}
		if err := validateProposalInput(input); err != nil {
			return err
		}
		replacement, err := s.buildProposal(tx, input)
		if err != nil {
			return err
		}
		updated, err = tx.UpdateProposal(id, func(p *Proposal) error {
			p.Title = replacement.Title
			p.Details = replacement.Details
			if replacement.ProjectType != nil {
				p.ProjectType = replacement.ProjectType
			}
			p.ProponentID = replacement.ProponentID
			p.CollaboratorID = replacement.CollaboratorID
			p.BeneficiaryID = replacement.BeneficiaryID
			return nil
		})
		return err
	})
	return updated, res, err
}

// buildProposal resolves the related entities for the input and returns a
// proposal skeleton carrying the resolved references and content fields.
func (s *Service) buildProposal(tx Transaction, input ProposalInput) (Proposal, error) {
	proponent, err := s.resolver.ResolveProponent(tx, input.Proponent)
	if err != nil {
		return Proposal{}, err
	}
	collaborator, err := s.resolver.ResolveCollaborator(tx, input.Collaborator)
	if err != nil {
		return Proposal{}, err
	}
	beneficiary, err := s.resolver.ResolveBeneficiary(tx, input.Beneficiary)
	if err != nil {
		return Proposal{}, err
	}
	proposal := Proposal{
		Title:         input.Title,
		Details:       input.Details,
		ProjectType:   input.ProjectType,
		ProponentID:   proponent.ID,
		BeneficiaryID: beneficiary.ID,
	}
	if collaborator != nil {
		collabID := collaborator.ID
		proposal.CollaboratorID = &collabID
	}
	return proposal, nil
}

// DeleteProposal removes a Pending proposal owned by the caller.
func (s *Service) DeleteProposal(ctx context.Context, caller Caller, id string) (Result, error) {
	const op = "delete_proposal"
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, op)

	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		existing, ok := tx.FindProposal(id)
		if !ok {
			return domain.NotFoundError{Entity: EntityProposal, ID: id}
		}
		if !s.access.CanMutate(caller, existing) {
			if existing.UserID != caller.ID {
				return domain.ForbiddenError{Reason: "only the proposal owner may delete it"}
			}
			return domain.InvalidStateError{Entity: EntityProposal, ID: id, Status: existing.Status}
		}
		return tx.DeleteProposal(id)
	})
	s.finish(ctx, span, op, id, caller.ID, started, err)
	return res, err
}

// SetProposalStatus moves a proposal to a new review status. Only the
// full-visibility reviewer roles may transition proposals; ownership does
// not grant the right.
func (s *Service) SetProposalStatus(ctx context.Context, caller Caller, id string, status Status) (Proposal, Result, error) {
	const op = "set_proposal_status"
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, op)

	updated, res, err := s.setProposalStatus(ctx, caller, id, status)
	s.finish(ctx, span, op, id, caller.ID, started, err)
	return updated, res, err
}

func (s *Service) setProposalStatus(ctx context.Context, caller Caller, id string, status Status) (Proposal, Result, error) {
	if !domain.ValidStatus(status) {
		return Proposal{}, Result{}, domain.ValidationError{Violations: []domain.FieldViolation{{
			Field:   "status",
			Rule:    "in",
			Message: fmt.Sprintf("status must be one of %v", domain.KnownStatuses()),
		}}}
	}
	switch caller.Role {
	case RoleHead, RoleRPMO, RoleStaff:
	default:
		return Proposal{}, Result{}, domain.ForbiddenError{Reason: "role may not change proposal status"}
	}
	var updated Proposal
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, ok := tx.FindProposal(id); !ok {
			return domain.NotFoundError{Entity: EntityProposal, ID: id}
		}
		var err error
		updated, err = tx.UpdateProposal(id, func(p *Proposal) error {
			p.Status = status
			return nil
		})
		return err
	})
	return updated, res, err
}

// GetProposal returns one proposal with its relations resolved, subject to
// the caller's visibility.
func (s *Service) GetProposal(ctx context.Context, caller Caller, id string) (ProposalDetail, error) {
	const op = "get_proposal"
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, op)

	var detail ProposalDetail
	err := s.store.View(ctx, func(view TransactionView) error {
		proposal, ok := view.FindProposal(id)
		if !ok {
			return domain.NotFoundError{Entity: EntityProposal, ID: id}
		}
		d := assembleDetail(view, proposal)
		if !s.access.Visible(caller, proposal, d.Owner) {
			return domain.ForbiddenError{Reason: "proposal is outside the caller's visibility"}
		}
		detail = d
		return nil
	})
	s.finish(ctx, span, op, id, caller.ID, started, err)
	return detail, err
}

// ListProposals returns the page of proposals visible to the caller, newest
// first, filtered by the free-text search term when present.
func (s *Service) ListProposals(ctx context.Context, caller Caller, query ListQuery) (ProposalPage, error) {
	const op = "list_proposals"
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, op)

	page := normalizePage(query.Page)
	perPage := normalizePerPage(query.PerPage)

	var result ProposalPage
	err := s.store.View(ctx, func(view TransactionView) error {
		proposals := view.ListProposals()
		sort.SliceStable(proposals, func(i, j int) bool {
			if !proposals[i].CreatedAt.Equal(proposals[j].CreatedAt) {
				return proposals[i].CreatedAt.After(proposals[j].CreatedAt)
			}
			return proposals[i].ID > proposals[j].ID
		})

		var matched []ProposalDetail
		for _, proposal := range proposals {
			detail := assembleDetail(view, proposal)
			if !s.access.Visible(caller, proposal, detail.Owner) {
				continue
			}
			if !s.access.MatchesSearch(query.Search, proposal, detail.Owner, detail.Proponent, detail.Beneficiary) {
				continue
			}
			matched = append(matched, detail)
		}

		total := len(matched)
		lastPage := (total + perPage - 1) / perPage
		if lastPage == 0 {
			lastPage = 1
		}
		start := (page - 1) * perPage
		if start > total {
			start = total
		}
		end := start + perPage
		if end > total {
			end = total
		}
		result = ProposalPage{
			Items:    matched[start:end],
			Page:     page,
			PerPage:  perPage,
			Total:    total,
			LastPage: lastPage,
		}
		return nil
	})
	s.finish(ctx, span, op, "", caller.ID, started, err)
	return result, err
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizePerPage(perPage int) int {
	if pageSizes[perPage] {
		return perPage
	}
	return defaultPageSize
}

func assembleDetail(view TransactionView, proposal Proposal) ProposalDetail {
	detail := ProposalDetail{Proposal: proposal}
	if program, ok := view.FindProgram(proposal.ProgramID); ok {
		detail.Program = &program
	}
	if owner, ok := view.FindUser(proposal.UserID); ok {
		detail.Owner = &owner
	}
	if proponent, ok := view.FindProponent(proposal.ProponentID); ok {
		detail.Proponent = &proponent
	}
	if proposal.CollaboratorID != nil {
		if collaborator, ok := view.FindCollaborator(*proposal.CollaboratorID); ok {
			detail.Collaborator = &collaborator
		}
	}
	if beneficiary, ok := view.FindBeneficiary(proposal.BeneficiaryID); ok {
		detail.Beneficiary = &beneficiary
	}
	return detail
}

// SearchProponents returns proponents whose name contains the term,
// case-insensitively, capped at the typeahead limit.
func (s *Service) SearchProponents(ctx context.Context, term string) ([]Proponent, error) {
	var out []Proponent
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, p := range view.ListProponents() {
			if !containsFold(p.Name, term) {
				continue
			}
			out = append(out, p)
			if len(out) == typeaheadLimit {
				break
			}
		}
		return nil
	})
	return out, err
}

// SearchCollaborators returns collaborators whose name contains the term,
// capped at the typeahead limit.
func (s *Service) SearchCollaborators(ctx context.Context, term string) ([]Collaborator, error) {
	var out []Collaborator
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, c := range view.ListCollaborators() {
			if !containsFold(c.Name, term) {
				continue
			}
			out = append(out, c)
			if len(out) == typeaheadLimit {
				break
			}
		}
		return nil
	})
	return out, err
}

// SearchBeneficiaries returns beneficiary groups whose group or leader name
// contains the term, capped at the typeahead limit.
func (s *Service) SearchBeneficiaries(ctx context.Context, term string) ([]Beneficiary, error) {
	var out []Beneficiary
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, b := range view.ListBeneficiaries() {
			if !containsFold(b.Group, term) && !containsFold(b.Leader, term) {
				continue
			}
			out = append(out, b)
			if len(out) == typeaheadLimit {
				break
			}
		}
		return nil
	})
	return out, err
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// ListPrograms returns all programs in creation order.
func (s *Service) ListPrograms(ctx context.Context) ([]Program, error) {
	var out []Program
	err := s.store.View(ctx, func(view TransactionView) error {
		out = view.ListPrograms()
		return nil
	})
	return out, err
}

// SeedPrograms installs the static program reference set, reusing rows that
// already exist. Safe to call on every startup.
func (s *Service) SeedPrograms(ctx context.Context) (Result, error) {
	const op = "seed_programs"
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, op)

	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		for _, program := range domain.SeedPrograms() {
			if _, _, err := tx.FindOrCreateProgram(program); err != nil {
				return err
			}
		}
		return nil
	})
	s.finish(ctx, span, op, "", "", started, err)
	return res, err
}

// RegisterUser creates or refreshes a directory user record. Unrecognized
// role strings are stored verbatim but parse to the unknown role, which
// sees nothing.
func (s *Service) RegisterUser(ctx context.Context, user User) (User, Result, error) {
	const op = "register_user"
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, op)

	var stored User
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		stored, err = tx.UpsertUser(user)
		return err
	})
	s.finish(ctx, span, op, stored.ID, user.ID, started, err)
	return stored, res, err
}
