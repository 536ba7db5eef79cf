package core

import (
	"context"
	"fmt"

	"grantcore/pkg/domain"
)

// LifecycleTransitionRule blocks illegal proposal mutations at the storage
// boundary, independently of the service-level checks: unknown status
// values, content edits outside Pending, and deletes outside Pending.
// Status-only transitions are left to the review workflow and pass from any
// state.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

func (lifecycleTransitionRule) Name() string { return "lifecycle_transition" }

func (lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != EntityProposal {
			continue
		}

		after, hasAfter := change.After.(Proposal)
		if hasAfter && !domain.ValidStatus(after.Status) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "lifecycle_transition",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("proposal %s is set to invalid status %q", after.ID, after.Status),
				Entity:   EntityProposal,
				EntityID: after.ID,
			})
			continue
		}

		before, hasBefore := change.Before.(Proposal)
		if !hasBefore || before.Status == StatusPending {
			continue
		}

		switch change.Action {
		case ActionDelete:
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "lifecycle_transition",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("cannot delete proposal %s in state %s", before.ID, before.Status),
				Entity:   EntityProposal,
				EntityID: before.ID,
			})
		case ActionUpdate:
			if hasAfter && contentChanged(before, after) {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "lifecycle_transition",
					Severity: SeverityBlock,
					Message:  fmt.Sprintf("cannot edit proposal %s in state %s", before.ID, before.Status),
					Entity:   EntityProposal,
					EntityID: before.ID,
				})
			}
		}
	}
	return res, nil
}

// contentChanged reports whether any field other than status differs between
// the two revisions.
func contentChanged(before, after Proposal) bool {
	if before.Title != after.Title || before.Details != after.Details {
		return true
	}
	if before.UserID != after.UserID || before.ProgramID != after.ProgramID {
		return true
	}
	if before.ProponentID != after.ProponentID || before.BeneficiaryID != after.BeneficiaryID {
		return true
	}
	if !equalOptional(before.CollaboratorID, after.CollaboratorID) {
		return true
	}
	if !equalOptional(before.ProjectType, after.ProjectType) {
		return true
	}
	return false
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
