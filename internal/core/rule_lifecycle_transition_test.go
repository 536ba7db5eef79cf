package core

import (
	"context"
	"testing"

	"grantcore/pkg/domain"
)

func evaluateLifecycle(t *testing.T, changes []Change) Result {
	t.Helper()
	res, err := LifecycleTransitionRule().Evaluate(context.Background(), nil, changes)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	return res
}

func TestLifecycleAllowsPendingEdits(t *testing.T) {
	before := Proposal{Title: "Old", Status: StatusPending}
	after := Proposal{Title: "New", Status: StatusPending}
	res := evaluateLifecycle(t, []Change{{Entity: EntityProposal, Action: ActionUpdate, Before: before, After: after}})
	if res.HasBlocking() {
		t.Fatalf("pending edits must pass, got %+v", res.Violations)
	}
}

func TestLifecycleBlocksContentEditOutsidePending(t *testing.T) {
	before := Proposal{Title: "Old", Status: StatusApproved}
	after := Proposal{Title: "New", Status: StatusApproved}
	res := evaluateLifecycle(t, []Change{{Entity: EntityProposal, Action: ActionUpdate, Before: before, After: after}})
	if !res.HasBlocking() {
		t.Fatalf("expected approved content edit to block")
	}
}

func TestLifecycleAllowsStatusOnlyTransition(t *testing.T) {
	before := Proposal{Title: "Same", Status: StatusApproved}
	after := Proposal{Title: "Same", Status: StatusRejected}
	res := evaluateLifecycle(t, []Change{{Entity: EntityProposal, Action: ActionUpdate, Before: before, After: after}})
	if res.HasBlocking() {
		t.Fatalf("status-only transitions pass from any state, got %+v", res.Violations)
	}
}

func TestLifecycleBlocksDeleteOutsidePending(t *testing.T) {
	before := Proposal{Title: "Frozen", Status: StatusUnderReview}
	res := evaluateLifecycle(t, []Change{{Entity: EntityProposal, Action: ActionDelete, Before: before}})
	if !res.HasBlocking() {
		t.Fatalf("expected delete outside Pending to block")
	}

	pending := Proposal{Title: "Free", Status: StatusPending}
	res = evaluateLifecycle(t, []Change{{Entity: EntityProposal, Action: ActionDelete, Before: pending}})
	if res.HasBlocking() {
		t.Fatalf("pending deletes must pass")
	}
}

func TestLifecycleBlocksInvalidStatusValue(t *testing.T) {
	after := Proposal{Title: "Bad", Status: "Archived"}
	res := evaluateLifecycle(t, []Change{{Entity: EntityProposal, Action: ActionCreate, After: after}})
	if !res.HasBlocking() {
		t.Fatalf("expected invalid status value to block")
	}
}

func TestLifecycleIgnoresOtherEntities(t *testing.T) {
	res := evaluateLifecycle(t, []Change{{Entity: EntityProponent, Action: ActionCreate, After: Proponent{Name: "x"}}})
	if len(res.Violations) != 0 {
		t.Fatalf("non-proposal changes are out of scope")
	}
}

func TestBeneficiaryTotalRule(t *testing.T) {
	rule := BeneficiaryTotalRule()

	ok := Beneficiary{Group: "G", Male: 3, Female: 4, Total: 7}
	res, err := rule.Evaluate(context.Background(), nil, []Change{{Entity: EntityBeneficiary, Action: ActionCreate, After: ok}})
	if err != nil || res.HasBlocking() {
		t.Fatalf("consistent totals must pass: err=%v res=%+v", err, res)
	}

	bad := Beneficiary{Group: "G", Male: 3, Female: 4, Total: 9}
	res, _ = rule.Evaluate(context.Background(), nil, []Change{{Entity: EntityBeneficiary, Action: ActionCreate, After: bad}})
	if !res.HasBlocking() {
		t.Fatalf("mismatched total must block")
	}

	negative := Beneficiary{Group: "G", Male: -1, Female: 1, Total: 0}
	res, _ = rule.Evaluate(context.Background(), nil, []Change{{Entity: EntityBeneficiary, Action: ActionCreate, After: negative}})
	if !res.HasBlocking() {
		t.Fatalf("negative counts must block")
	}
}

func TestDefaultRulesEngineRegistersPolicies(t *testing.T) {
	engine := NewDefaultRulesEngine()
	after := Proposal{Title: "Bad", Status: "Archived"}
	res, err := engine.Evaluate(context.Background(), nil, []domain.Change{{Entity: EntityProposal, Action: ActionCreate, After: after}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("default engine must carry the lifecycle rule")
	}
}
