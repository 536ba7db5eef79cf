package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"grantcore/pkg/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(domain.NewRulesEngine())
}

func TestFindOrCreateProponentDedup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var first, second Proponent
	var created bool
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		first, created, err = tx.FindOrCreateProponent(Proponent{Name: "Juan Cruz", Sex: domain.SexMale})
		return err
	}); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if !created || first.ID == "" {
		t.Fatalf("expected first resolution to create a row, got created=%v id=%q", created, first.ID)
	}

	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		second, created, err = tx.FindOrCreateProponent(Proponent{Name: "Juan Cruz", Sex: domain.SexMale})
		return err
	}); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if created {
		t.Fatalf("expected identical identity to reuse existing row")
	}
	if second.ID != first.ID {
		t.Fatalf("expected same row, got %s vs %s", second.ID, first.ID)
	}

	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		second, created, err = tx.FindOrCreateProponent(Proponent{Name: "Juan Cruz", Sex: domain.SexFemale})
		return err
	}); err != nil {
		t.Fatalf("third resolve: %v", err)
	}
	if !created || second.ID == first.ID {
		t.Fatalf("expected differing sex to create a distinct row")
	}
	if got := len(store.ListProponents()); got != 2 {
		t.Fatalf("expected 2 proponents, got %d", got)
	}
}

func TestFindOrCreateProponentConcurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	ids := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var resolved Proponent
			if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
				var err error
				resolved, _, err = tx.FindOrCreateProponent(Proponent{Name: "Racer", Sex: domain.SexFemale})
				return err
			}); err != nil {
				t.Errorf("resolve: %v", err)
				return
			}
			ids <- resolved.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Fatalf("expected all workers to converge on one row, got %d distinct ids", len(seen))
	}
	if got := len(store.ListProponents()); got != 1 {
		t.Fatalf("expected exactly one stored proponent, got %d", got)
	}
}

func TestFindOrCreateBeneficiaryDerivesTotal(t *testing.T) {
	store := newTestStore(t)

	var resolved Beneficiary
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		resolved, _, err = tx.FindOrCreateBeneficiary(Beneficiary{
			Group: "Farmers", Leader: "Ana", LeaderSex: domain.SexFemale,
			Male: 7, Female: 5, Total: 999,
		})
		return err
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Total != 12 {
		t.Fatalf("expected derived total 12, got %d", resolved.Total)
	}
}

func TestCreateProposalDefaultsPending(t *testing.T) {
	store := newTestStore(t)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return fixed })

	var created Proposal
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		created, err = tx.CreateProposal(Proposal{Title: "Irrigation", Details: "details"})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != domain.StatusPending {
		t.Fatalf("expected new proposal to be Pending, got %s", created.Status)
	}
	if created.ID == "" || !created.CreatedAt.Equal(fixed) || !created.UpdatedAt.Equal(fixed) {
		t.Fatalf("unexpected metadata: %+v", created.Base)
	}
}

func TestUpdateAndDeleteProposal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var created Proposal
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.CreateProposal(Proposal{Title: "Before", Details: "d"})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateProposal(created.ID, func(p *Proposal) error {
			p.Title = "After"
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, ok := store.GetProposal(created.ID)
	if !ok || stored.Title != "After" {
		t.Fatalf("expected updated title, got %+v ok=%v", stored, ok)
	}

	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.DeleteProposal(created.ID)
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := store.GetProposal(created.ID); ok {
		t.Fatalf("expected proposal to be gone")
	}
}

func TestFailedTransactionLeavesStateUntouched(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	wantErr := domain.NotFoundError{Entity: domain.EntityProposal, ID: "nope"}
	_, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, _, err := tx.FindOrCreateProponent(Proponent{Name: "Ghost", Sex: domain.SexMale}); err != nil {
			return err
		}
		return wantErr
	})
	if err == nil {
		t.Fatalf("expected transaction error")
	}
	if got := len(store.ListProponents()); got != 0 {
		t.Fatalf("aborted transaction must not leak writes, found %d proponents", got)
	}
}

type blockEverythingRule struct{}

func (blockEverythingRule) Name() string { return "block_everything" }

func (blockEverythingRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for range changes {
		res.Violations = append(res.Violations, domain.Violation{Rule: "block_everything", Severity: domain.SeverityBlock})
	}
	return res, nil
}

func TestBlockingRuleAbortsCommit(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockEverythingRule{})
	store := NewStore(engine)

	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateProposal(Proposal{Title: "Blocked"})
		return err
	})
	if err == nil {
		t.Fatalf("expected rule violation error")
	}
	var ruleErr domain.RuleViolationError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("expected RuleViolationError, got %T", err)
	}
	if !ruleErr.Result.HasBlocking() {
		t.Fatalf("expected blocking violations in result")
	}
	if len(store.ListProposals()) != 0 {
		t.Fatalf("blocked transaction must not commit")
	}
}

func TestSnapshotRoundTripRebuildsIndexes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var original Proponent
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		original, _, err = tx.FindOrCreateProponent(Proponent{Name: "Juan Cruz", Sex: domain.SexMale})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	restored := newTestStore(t)
	restored.ImportState(store.ExportState())

	var resolved Proponent
	var created bool
	if _, err := restored.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		resolved, created, err = tx.FindOrCreateProponent(Proponent{Name: "Juan Cruz", Sex: domain.SexMale})
		return err
	}); err != nil {
		t.Fatalf("resolve after import: %v", err)
	}
	if created || resolved.ID != original.ID {
		t.Fatalf("expected imported state to dedup against original row")
	}
}
