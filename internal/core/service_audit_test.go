package core

import (
	"context"
	"testing"
	"time"

	memory "grantcore/internal/infra/persistence/memory"
	"grantcore/pkg/domain"
)

func TestRecordAuditSuccessUsesMetadata(t *testing.T) {
	fixed := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)
	recorder := &auditRecorderStub{}
	svc := NewService(
		memory.NewStore(NewDefaultRulesEngine()),
		WithAuditRecorder(recorder),
		WithClock(ClockFunc(func() time.Time { return fixed })),
	)

	entityID := "proposal-123"
	duration := 42 * time.Millisecond
	svc.recordAuditSuccess(context.Background(), "create_proposal", entityID, "u-owner", duration)

	if len(recorder.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(recorder.entries))
	}
	entry := recorder.entries[0]
	if entry.Operation != "create_proposal" {
		t.Fatalf("unexpected operation: %s", entry.Operation)
	}
	if entry.Entity != domain.EntityProposal {
		t.Fatalf("expected entity proposal, got %s", entry.Entity)
	}
	if entry.Action != domain.ActionCreate {
		t.Fatalf("expected create action, got %s", entry.Action)
	}
	if entry.EntityID != entityID {
		t.Fatalf("expected entity id %s, got %s", entityID, entry.EntityID)
	}
	if entry.Actor != "u-owner" {
		t.Fatalf("expected actor, got %s", entry.Actor)
	}
	if entry.Status != AuditStatusSuccess {
		t.Fatalf("expected success status, got %s", entry.Status)
	}
	if entry.Duration != duration {
		t.Fatalf("expected duration %v, got %v", duration, entry.Duration)
	}
	if !entry.Timestamp.Equal(fixed) {
		t.Fatalf("expected timestamp %v, got %v", fixed, entry.Timestamp)
	}
}

func TestRecordAuditSuccessIgnoresUnknownOperation(t *testing.T) {
	recorder := &auditRecorderStub{}
	svc := NewService(
		memory.NewStore(NewDefaultRulesEngine()),
		WithAuditRecorder(recorder),
	)

	svc.recordAuditSuccess(context.Background(), "unknown_operation", "entity", "actor", time.Second)

	if len(recorder.entries) != 0 {
		t.Fatalf("expected no audit entries for unknown operation, got %d", len(recorder.entries))
	}
}

func TestRecordAuditErrorCarriesReason(t *testing.T) {
	recorder := &auditRecorderStub{}
	svc := NewService(
		memory.NewStore(NewDefaultRulesEngine()),
		WithAuditRecorder(recorder),
	)

	svc.recordAuditError(context.Background(), "delete_proposal", "p-1", "u-1",
		domain.ForbiddenError{Reason: "not owner"}, time.Millisecond)

	if len(recorder.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(recorder.entries))
	}
	entry := recorder.entries[0]
	if entry.Status != AuditStatusError {
		t.Fatalf("expected error status, got %s", entry.Status)
	}
	if entry.Reason == "" {
		t.Fatalf("expected failure reason on error entries")
	}
}

func TestNoopImplementations(t *testing.T) {
	var logger noopLogger
	logger.Debug("noop")
	logger.Info("noop")
	logger.Warn("noop")
	logger.Error("noop")

	var audit noopAuditRecorder
	audit.Record(context.Background(), AuditEntry{})

	var metrics noopMetricsRecorder
	metrics.Observe(context.Background(), "noop", true, 0)

	tracer := noopTracer{}
	ctx, span := tracer.Start(context.Background(), "op")
	if ctx == nil {
		t.Fatalf("expected context from tracer")
	}
	span.End(nil)
}

type auditRecorderStub struct {
	entries []AuditEntry
}

func (r *auditRecorderStub) Record(_ context.Context, entry AuditEntry) {
	r.entries = append(r.entries, entry)
}
