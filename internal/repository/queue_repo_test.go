package repository

import (
	"context"
	"testing"

	"github.com/ossih/casemirror/internal/domain"
)

// TestEnqueueDeduplicates verifies a pending (endpoint, entity) pair is
// never queued twice and the existing task ID is reported
func TestEnqueueDeduplicates(t *testing.T) {
	repo := NewQueueRepository(newTestDB(t))
	ctx := context.Background()

	id1, existed, err := repo.Enqueue(ctx, "cases", "C1", domain.TaskReasonRetry, nil)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if existed {
		t.Error("first enqueue reported as duplicate")
	}

	id2, existed, err := repo.Enqueue(ctx, "cases", "C1", domain.TaskReasonCallback, domain.JSONMap{"x": "y"})
	if err != nil {
		t.Fatalf("duplicate Enqueue failed: %v", err)
	}
	if !existed {
		t.Error("duplicate enqueue not detected")
	}
	if id1 != id2 {
		t.Errorf("duplicate enqueue returned new ID: %s != %s", id1, id2)
	}

	// Same entity under a different endpoint is a distinct task.
	_, existed, err = repo.Enqueue(ctx, "meetings", "C1", domain.TaskReasonRetry, nil)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if existed {
		t.Error("different endpoint treated as duplicate")
	}

	count, err := repo.CountPending(ctx)
	if err != nil {
		t.Fatalf("CountPending failed: %v", err)
	}
	if count != 2 {
		t.Errorf("pending = %d, want 2", count)
	}
}

// TestPendingOrder verifies tasks come back in enqueue order
func TestPendingOrder(t *testing.T) {
	repo := NewQueueRepository(newTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"A", "B", "C"} {
		if _, _, err := repo.Enqueue(ctx, "cases", id, domain.TaskReasonRetry, nil); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	tasks, err := repo.Pending(ctx, 2)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2 (limit applied)", len(tasks))
	}
	if tasks[0].EntityID != "A" || tasks[1].EntityID != "B" {
		t.Errorf("order = %s, %s; want A, B", tasks[0].EntityID, tasks[1].EntityID)
	}
}

// TestDeleteAndMarkAttempt verifies lifecycle operations on a queued task
func TestDeleteAndMarkAttempt(t *testing.T) {
	repo := NewQueueRepository(newTestDB(t))
	ctx := context.Background()

	id, _, err := repo.Enqueue(ctx, "cases", "C1", domain.TaskReasonRetry, nil)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if err := repo.MarkAttempt(ctx, id); err != nil {
		t.Fatalf("MarkAttempt failed: %v", err)
	}
	if err := repo.MarkAttempt(ctx, id); err != nil {
		t.Fatalf("MarkAttempt failed: %v", err)
	}

	tasks, err := repo.Pending(ctx, 0)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Attempts != 2 {
		t.Fatalf("tasks = %+v, want one task with 2 attempts", tasks)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	count, _ := repo.CountPending(ctx)
	if count != 0 {
		t.Errorf("pending = %d after delete, want 0", count)
	}
}
