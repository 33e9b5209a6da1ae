package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pitabwire/ngazi/internal/directory"
	"github.com/pitabwire/ngazi/model"
)

// failingLedger errors on every operation.
type failingLedger struct{}

func (failingLedger) WasDelivered(context.Context, string) (bool, error) {
	return false, fmt.Errorf("ledger unavailable")
}

func (failingLedger) MarkDelivered(context.Context, string, time.Duration) error {
	return fmt.Errorf("ledger unavailable")
}

func dispatchFixture(t *testing.T) (*Dispatcher, *MemRowSource, *MemoryDeliveryLedger) {
	t.Helper()
	source := NewMemRowSource()
	ledger := NewMemoryDeliveryLedger()
	router := NewRouter(source, nil, nil)
	return NewDispatcher(router, ledger, time.Hour, nil, nil), source, ledger
}

func seedSingleNotification(source *MemRowSource) {
	source.Seed(7, 12, []model.NotificationRecord{
		{
			WorkflowID:           7,
			TransitionID:         12,
			NotificationID:       100,
			Recipient:            model.RecipientToState,
			NotifyToStateRoles:   true,
			AdditionalRecipients: []string{"audit@example.com"},
		},
	})
}

func notifyDirectory(t *testing.T, workflowID, stateID int64, roleNames ...string) *directory.Directory {
	t.Helper()
	src := directory.NewMemRoleSource()
	rows := make([]model.RoleAssignment, len(roleNames))
	for i, name := range roleNames {
		rows[i] = model.RoleAssignment{
			RoleID:        int64(i + 1),
			RoleName:      name,
			Assignment:    model.AssignmentAssignee,
			NotifyEnabled: true,
		}
	}
	src.Seed(workflowID, stateID, rows)
	dir, err := directory.NewLoader(src, nil, nil).Load(context.Background(), workflowID, stateID)
	if err != nil {
		t.Fatalf("Load directory: %v", err)
	}
	return dir
}

func TestDispatcher_firstDispatchDelivers(t *testing.T) {
	d, source, ledger := dispatchFixture(t)
	seedSingleNotification(source)
	toDir := notifyDirectory(t, 7, 4, "Publisher")

	out, err := d.Dispatch(context.Background(), 7, 12, 42, nil, toDir)
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("dispatched = %d notifications, want 1", len(out))
	}
	if out[0].Recipients[0] != "Publisher" {
		t.Errorf("recipients = %v", out[0].Recipients)
	}

	delivered, _ := ledger.WasDelivered(context.Background(), FormatDeliveryKey(7, 12, 100, 42))
	if !delivered {
		t.Error("dispatch did not mark the ledger")
	}
}

func TestDispatcher_repeatDispatchSuppressed(t *testing.T) {
	d, source, _ := dispatchFixture(t)
	seedSingleNotification(source)
	toDir := notifyDirectory(t, 7, 4, "Publisher")

	if _, err := d.Dispatch(context.Background(), 7, 12, 42, nil, toDir); err != nil {
		t.Fatalf("first Dispatch error: %v", err)
	}
	out, err := d.Dispatch(context.Background(), 7, 12, 42, nil, toDir)
	if err != nil {
		t.Fatalf("second Dispatch error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("second dispatch = %d notifications, want 0 (suppressed)", len(out))
	}
}

func TestDispatcher_scopedPerContentItem(t *testing.T) {
	d, source, _ := dispatchFixture(t)
	seedSingleNotification(source)
	toDir := notifyDirectory(t, 7, 4, "Publisher")

	if _, err := d.Dispatch(context.Background(), 7, 12, 42, nil, toDir); err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}

	// A different item is a fresh delivery.
	out, err := d.Dispatch(context.Background(), 7, 12, 43, nil, toDir)
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("dispatch for other item = %d notifications, want 1", len(out))
	}
}

func TestDispatcher_partialSuppression(t *testing.T) {
	source := NewMemRowSource()
	ledger := NewMemoryDeliveryLedger()
	d := NewDispatcher(NewRouter(source, nil, nil), ledger, time.Hour, nil, nil)

	source.Seed(7, 12, []model.NotificationRecord{
		{WorkflowID: 7, TransitionID: 12, NotificationID: 100, AdditionalRecipients: []string{"a@example.com"}},
		{WorkflowID: 7, TransitionID: 12, NotificationID: 101, AdditionalRecipients: []string{"b@example.com"}},
	})

	// First record already delivered.
	_ = ledger.MarkDelivered(context.Background(), FormatDeliveryKey(7, 12, 100, 42), time.Hour)

	out, err := d.Dispatch(context.Background(), 7, 12, 42, nil, nil)
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("dispatched = %d notifications, want 1", len(out))
	}
	if out[0].NotificationID != 101 {
		t.Errorf("NotificationID = %d, want 101", out[0].NotificationID)
	}
}

func TestDispatcher_ledgerFailure(t *testing.T) {
	source := NewMemRowSource()
	seedSingleNotification(source)
	d := NewDispatcher(NewRouter(source, nil, nil), failingLedger{}, time.Hour, nil, nil)

	if _, err := d.Dispatch(context.Background(), 7, 12, 42, nil, nil); err == nil {
		t.Fatal("expected error when ledger is unavailable")
	}
}

func TestDispatcher_noRecords(t *testing.T) {
	d, _, ledger := dispatchFixture(t)

	out, err := d.Dispatch(context.Background(), 7, 99, 42, nil, nil)
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("dispatched = %d, want 0", len(out))
	}
	if ledger.Len() != 0 {
		t.Errorf("ledger entries = %d, want 0", ledger.Len())
	}
}
