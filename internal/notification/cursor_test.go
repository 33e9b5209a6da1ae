package notification

import (
	"testing"

	"github.com/pitabwire/ngazi/model"
)

func TestCursor_forwardOnly(t *testing.T) {
	c := NewCursor([]model.NotificationRecord{
		{NotificationID: 1},
		{NotificationID: 2},
		{NotificationID: 3},
	})

	if c.IsEmpty() {
		t.Error("IsEmpty() = true for three records")
	}

	var seen []int64
	for c.MoveNext() {
		seen = append(seen, c.Current().NotificationID)
	}
	if len(seen) != 3 || seen[0] != 1 || seen[1] != 2 || seen[2] != 3 {
		t.Errorf("cursor order = %v, want [1 2 3]", seen)
	}

	// Exhausted: further advances stay false.
	if c.MoveNext() {
		t.Error("MoveNext() = true after exhaustion")
	}
	if got := c.Current(); got.NotificationID != 0 {
		t.Errorf("Current() after exhaustion = %+v, want zero record", got)
	}
}

func TestCursor_empty(t *testing.T) {
	c := NewCursor(nil)
	if !c.IsEmpty() {
		t.Error("IsEmpty() = false for nil records")
	}
	if c.MoveNext() {
		t.Error("MoveNext() = true for empty cursor")
	}
}

func TestCursor_currentBeforeMoveNext(t *testing.T) {
	c := NewCursor([]model.NotificationRecord{{NotificationID: 5}})
	if got := c.Current(); got.NotificationID != 0 {
		t.Errorf("Current() before MoveNext = %+v, want zero record", got)
	}
}
