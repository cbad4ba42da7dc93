package apierrors

import (
	"testing"
	"time"

	"github.com/dalemusser/strataconvert/internal/testutil"
)

func TestStore_CreateAndListRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{RequestID: "req-1", Method: "POST", Path: "/api/save-history", StatusCode: 401, OccurredAt: base},
		{RequestID: "req-2", Method: "GET", Path: "/api/get-history", StatusCode: 500, OccurredAt: base.Add(2 * time.Minute)},
		{RequestID: "req-3", Method: "GET", Path: "/api/convert", StatusCode: 502, OccurredAt: base.Add(time.Minute)},
	}
	for _, e := range entries {
		if err := store.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	t.Run("newest first", func(t *testing.T) {
		got, err := store.ListRecent(ctx, 10)
		if err != nil {
			t.Fatalf("ListRecent() error = %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("entries = %d, want 3", len(got))
		}
		wantOrder := []string{"req-2", "req-3", "req-1"}
		for i, want := range wantOrder {
			if got[i].RequestID != want {
				t.Errorf("entry %d = %q, want %q", i, got[i].RequestID, want)
			}
		}
	})

	t.Run("limit respected", func(t *testing.T) {
		got, err := store.ListRecent(ctx, 2)
		if err != nil {
			t.Fatalf("ListRecent() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("entries = %d, want 2", len(got))
		}
	})
}
