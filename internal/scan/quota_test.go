package scan

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeQuotaStore keeps usage rows in memory keyed by the day instant.
type fakeQuotaStore struct {
	limit      int
	hasSub     bool
	counts     map[string]int
	failAll    bool
	failBump   bool
	increments int
}

func newFakeQuotaStore(limit int, hasSub bool) *fakeQuotaStore {
	return &fakeQuotaStore{limit: limit, hasSub: hasSub, counts: map[string]int{}}
}

func (f *fakeQuotaStore) key(userID uuid.UUID, day time.Time) string {
	return userID.String() + "|" + day.UTC().Format(time.RFC3339)
}

func (f *fakeQuotaStore) DailyLimit(userID uuid.UUID) (int, bool, error) {
	if f.failAll {
		return 0, false, errors.New("db down")
	}
	return f.limit, f.hasSub, nil
}

func (f *fakeQuotaStore) ScanCount(userID uuid.UUID, day time.Time) (int, error) {
	if f.failAll {
		return 0, errors.New("db down")
	}
	return f.counts[f.key(userID, day)], nil
}

func (f *fakeQuotaStore) Increment(userID uuid.UUID, day time.Time) error {
	if f.failAll || f.failBump {
		return errors.New("db down")
	}
	f.counts[f.key(userID, day)]++
	f.increments++
	return nil
}

func (f *fakeQuotaStore) Reset(userID uuid.UUID, day time.Time) error {
	delete(f.counts, f.key(userID, day))
	return nil
}

func newTestTracker(t *testing.T, store QuotaStore, defaultLimit int) *QuotaTracker {
	t.Helper()
	tracker, err := NewQuotaTracker(store, "Asia/Jakarta", defaultLimit)
	if err != nil {
		t.Fatalf("NewQuotaTracker() error = %v", err)
	}
	return tracker
}

func TestLocalMidnightUTC(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	tests := []struct {
		name string
		loc  *time.Location
		in   time.Time
		want time.Time
	}{
		{
			name: "jakarta just before local midnight",
			loc:  jakarta,
			in:   time.Date(2026, 3, 10, 16, 59, 0, 0, time.UTC), // 23:59 local
			want: time.Date(2026, 3, 9, 17, 0, 0, 0, time.UTC),
		},
		{
			name: "jakarta just after local midnight",
			loc:  jakarta,
			in:   time.Date(2026, 3, 10, 17, 1, 0, 0, time.UTC), // 00:01 local next day
			want: time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC),
		},
		{
			name: "new york on a DST transition day",
			loc:  newYork,
			in:   time.Date(2026, 3, 8, 18, 0, 0, 0, time.UTC), // EDT afternoon
			want: time.Date(2026, 3, 8, 5, 0, 0, 0, time.UTC),  // midnight was still EST
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LocalMidnightUTC(tt.in, tt.loc)
			if !got.Equal(tt.want) {
				t.Fatalf("LocalMidnightUTC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuotaTrackerInvalidTimezone(t *testing.T) {
	if _, err := NewQuotaTracker(newFakeQuotaStore(10, true), "Not/AZone", 100); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestQuotaStatus(t *testing.T) {
	userID := uuid.New()

	t.Run("fresh user with subscription", func(t *testing.T) {
		tracker := newTestTracker(t, newFakeQuotaStore(10, true), 100)
		status, err := tracker.Status(userID)
		if err != nil {
			t.Fatalf("Status() error = %v", err)
		}
		if status.DailyLimit != 10 || status.CurrentUsage != 0 || status.RemainingScans != 10 || status.IsLimitExceeded {
			t.Fatalf("unexpected status %+v", status)
		}
	})

	t.Run("no subscription falls back to default limit", func(t *testing.T) {
		tracker := newTestTracker(t, newFakeQuotaStore(0, false), 100)
		status, err := tracker.Status(userID)
		if err != nil {
			t.Fatalf("Status() error = %v", err)
		}
		if status.DailyLimit != 100 {
			t.Fatalf("DailyLimit = %d, want default 100", status.DailyLimit)
		}
	})

	t.Run("exceeded exactly at the limit", func(t *testing.T) {
		store := newFakeQuotaStore(2, true)
		tracker := newTestTracker(t, store, 100)
		for i := 0; i < 2; i++ {
			if err := tracker.IncrementUsage(userID); err != nil {
				t.Fatalf("IncrementUsage() error = %v", err)
			}
		}
		status, err := tracker.Status(userID)
		if err != nil {
			t.Fatalf("Status() error = %v", err)
		}
		if !status.IsLimitExceeded || status.RemainingScans != 0 {
			t.Fatalf("unexpected status %+v", status)
		}
	})
}

func TestCanScanToday(t *testing.T) {
	userID := uuid.New()

	t.Run("under the limit", func(t *testing.T) {
		tracker := newTestTracker(t, newFakeQuotaStore(2, true), 100)
		can, status := tracker.CanScanToday(userID)
		if !can {
			t.Fatal("expected scan allowed")
		}
		if status.RemainingScans != 2 {
			t.Fatalf("RemainingScans = %d, want 2", status.RemainingScans)
		}
	})

	t.Run("fails open when the store is down", func(t *testing.T) {
		store := newFakeQuotaStore(2, true)
		store.failAll = true
		tracker := newTestTracker(t, store, 100)
		can, status := tracker.CanScanToday(userID)
		if !can {
			t.Fatal("quota check failure must not block the scan")
		}
		if status.DailyLimit != 100 {
			t.Fatalf("fallback DailyLimit = %d, want default 100", status.DailyLimit)
		}
	})
}

func TestQuotaResetsAtLocalMidnight(t *testing.T) {
	userID := uuid.New()
	store := newFakeQuotaStore(10, true)
	tracker := newTestTracker(t, store, 100)

	// 23:30 Jakarta time on March 10.
	tracker.now = func() time.Time { return time.Date(2026, 3, 10, 16, 30, 0, 0, time.UTC) }
	for i := 0; i < 3; i++ {
		if err := tracker.IncrementUsage(userID); err != nil {
			t.Fatalf("IncrementUsage() error = %v", err)
		}
	}
	usage, err := tracker.UsageToday(userID)
	if err != nil {
		t.Fatalf("UsageToday() error = %v", err)
	}
	if usage != 3 {
		t.Fatalf("usage before midnight = %d, want 3", usage)
	}

	// 00:30 Jakarta time on March 11: the day rolled, usage starts over.
	tracker.now = func() time.Time { return time.Date(2026, 3, 10, 17, 30, 0, 0, time.UTC) }
	usage, err = tracker.UsageToday(userID)
	if err != nil {
		t.Fatalf("UsageToday() error = %v", err)
	}
	if usage != 0 {
		t.Fatalf("usage after midnight = %d, want 0", usage)
	}
}

func TestResetUsage(t *testing.T) {
	userID := uuid.New()
	store := newFakeQuotaStore(10, true)
	tracker := newTestTracker(t, store, 100)

	if err := tracker.IncrementUsage(userID); err != nil {
		t.Fatalf("IncrementUsage() error = %v", err)
	}
	if err := tracker.ResetUsage(userID); err != nil {
		t.Fatalf("ResetUsage() error = %v", err)
	}
	usage, err := tracker.UsageToday(userID)
	if err != nil {
		t.Fatalf("UsageToday() error = %v", err)
	}
	if usage != 0 {
		t.Fatalf("usage after reset = %d, want 0", usage)
	}
}
