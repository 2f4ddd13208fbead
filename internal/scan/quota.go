package scan

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// QuotaStore is the persistence contract for daily usage rows and the
// tier-derived limit. Implemented over GORM in the services package and by
// in-memory fakes in tests.
type QuotaStore interface {
	// DailyLimit resolves the scan limit of the user's currently ACTIVE,
	// non-expired subscription. found is false when the user has none.
	DailyLimit(userID uuid.UUID) (limit int, found bool, err error)

	// ScanCount returns the usage row count for (userID, day), 0 if absent.
	ScanCount(userID uuid.UUID, day time.Time) (int, error)

	// Increment atomically bumps the (userID, day) row by one, creating it
	// with scan_count=1 when absent.
	Increment(userID uuid.UUID, day time.Time) error

	// Reset deletes the (userID, day) row. Development and testing only.
	Reset(userID uuid.UUID, day time.Time) error
}

// QuotaStatus is the snapshot returned to clients alongside scan results.
type QuotaStatus struct {
	UserID          uuid.UUID `json:"userId"`
	CurrentUsage    int       `json:"currentUsage"`
	DailyLimit      int       `json:"dailyLimit"`
	RemainingScans  int       `json:"remainingScans"`
	IsLimitExceeded bool      `json:"isLimitExceeded"`
}

// QuotaTracker answers "can this user scan right now" using the user's
// local calendar day in the configured timezone as the reset boundary.
type QuotaTracker struct {
	store        QuotaStore
	loc          *time.Location
	defaultLimit int
	now          func() time.Time
}

func NewQuotaTracker(store QuotaStore, timezone string, defaultLimit int) (*QuotaTracker, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &QuotaTracker{
		store:        store,
		loc:          loc,
		defaultLimit: defaultLimit,
		now:          time.Now,
	}, nil
}

// LocalMidnightUTC converts an instant to the UTC instant of local midnight
// of that instant's calendar day in loc. time.Date applies the zone offset
// valid at the target local date, so DST transitions resolve correctly.
func LocalMidnightUTC(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return midnight.UTC()
}

func (q *QuotaTracker) todayStart() time.Time {
	return LocalMidnightUTC(q.now(), q.loc)
}

func (q *QuotaTracker) DailyLimit(userID uuid.UUID) (int, error) {
	limit, found, err := q.store.DailyLimit(userID)
	if err != nil {
		return 0, err
	}
	if !found {
		return q.defaultLimit, nil
	}
	return limit, nil
}

func (q *QuotaTracker) UsageToday(userID uuid.UUID) (int, error) {
	return q.store.ScanCount(userID, q.todayStart())
}

func (q *QuotaTracker) Status(userID uuid.UUID) (*QuotaStatus, error) {
	limit, err := q.DailyLimit(userID)
	if err != nil {
		return nil, err
	}
	usage, err := q.UsageToday(userID)
	if err != nil {
		return nil, err
	}

	remaining := limit - usage
	if remaining < 0 {
		remaining = 0
	}

	return &QuotaStatus{
		UserID:          userID,
		CurrentUsage:    usage,
		DailyLimit:      limit,
		RemainingScans:  remaining,
		IsLimitExceeded: usage >= limit,
	}, nil
}

// CanScanToday fails open: on a store failure it reports canScan=true with
// the default limit rather than blocking the user.
func (q *QuotaTracker) CanScanToday(userID uuid.UUID) (bool, *QuotaStatus) {
	status, err := q.Status(userID)
	if err != nil {
		slog.Warn("quota check failed, allowing scan", "user_id", userID, "error", err)
		return true, &QuotaStatus{
			UserID:         userID,
			DailyLimit:     q.defaultLimit,
			RemainingScans: q.defaultLimit,
		}
	}
	return !status.IsLimitExceeded, status
}

// IncrementUsage must be called exactly once per successfully persisted
// scan, strictly after the scan row exists. A crash between the two
// undercounts usage; accepted skew, no reconciliation.
func (q *QuotaTracker) IncrementUsage(userID uuid.UUID) error {
	return q.store.Increment(userID, q.todayStart())
}

func (q *QuotaTracker) ResetUsage(userID uuid.UUID) error {
	return q.store.Reset(userID, q.todayStart())
}
