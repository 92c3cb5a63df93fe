package services

import (
	"context"
	"log/slog"
	"net"
	"time"

	"tally/internal/analytics"
	"tally/internal/core"
	"tally/internal/storage"
)

// KeyLastAutoDownload is the store key recording when the auto-export last
// ran, as an ISO date string.
const KeyLastAutoDownload = "lastAutoDownload"

// ConnectivityChecker answers whether the process currently has network
// connectivity. The auto-export check is skipped entirely while offline
// and retried on the next process start.
type ConnectivityChecker interface {
	Online(ctx context.Context) bool
}

// AlwaysOnline is the default checker for deployments with no probe
// configured.
type AlwaysOnline struct{}

func (AlwaysOnline) Online(context.Context) bool { return true }

// ProbeChecker dials a TCP host to decide connectivity.
type ProbeChecker struct {
	Addr    string
	Timeout time.Duration
}

func (p ProbeChecker) Online(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// AutoExport produces a statement for the previous month once per month,
// shortly after process start.
type AutoExport struct {
	tracker *Tracker
	store   *storage.Store
	checker ConnectivityChecker
	grace   time.Duration
	now     func() time.Time
}

func NewAutoExport(tracker *Tracker, store *storage.Store, checker ConnectivityChecker, grace time.Duration) *AutoExport {
	if checker == nil {
		checker = AlwaysOnline{}
	}
	return &AutoExport{
		tracker: tracker,
		store:   store,
		checker: checker,
		grace:   grace,
		now:     time.Now,
	}
}

// Run waits out the grace period, then performs the check once.
func (a *AutoExport) Run(ctx context.Context) error {
	timer := time.NewTimer(a.grace)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	a.Check(ctx)
	return nil
}

// Check exports the previous month's statement if that month has not been
// exported yet. The marker is advanced even when the month held no
// transactions, so the check does not repeat within the same month.
// Offline skips everything, marker included.
func (a *AutoExport) Check(ctx context.Context) {
	if !a.checker.Online(ctx) {
		slog.InfoContext(ctx, "Auto-export skipped, offline")
		return
	}

	now := a.now()
	// Derived from the first of the current month: the 31st minus one month
	// would land two months back on short months.
	currentFirst := core.YearMonthOf(now).FirstDay()
	prevMonth := core.YearMonthOf(currentFirst.AddDate(0, 0, -1))
	lastDay := prevMonth.LastDay()

	if !a.due(ctx, lastDay) {
		slog.DebugContext(ctx, "Auto-export already done for period", "period", prevMonth.String())
		return
	}

	monthly := analytics.MonthlyTransactions(a.tracker.Transactions(ctx), prevMonth)
	if len(monthly) > 0 {
		if _, err := a.tracker.SaveMonthStatement(ctx, prevMonth); err != nil {
			slog.ErrorContext(ctx, "Auto-export failed", "period", prevMonth.String(), "error", err)
		}
	} else {
		slog.InfoContext(ctx, "Auto-export found no transactions", "period", prevMonth.String())
	}

	// Recorded unconditionally so an empty month is not rechecked.
	a.store.Set(ctx, KeyLastAutoDownload, lastDay.Format("2006-01-02"))
}

// due reports whether no export marker exists or the marker predates the
// end of the previous month.
func (a *AutoExport) due(ctx context.Context, lastDay time.Time) bool {
	marker := storage.GetOr(ctx, a.store, KeyLastAutoDownload, "")
	if marker == "" {
		return true
	}
	recorded, err := time.ParseInLocation("2006-01-02", marker, time.Local)
	if err != nil {
		slog.WarnContext(ctx, "Unparseable auto-export marker, exporting again", "marker", marker)
		return true
	}
	return recorded.Before(lastDay)
}
