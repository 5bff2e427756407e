package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/config"
	"github.com/linesmerrill/dose-reminder-api/dosetime"
	"github.com/linesmerrill/dose-reminder-api/intake"
	"github.com/linesmerrill/dose-reminder-api/models"
	"github.com/linesmerrill/dose-reminder-api/notify"
	"github.com/linesmerrill/dose-reminder-api/supply"
)

// Reminder ids posted to the sink.
const (
	ReminderPending   = 1
	ReminderForgotten = 2
	ReminderSupply    = 3
)

var allReminders = []int{ReminderPending, ReminderForgotten, ReminderSupply}

// State is the phase the reminder loop is in.
type State int32

// States
const (
	StateStopped State = iota
	StateSleepingUntilWindow
	StateAwaitingIntake
	StateSnoozed
)

func (s State) String() string {
	switch s {
	case StateSleepingUntilWindow:
		return "sleeping"
	case StateAwaitingIntake:
		return "awaiting_intake"
	case StateSnoozed:
		return "snoozed"
	default:
		return "stopped"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Entries is the part of the entry store the reminder loop reads.
type Entries interface {
	Drugs(ctx context.Context) ([]models.Drug, error)
	DoseEvents(ctx context.Context, since time.Time) ([]models.DoseEvent, error)
	Reconnect(ctx context.Context) error
}

// timerFunc starts a timer; the returned func stops it.
type timerFunc func(d time.Duration) (<-chan time.Time, func() bool)

func realTimer(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}

// Notifier runs the reminder loop: it sleeps until a dose-time window
// opens, reminds about due doses without an intake until they are recorded
// or the window closes, and reports forgotten doses and low supplies.
// At most one loop runs at a time.
type Notifier struct {
	entries  Entries
	settings *config.Settings
	clock    clock.Clock
	sink     notify.Sink
	timer    timerFunc

	snooze chan struct{}
	state  atomic.Int32

	// summary of the supply reminder currently shown; owned by the running
	// loop, or by Stop once the loop has exited
	lastSupply string

	mu     sync.Mutex
	parent context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewNotifier returns a stopped Notifier.
func NewNotifier(entries Entries, settings *config.Settings, c clock.Clock, sink notify.Sink) *Notifier {
	return &Notifier{
		entries:  entries,
		settings: settings,
		clock:    c,
		sink:     sink,
		timer:    realTimer,
		snooze:   make(chan struct{}, 1),
		parent:   context.Background(),
	}
}

// State returns the current state of the loop.
func (n *Notifier) State() State {
	return State(n.state.Load())
}

func (n *Notifier) setState(s State) {
	n.state.Store(int32(s))
}

// Start runs the loop until ctx is done or Stop is called.
func (n *Notifier) Start(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.parent = ctx
	n.startLocked()
}

// Restart re-enters the loop from the top. Unless forced, a running loop is
// only restarted while it sleeps between windows.
func (n *Notifier) Restart(forced bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !forced && n.running() && n.State() != StateSleepingUntilWindow {
		zap.S().Debugw("ignoring reminder loop restart", "state", n.State())
		return
	}
	n.startLocked()
}

// Stop ends the loop and withdraws every reminder.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.stopLocked()
	n.setState(StateStopped)
	n.clearAll()
}

// RequestSnooze wakes a snoozed loop. It reports false, and does nothing,
// when the loop is not snoozed.
func (n *Notifier) RequestSnooze() bool {
	if n.State() != StateSnoozed {
		return false
	}
	select {
	case n.snooze <- struct{}{}:
	default:
	}
	return true
}

func (n *Notifier) running() bool {
	if n.done == nil {
		return false
	}
	select {
	case <-n.done:
		return false
	default:
		return true
	}
}

func (n *Notifier) startLocked() {
	n.stopLocked()

	ctx, cancel := context.WithCancel(n.parent)
	done := make(chan struct{})
	n.cancel = cancel
	n.done = done

	// a snooze requested before this loop started belongs to the old one
	select {
	case <-n.snooze:
	default:
	}

	go func() {
		defer close(done)
		n.run(ctx)
	}()
}

func (n *Notifier) stopLocked() {
	if n.cancel == nil {
		return
	}
	n.cancel()
	<-n.done
	n.cancel = nil
}

// loop holds what a single run of the loop works with. Settings are read
// once per run; a settings change restarts the loop.
type loop struct {
	*Notifier
	doseTimes      *dosetime.Clock
	snoozeMode     config.SnoozeMode
	snoozeInterval time.Duration
	threshold      int

	// last window whose forgotten doses were reported
	reportedDoseTime models.DoseTime
	reportedDate     time.Time
}

func (n *Notifier) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Errorw("reminder loop crashed", "panic", r)
			n.clearAll()
		}
		n.setState(StateStopped)
	}()

	mode, interval := n.settings.Snooze()
	l := &loop{
		Notifier:         n,
		doseTimes:        n.settings.DoseTimeClock(),
		snoozeMode:       mode,
		snoozeInterval:   interval,
		threshold:        n.settings.Threshold(),
		reportedDoseTime: models.DoseTimeNone,
	}

	zap.S().Infow("reminder loop started", "snoozeMode", mode, "snoozeInterval", interval)
	n.cancelReminder(ReminderPending)
	l.checkSupplies(ctx)

	for ctx.Err() == nil {
		now := n.clock.Now()
		doseTime := l.doseTimes.ActiveDoseTime(now)
		if doseTime == models.DoseTimeNone {
			l.sleepUntilWindow(ctx)
			continue
		}
		date := l.doseTimes.ActiveDate(now)
		if l.awaitIntake(ctx, doseTime, date) {
			l.closeWindow(ctx, doseTime, date)
		}
	}
	zap.S().Debugw("reminder loop exited", "reason", ctx.Err())
}

// sleepUntilWindow reports the window that closed last and sleeps until the
// next one opens.
func (l *loop) sleepUntilWindow(ctx context.Context) {
	now := l.clock.Now()
	if prev, date := l.doseTimes.PreviousDoseTime(now); prev != models.DoseTimeNone {
		l.reportForgotten(ctx, prev, date)
	}

	l.setState(StateSleepingUntilWindow)
	next := l.doseTimes.NextDoseTime(now)
	d := l.doseTimes.UntilBeginOrEnd(now, next, true)
	zap.S().Debugw("sleeping until next dose time", "doseTime", next, "duration", d)
	if !l.sleep(ctx, d) {
		return
	}

	active := l.doseTimes.ActiveDoseTime(l.clock.Now())
	switch active {
	case models.DoseTimeNone:
		zap.S().Warnw("woke up outside of a dose time window", "expected", next)
	case models.DoseTimeMorning:
		l.checkSupplies(ctx)
	}
}

// awaitIntake reminds about the due doses of the active window until all
// are taken or the window closes. It returns false when the loop is
// interrupted.
func (l *loop) awaitIntake(ctx context.Context, doseTime models.DoseTime, date time.Time) bool {
	end := l.doseTimes.WindowEnd(date, doseTime)
	for {
		l.setState(StateAwaitingIntake)
		remaining := end.Sub(l.clock.Now())
		if remaining <= 0 {
			return true
		}

		drugs, idx, err := l.snapshot(ctx, date)
		if err != nil {
			zap.S().Errorw("giving up on dose time window", "doseTime", doseTime, "error", err)
			return l.sleep(ctx, remaining)
		}

		count := intake.CountDue(drugs, doseTime, date, idx)
		if count == 0 {
			l.cancelReminder(ReminderPending)
			return l.sleep(ctx, remaining)
		}
		l.post(ReminderPending, "Time for your medication",
			fmt.Sprintf("%d %s due (%s)", count, plural(count, "medication"), doseTime), count)

		switch l.snoozeMode {
		case config.SnoozeDisabled:
			return l.sleep(ctx, remaining)
		case config.SnoozeAuto:
			if !l.sleep(ctx, minDuration(l.snoozeInterval, remaining)) {
				return false
			}
		case config.SnoozeManual:
			if !l.snoozed(ctx, end) {
				return false
			}
		}
	}
}

// snoozed waits for a snooze request or until one snooze interval before the
// window ends, then withdraws the pending reminder for at most one interval.
// It never sleeps past end.
func (l *loop) snoozed(ctx context.Context, end time.Time) bool {
	// a request left over from the previous snooze must not end this one
	select {
	case <-l.snooze:
	default:
	}
	l.setState(StateSnoozed)
	remaining := end.Sub(l.clock.Now())
	timeout := remaining - l.snoozeInterval
	if timeout <= 0 {
		timeout = remaining
	}

	c, stop := l.timer(timeout)
	defer stop()
	select {
	case <-ctx.Done():
		return false
	case <-c:
	case <-l.snooze:
		zap.S().Infow("reminder snoozed", "interval", l.snoozeInterval)
	}

	l.setState(StateAwaitingIntake)
	l.cancelReminder(ReminderPending)
	d := minDuration(l.snoozeInterval, end.Sub(l.clock.Now()))
	if d <= 0 {
		return true
	}
	return l.sleep(ctx, d)
}

func (l *loop) closeWindow(ctx context.Context, doseTime models.DoseTime, date time.Time) {
	l.cancelReminder(ReminderPending)
	l.reportForgotten(ctx, doseTime, date)
}

// reportForgotten raises or clears the forgotten reminder for one closed
// window. Each window is evaluated once per run.
func (l *loop) reportForgotten(ctx context.Context, doseTime models.DoseTime, date time.Time) {
	if l.reportedDoseTime == doseTime && l.reportedDate.Equal(date) {
		return
	}

	drugs, idx, err := l.snapshot(ctx, date)
	if err != nil {
		zap.S().Errorw("failed to count forgotten doses", "doseTime", doseTime, "error", err)
		return
	}
	l.reportedDoseTime, l.reportedDate = doseTime, date

	count := intake.CountDue(drugs, doseTime, date, idx)
	if count == 0 {
		l.cancelReminder(ReminderForgotten)
		return
	}
	l.post(ReminderForgotten, "Forgotten medication",
		fmt.Sprintf("%d %s not taken (%s, %s)", count, plural(count, "dose"), doseTime, clock.FormatDate(date)), count)
}

func (l *loop) checkSupplies(ctx context.Context) {
	today := clock.Today(l.clock)
	drugs, idx, err := l.snapshot(ctx, today)
	if err != nil {
		zap.S().Errorw("failed to check supplies", "error", err)
		return
	}

	report := supply.New(idx, l.clock, l.threshold).Check(drugs, today)
	if report.Empty() {
		l.cancelReminder(ReminderSupply)
		l.lastSupply = ""
		return
	}
	summary := report.Summary()
	if summary == l.lastSupply {
		return
	}
	zap.S().Infow("medications need attention", "lowSupply", len(report.LowSupply), "expiringSoon", len(report.ExpiringSoon))
	l.post(ReminderSupply, "Medication supply", summary, report.Count())
	l.lastSupply = summary
}

// snapshot reads the drugs and the intakes from the day before date on. A
// failed read is retried once after reconnecting.
func (n *Notifier) snapshot(ctx context.Context, date time.Time) ([]models.Drug, *intake.Index, error) {
	since := clock.AddDays(date, -1)
	drugs, events, err := n.query(ctx, since)
	if err != nil && ctx.Err() == nil {
		zap.S().Warnw("entry store query failed, reconnecting", "error", err)
		if rerr := n.entries.Reconnect(ctx); rerr != nil {
			return nil, nil, rerr
		}
		drugs, events, err = n.query(ctx, since)
	}
	if err != nil {
		return nil, nil, err
	}
	return drugs, intake.NewIndex(events), nil
}

func (n *Notifier) query(ctx context.Context, since time.Time) ([]models.Drug, []models.DoseEvent, error) {
	drugs, err := n.entries.Drugs(ctx)
	if err != nil {
		return nil, nil, err
	}
	events, err := n.entries.DoseEvents(ctx, since)
	if err != nil {
		return nil, nil, err
	}
	return drugs, events, nil
}

// sleep waits for d and returns false when interrupted.
func (n *Notifier) sleep(ctx context.Context, d time.Duration) bool {
	c, stop := n.timer(d)
	defer stop()
	select {
	case <-ctx.Done():
		return false
	case <-c:
		return true
	}
}

func (n *Notifier) post(id int, title, body string, count int) {
	if err := n.sink.Post(id, title, body, count); err != nil {
		zap.S().Warnw("failed to post reminder", "id", id, "error", err)
	}
}

func (n *Notifier) cancelReminder(id int) {
	if err := n.sink.Cancel(id); err != nil {
		zap.S().Warnw("failed to cancel reminder", "id", id, "error", err)
	}
}

func (n *Notifier) clearAll() {
	for _, id := range allReminders {
		n.cancelReminder(id)
	}
	n.lastSupply = ""
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
