package taskwatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rhuann-Nunes/jarvis-bot/directory"
	"github.com/Rhuann-Nunes/jarvis-bot/phone"
)

// brasilia is the fixed UTC-3 offset used for user-facing due times. A fixed
// offset, not a timezone database: the deployment serves a single locale.
var brasilia = time.FixedZone("-03", -3*60*60)

type resolver interface {
	ResolveByID(ctx context.Context, userID string) (directory.Identity, bool, error)
}

type Poller struct {
	store    TaskStore
	resolver resolver
	sender   Sender
	logger   *slog.Logger

	leadTime time.Duration
	notified *notifiedSet
	state    tickState

	mu       sync.Mutex
	lastTick time.Time
}

type PollerOptions struct {
	Logger      *slog.Logger
	LeadTime    time.Duration
	NotifiedCap int
}

func NewPoller(store TaskStore, res *directory.Resolver, sender Sender, opts PollerOptions) *Poller {
	return newPoller(store, res, sender, opts)
}

func newPoller(store TaskStore, res resolver, sender Sender, opts PollerOptions) *Poller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	leadTime := opts.LeadTime
	if leadTime <= 0 {
		leadTime = DefaultLeadTime
	}
	return &Poller{
		store:    store,
		resolver: res,
		sender:   sender,
		logger:   logger,
		leadTime: leadTime,
		notified: newNotifiedSet(opts.NotifiedCap),
	}
}

// Tick runs one poll pass: query tasks due in [now, now+lead), notify the
// owners not yet notified, record what was dispatched. Returns the number of
// notifications dispatched. A query failure aborts the whole tick; per-task
// failures are logged and skipped. Overlapping ticks are skipped, never run
// concurrently. A panic inside a collaborator is logged and swallowed; the
// next tick runs normally.
func (p *Poller) Tick(ctx context.Context, now time.Time) (dispatched int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("watcher_tick_panic", "panic", fmt.Sprint(rec))
			dispatched, err = 0, nil
		}
	}()
	if !p.state.Start() {
		p.logger.Warn("watcher_tick_skipped", "reason", "already_running")
		return 0, nil
	}
	defer p.state.End()

	tickID := uuid.NewString()
	now = now.UTC()
	p.mu.Lock()
	p.lastTick = now
	p.mu.Unlock()
	windowEnd := now.Add(p.leadTime)

	if pruned := p.notified.Prune(now); pruned > 0 {
		p.logger.Debug("watcher_notified_pruned", "tick_id", tickID, "pruned", pruned)
	}

	tasks, err := p.store.FindDueSoon(ctx, now, windowEnd)
	if err != nil {
		p.logger.Warn("watcher_query_failed", "tick_id", tickID, "error", err.Error())
		return 0, fmt.Errorf("find due tasks: %w", err)
	}
	p.logger.Debug("watcher_tick", "tick_id", tickID, "due_tasks", len(tasks))

	for _, task := range tasks {
		if p.notified.Has(task.ID) {
			continue
		}
		if p.notifyOne(ctx, tickID, task) {
			p.notified.Add(task.ID, task.DueAt)
			dispatched++
		}
	}

	if p.notified.EnforceCap() {
		p.logger.Info("watcher_notified_cleared", "tick_id", tickID)
	}
	return dispatched, nil
}

func (p *Poller) notifyOne(ctx context.Context, tickID string, task Task) bool {
	owner, ok, err := p.resolver.ResolveByID(ctx, task.OwnerUserID)
	if err != nil {
		p.logger.Warn("watcher_owner_lookup_failed",
			"tick_id", tickID,
			"task_id", task.ID,
			"user_id", task.OwnerUserID,
			"error", err.Error(),
		)
		return false
	}
	if !ok || !owner.NotificationsEnabled {
		// Expected: unresolvable owners and opted-out users are skipped
		// silently.
		p.logger.Debug("watcher_task_skipped", "tick_id", tickID, "task_id", task.ID, "notifiable", ok)
		return false
	}

	address := phone.CanonicalWhatsApp(owner.PhoneNumber)
	if address == "" {
		p.logger.Warn("watcher_owner_without_phone", "tick_id", tickID, "task_id", task.ID, "user_id", owner.UserID)
		return false
	}

	text := formatNotification(owner, task, p.leadTime)
	if err := p.sender.SendText(ctx, address, text); err != nil {
		p.logger.Warn("watcher_send_failed", "tick_id", tickID, "task_id", task.ID, "error", err.Error())
		return false
	}
	p.logger.Info("watcher_notified", "tick_id", tickID, "task_id", task.ID, "user_id", owner.UserID)
	return true
}

func formatNotification(owner directory.Identity, task Task, leadTime time.Duration) string {
	greeting := strings.TrimSpace(strings.Join([]string{
		strings.TrimSpace(owner.FormOfAddress),
		strings.TrimSpace(owner.DisplayName),
	}, " "))
	if greeting == "" {
		greeting = "usuário"
	}
	project := strings.TrimSpace(task.ProjectName)
	if project == "" {
		project = "Sem projeto"
	}
	due := task.DueAt.In(brasilia).Format("02/01/2006 15:04")

	var b strings.Builder
	fmt.Fprintf(&b, "Olá %s, você tem a seguinte tarefa vencendo em %d minutos:\n\n", greeting, int(leadTime.Minutes()))
	fmt.Fprintf(&b, "*%s*\n\n", strings.TrimSpace(task.Title))
	fmt.Fprintf(&b, "Essa é uma tarefa do projeto: *%s*\n", project)
	fmt.Fprintf(&b, "Vencimento: %s", due)
	return b.String()
}

// NotifiedLen reports the current dedup-set size, for the status endpoint.
func (p *Poller) NotifiedLen() int {
	return p.notified.Len()
}

// LastTick reports when the most recent poll pass started, zero before the
// first tick.
func (p *Poller) LastTick() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastTick
}

// Run ticks immediately and then on a fixed interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if _, err := p.Tick(ctx, time.Now()); err != nil && ctx.Err() == nil {
		p.logger.Warn("watcher_tick_failed", "error", err.Error())
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := p.Tick(ctx, now); err != nil && ctx.Err() == nil {
				p.logger.Warn("watcher_tick_failed", "error", err.Error())
			}
		}
	}
}
