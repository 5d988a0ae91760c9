package borrower

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"loanflow/broker"
	"loanflow/events"
	"loanflow/metrics"
	"loanflow/notification"
)

// DefaultActionDelay is the simulated latency of a status transition.
const DefaultActionDelay = time.Second

// Snapshot is a point-in-time copy of a dashboard. It shares no memory with
// the dashboard that produced it.
type Snapshot struct {
	ActiveTab     Bucket          `json:"active_tab"`
	Active        *Detail         `json:"active_borrower"`
	CanEscalate   bool            `json:"can_escalate"`
	Pipeline      Pipeline        `json:"pipeline"`
	Broker        broker.Overview `json:"broker"`
	WorkflowSteps []string        `json:"workflow_steps"`
	UnreadCount   int             `json:"unread_count"`
}

// Dashboard is the pipeline state of one browsing session. Its methods are
// safe for concurrent use and run one at a time.
type Dashboard struct {
	mu sync.Mutex

	provider    Provider
	cache       *DetailCache
	notices     *notification.Log
	publisher   events.Publisher
	metrics     *metrics.Recorder
	log         *zap.Logger
	actionDelay time.Duration
	idGenerator func() string

	activeTab Bucket
	active    *Detail
	pipeline  Pipeline
	broker    broker.Overview
	workflow  []string
}

// NewDashboard wires a dashboard over provider and a session-scoped cache.
func NewDashboard(provider Provider, cache *DetailCache) *Dashboard {
	return &Dashboard{
		provider:    provider,
		cache:       cache,
		notices:     notification.NewLog(notification.DefaultCapacity),
		publisher:   events.NoopPublisher{},
		metrics:     metrics.Nop(),
		log:         zap.NewNop(),
		actionDelay: DefaultActionDelay,
		idGenerator: uuid.NewString,
		activeTab:   BucketNew,
		pipeline:    NewPipeline(nil),
	}
}

// WithActionDelay overrides the transition latency.
func (d *Dashboard) WithActionDelay(delay time.Duration) *Dashboard {
	d.actionDelay = delay
	return d
}

func (d *Dashboard) WithLogger(l *zap.Logger) *Dashboard {
	if l != nil {
		d.log = l
	}
	return d
}

func (d *Dashboard) WithMetrics(m *metrics.Recorder) *Dashboard {
	if m != nil {
		d.metrics = m
	}
	return d
}

func (d *Dashboard) WithPublisher(p events.Publisher) *Dashboard {
	if p != nil {
		d.publisher = p
	}
	return d
}

// WithIDGenerator overrides the id source for added borrowers.
func (d *Dashboard) WithIDGenerator(gen func() string) *Dashboard {
	d.idGenerator = gen
	return d
}

// WithNotifications replaces the notification log.
func (d *Dashboard) WithNotifications(l *notification.Log) *Dashboard {
	if l != nil {
		d.notices = l
	}
	return d
}

// Notifications exposes the session's notification log.
func (d *Dashboard) Notifications() *notification.Log {
	return d.notices
}

// Load is a page load. It opens the cache, which discards details cached
// before a reload, resets the view and fetches the pipeline, broker overview
// and workflow concurrently. The first borrower in the new bucket becomes
// active. A failed fetch leaves the previous state in place.
func (d *Dashboard) Load(ctx context.Context) (Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fresh, err := d.cache.Open(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	var (
		pipeline Pipeline
		overview broker.Overview
		workflow []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := d.provider.FetchPipeline(gctx)
		if err != nil {
			return fmt.Errorf("borrower: fetch pipeline: %w", err)
		}
		pipeline = p
		return nil
	})
	g.Go(func() error {
		o, err := d.provider.FetchBrokerInfo(gctx)
		if err != nil {
			return fmt.Errorf("borrower: fetch broker: %w", err)
		}
		overview = o
		return nil
	})
	g.Go(func() error {
		w, err := d.provider.FetchWorkflowSteps(gctx)
		if err != nil {
			return fmt.Errorf("borrower: fetch workflow: %w", err)
		}
		workflow = w
		return nil
	})
	if err := g.Wait(); err != nil {
		d.log.Error("dashboard load failed", zap.Error(err))
		return Snapshot{}, err
	}

	d.pipeline = pipeline
	d.broker = overview
	d.workflow = workflow
	d.activeTab = BucketNew
	d.active = nil
	d.notices.Clear()

	if first := pipeline.Bucket(BucketNew); len(first) > 0 {
		if err := d.selectLocked(ctx, first[0].ID); err != nil {
			d.log.Error("select first borrower", zap.String("borrower_id", first[0].ID), zap.Error(err))
			return Snapshot{}, err
		}
	}

	d.log.Debug("dashboard loaded", zap.Bool("fresh", fresh), zap.Int("borrowers", pipeline.Len()))
	return d.snapshotLocked(), nil
}

// Unload is the page going away. The next Load starts with an empty cache.
func (d *Dashboard) Unload(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cache.Close(ctx)
}

// Select makes id the active borrower, from the cache when possible.
func (d *Dashboard) Select(ctx context.Context, id string) (Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.selectLocked(ctx, id); err != nil {
		return Snapshot{}, err
	}
	return d.snapshotLocked(), nil
}

func (d *Dashboard) selectLocked(ctx context.Context, id string) error {
	detail, ok, err := d.cache.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		detail, err = d.provider.FetchDetail(ctx, id)
		if err != nil {
			return err
		}
		if err := d.cache.Put(ctx, detail); err != nil {
			return err
		}
	}
	d.active = &detail
	return nil
}

// SetActiveTab switches the visible bucket.
func (d *Dashboard) SetActiveTab(tab Bucket) (Snapshot, error) {
	if _, err := ParseBucket(string(tab)); err != nil {
		return Snapshot{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.activeTab = tab
	return d.snapshotLocked(), nil
}

// Snapshot returns the current state.
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Dashboard) snapshotLocked() Snapshot {
	s := Snapshot{
		ActiveTab:     d.activeTab,
		Pipeline:      NewPipeline(d.pipeline.Rows()),
		Broker:        d.broker,
		WorkflowSteps: append([]string(nil), d.workflow...),
		UnreadCount:   d.notices.UnreadCount(),
	}
	if d.active != nil {
		active := d.active.Clone()
		s.Active = &active
		s.CanEscalate = EscalationEligible(active)
	}
	return s
}

// AddBorrower validates in, caches the new record and appends it to the new
// bucket.
func (d *Dashboard) AddBorrower(ctx context.Context, in NewBorrower) (Detail, Snapshot, error) {
	if err := validateNew(in); err != nil {
		return Detail{}, Snapshot{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	detail := in.detail(d.idGenerator())
	if err := d.cache.Put(ctx, detail); err != nil {
		return Detail{}, Snapshot{}, err
	}
	d.pipeline = d.pipeline.Append(Summary{
		ID:       detail.ID,
		Name:     detail.Name,
		LoanType: DefaultLoanType,
		Amount:   detail.LoanAmount,
		Status:   StatusNew,
	}, BucketNew)

	d.notifyLocked(
		fmt.Sprintf("New borrower added: %s", detail.Name),
		fmt.Sprintf("Loan amount: %s", FormatAmount(detail.LoanAmount)),
	)
	d.publishLocked(ctx, events.TopicBorrowerAdded, events.BorrowerAdded{
		BorrowerID: detail.ID,
		Name:       detail.Name,
		LoanAmount: detail.LoanAmount,
	})
	d.log.Info("borrower added", zap.String("borrower_id", detail.ID))

	return detail.Clone(), d.snapshotLocked(), nil
}

// FilterChanged records a change of the active/inactive filter.
func (d *Dashboard) FilterChanged(value string) notification.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notifyLocked(
		fmt.Sprintf("Filter changed to: %s", value),
		"This would filter borrowers by active/inactive status",
	)
}

// Help records a help request.
func (d *Dashboard) Help() notification.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notifyLocked("Help & Support", "User guide, tutorials, live chat, and phone support available")
}

// ContactBroker records an outreach to the loaded broker.
func (d *Dashboard) ContactBroker(method string) (notification.Notification, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	msg, err := broker.Contact(d.broker, method)
	if err != nil {
		return notification.Notification{}, err
	}
	return d.notifyLocked(msg.Title, msg.Description), nil
}

// ToggleAssistant records the AI assistant being switched.
func (d *Dashboard) ToggleAssistant(enabled bool) notification.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	msg := broker.ToggleAssistant(enabled)
	return d.notifyLocked(msg.Title, msg.Description)
}

func (d *Dashboard) notifyLocked(title, description string) notification.Notification {
	d.metrics.Notifications.Inc()
	return d.notices.Add(title, description)
}

func (d *Dashboard) publishLocked(ctx context.Context, topic string, event any) {
	if err := d.publisher.Publish(ctx, topic, event); err != nil {
		d.log.Error("publish dashboard event", zap.String("topic", topic), zap.Error(err))
	}
}
