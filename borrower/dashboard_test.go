package borrower

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"loanflow/broker"
	"loanflow/events"
	"loanflow/metrics"
	"loanflow/notification"
	"loanflow/session"
	"loanflow/validation"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type failingProvider struct {
	*FixtureProvider
	err error
}

func (p failingProvider) FetchBrokerInfo(context.Context) (broker.Overview, error) {
	return broker.Overview{}, p.err
}

type testDashboard struct {
	*Dashboard
	store     *session.MemoryStore
	publisher *recordingPublisher
	metrics   *metrics.Recorder
}

func newTestDashboard(t *testing.T) testDashboard {
	t.Helper()
	store := session.NewMemoryStore(0)
	pub := &recordingPublisher{}
	rec := metrics.New(prometheus.NewRegistry())
	next := 0
	d := NewDashboard(NewFixtureProvider(0), NewDetailCache(session.Scoped(store, "s1"))).
		WithActionDelay(0).
		WithLogger(zaptest.NewLogger(t)).
		WithPublisher(pub).
		WithMetrics(rec).
		WithIDGenerator(func() string {
			next++
			return fmt.Sprintf("b-%d", next)
		})
	return testDashboard{Dashboard: d, store: store, publisher: pub, metrics: rec}
}

func loaded(t *testing.T) testDashboard {
	t.Helper()
	d := newTestDashboard(t)
	if _, err := d.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return d
}

func validNewBorrower() NewBorrower {
	return NewBorrower{
		Name:          "Jane Roe",
		Email:         "jane@example.com",
		Phone:         "0412345678",
		LoanAmount:    300000,
		Employment:    "Engineer",
		Income:        150000,
		ExistingLoan:  0,
		CreditScore:   800,
		SourceOfFunds: "Savings",
	}
}

func TestDashboard_LoadSelectsFirstNewBorrower(t *testing.T) {
	d := loaded(t)
	snap := d.Snapshot()

	if snap.ActiveTab != BucketNew {
		t.Fatalf("expected new tab, got %s", snap.ActiveTab)
	}
	if snap.Active == nil || snap.Active.ID != "1" || snap.Active.Name != "Sarah Dunn" {
		t.Fatalf("expected Sarah Dunn active, got %+v", snap.Active)
	}
	if snap.Broker.Name != "Robert Turner" || len(snap.WorkflowSteps) != 7 {
		t.Fatalf("unexpected broker data %+v %v", snap.Broker, snap.WorkflowSteps)
	}
	if !snap.CanEscalate {
		t.Fatal("fixture borrower carries flags and should be escalatable")
	}
	if snap.Pipeline.Len() != 3 {
		t.Fatalf("expected 3 borrowers, got %d", snap.Pipeline.Len())
	}
}

func TestDashboard_LoadFailureKeepsState(t *testing.T) {
	store := session.NewMemoryStore(0)
	d := NewDashboard(failingProvider{NewFixtureProvider(0), errors.New("boom")}, NewDetailCache(store))

	if _, err := d.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if snap := d.Snapshot(); snap.Active != nil || snap.Pipeline.Len() != 0 {
		t.Fatalf("expected untouched state, got %+v", snap)
	}
}

func TestDashboard_SearchAlan(t *testing.T) {
	d := loaded(t)

	res, err := d.Search(context.Background(), "  alan ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Outcome != SearchMatched || res.Bucket != BucketInReview {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Snapshot.ActiveTab != BucketInReview || res.Snapshot.Active.Name != "Alan Matthews" {
		t.Fatalf("expected Alan active on in_review, got %s / %+v", res.Snapshot.ActiveTab, res.Snapshot.Active)
	}
	items := d.Notifications().List()
	if len(items) != 1 || items[0].Title != "🔎 Found borrower: Alan Matthews" || items[0].Description != "Jumped to in review" {
		t.Fatalf("unexpected notifications %+v", items)
	}
}

func TestDashboard_SearchMissEchoesQueryVerbatim(t *testing.T) {
	d := loaded(t)

	query := "say \"hi\" \u00e9\t"
	res, err := d.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if want := "Query: \"" + query + "\""; res.Notice.Description != want {
		t.Fatalf("expected description %q, got %q", want, res.Notice.Description)
	}
}

func TestDashboard_SearchMissAndEmptyChangeNothing(t *testing.T) {
	d := loaded(t)
	before := d.Snapshot()

	res, err := d.Search(context.Background(), "zzz")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Outcome != SearchMiss || res.Notice.Title != "No borrowers found" || res.Notice.Description != `Query: "zzz"` {
		t.Fatalf("unexpected miss result %+v", res.Notice)
	}

	res, err = d.Search(context.Background(), "   ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Outcome != SearchEmpty || res.Notice.Title != "Enter something to search" {
		t.Fatalf("unexpected empty result %+v", res.Notice)
	}

	after := d.Snapshot()
	if after.ActiveTab != before.ActiveTab || after.Active.ID != before.Active.ID || after.Pipeline.Len() != before.Pipeline.Len() {
		t.Fatalf("state changed: before %+v after %+v", before, after)
	}
	if d.Notifications().Len() != 0 {
		t.Fatalf("expected no notifications, got %d", d.Notifications().Len())
	}
	if got := testutil.ToFloat64(d.metrics.Searches.WithLabelValues(SearchMiss)); got != 1 {
		t.Fatalf("expected one miss counted, got %v", got)
	}
}

func TestDashboard_ApproveAlan(t *testing.T) {
	d := loaded(t)
	ctx := context.Background()

	if _, err := d.Select(ctx, "2"); err != nil {
		t.Fatalf("select: %v", err)
	}
	snap, err := d.Approve(ctx, "2")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	for _, s := range snap.Pipeline.Bucket(BucketInReview) {
		if s.ID == "2" {
			t.Fatal("id 2 still in review")
		}
	}
	approved := snap.Pipeline.Bucket(BucketApproved)
	if len(approved) != 1 || approved[0].ID != "2" || approved[0].Status != StatusApproved ||
		approved[0].LoanType != DefaultLoanType || approved[0].Amount != 20000 {
		t.Fatalf("unexpected approved bucket %+v", approved)
	}
	if snap.Active.Status != StatusApproved {
		t.Fatalf("expected active detail approved, got %s", snap.Active.Status)
	}

	items := d.Notifications().List()
	if items[0].Title != "🎉 Loan approved for Alan Matthews!" || items[0].Description != "Amount: $20,000" {
		t.Fatalf("unexpected notification %+v", items[0])
	}

	ev, ok := d.publisher.events[len(d.publisher.events)-1].(events.BorrowerTransitioned)
	if !ok || ev.NextStatus != "Approved" || ev.PreviousStatus != "In Review" || ev.Bucket != "approved" {
		t.Fatalf("unexpected event %+v", d.publisher.events)
	}
	if got := testutil.ToFloat64(d.metrics.Transitions.WithLabelValues("approve")); got != 1 {
		t.Fatalf("expected one approve counted, got %v", got)
	}

	if _, err := d.RequestDocuments(ctx, "2"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected approved borrower to reject further actions, got %v", err)
	}
}

func TestDashboard_MoveToReviewSwitchesTab(t *testing.T) {
	d := loaded(t)

	snap, err := d.MoveToReview(context.Background(), "1")
	if err != nil {
		t.Fatalf("move to review: %v", err)
	}
	if snap.ActiveTab != BucketInReview {
		t.Fatalf("expected in_review tab, got %s", snap.ActiveTab)
	}
	b, s, _ := snap.Pipeline.Locate("1")
	if b != BucketInReview || s.Status != StatusInReview {
		t.Fatalf("expected id 1 in review, got %s %+v", b, s)
	}
	if countID(snap.Pipeline, "1") != 1 {
		t.Fatal("id 1 duplicated")
	}

	if _, err := d.MoveToReview(context.Background(), "1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected second move to be rejected, got %v", err)
	}
}

func TestDashboard_SubStatusRelabelsInPlace(t *testing.T) {
	d := loaded(t)
	ctx := context.Background()

	snap, err := d.RequestDocuments(ctx, "1")
	if err != nil {
		t.Fatalf("request documents: %v", err)
	}
	b, s, _ := snap.Pipeline.Locate("1")
	if b != BucketNew || s.Status != StatusDocumentsRequested {
		t.Fatalf("expected relabel in new, got %s %+v", b, s)
	}
	flags := snap.Active.AIFlags
	if flags[len(flags)-1] != "Documents requested from borrower" {
		t.Fatalf("expected documents flag, got %v", flags)
	}

	snap, err = d.SendToValuer(ctx, "1")
	if err != nil {
		t.Fatalf("send to valuer: %v", err)
	}
	if snap.Active.Status != StatusWithValuer || len(snap.Active.AIFlags) != 4 {
		t.Fatalf("unexpected detail %+v", snap.Active)
	}

	snap, err = d.Escalate(ctx, "1")
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if _, s, _ := snap.Pipeline.Locate("1"); s.Status != StatusCreditCommittee {
		t.Fatalf("expected credit committee label, got %+v", s)
	}

	cached, ok, err := NewDetailCache(session.Scoped(d.store, "s1")).Get(ctx, "1")
	if err != nil || !ok || cached.Status != StatusCreditCommittee {
		t.Fatalf("expected transition persisted to cache, got %+v %v %v", cached, ok, err)
	}
}

func TestDashboard_EscalateRequiresEligibility(t *testing.T) {
	d := loaded(t)
	ctx := context.Background()

	added, _, err := d.AddBorrower(ctx, validNewBorrower())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	snap, err := d.Select(ctx, added.ID)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if snap.CanEscalate {
		t.Fatal("clean borrower should not be escalatable")
	}
	if _, err := d.Escalate(ctx, added.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if got := testutil.ToFloat64(d.metrics.TransitionRejections.WithLabelValues("escalate")); got != 1 {
		t.Fatalf("expected rejection counted, got %v", got)
	}
}

func TestDashboard_TransitionOnInactiveBorrower(t *testing.T) {
	d := loaded(t)
	notices := d.Notifications().Len()

	if _, err := d.Approve(context.Background(), "3"); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
	if d.Notifications().Len() != notices {
		t.Fatal("rejected transition added a notification")
	}
	if _, s, _ := d.Snapshot().Pipeline.Locate("3"); s.Status != StatusNew {
		t.Fatalf("inactive borrower changed: %+v", s)
	}
}

func TestDashboard_TransitionCancelledLeavesState(t *testing.T) {
	d := loaded(t)
	d.WithActionDelay(DefaultActionDelay)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Approve(ctx, "1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if snap := d.Snapshot(); snap.Active.Status != StatusNew || len(snap.Pipeline.Bucket(BucketApproved)) != 0 {
		t.Fatalf("cancelled transition mutated state: %+v", snap)
	}
}

func TestDashboard_UnknownAction(t *testing.T) {
	d := loaded(t)
	if _, err := d.Apply(context.Background(), Action("archive"), "1"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	if _, err := ParseAction("archive"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ParseAction to reject, got %v", err)
	}
}

func TestDashboard_AddBorrower(t *testing.T) {
	d := loaded(t)

	added, snap, err := d.AddBorrower(context.Background(), validNewBorrower())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.ID != "b-1" || added.Status != StatusNew || added.RiskSignal != NoRiskSignal || len(added.AIFlags) != 0 {
		t.Fatalf("unexpected detail %+v", added)
	}

	rows := snap.Pipeline.Bucket(BucketNew)
	last := rows[len(rows)-1]
	if last.ID != "b-1" || last.Status != StatusNew || last.LoanType != DefaultLoanType || last.Amount != 300000 {
		t.Fatalf("unexpected summary %+v", last)
	}

	items := d.Notifications().List()
	if len(items) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(items))
	}
	if items[0].Title != "New borrower added: Jane Roe" || items[0].Description != "Loan amount: $300,000" {
		t.Fatalf("unexpected notification %+v", items[0])
	}
	if d.publisher.topics[len(d.publisher.topics)-1] != events.TopicBorrowerAdded {
		t.Fatalf("expected borrower added event, got %v", d.publisher.topics)
	}
}

func TestDashboard_AddBorrowerValidation(t *testing.T) {
	d := loaded(t)
	in := validNewBorrower()
	in.Name = "J"
	in.CreditScore = 900
	in.LoanAmount = 10

	_, _, err := d.AddBorrower(context.Background(), in)
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Fields["name"] != "Name must be at least 2 characters" ||
		verr.Fields["credit_score"] != "Credit score must be between 300-850" ||
		verr.Fields["loan_amount"] != "Loan amount must be at least $1,000" {
		t.Fatalf("unexpected messages %+v", verr.Fields)
	}
	if d.Snapshot().Pipeline.Len() != 3 || d.Notifications().Len() != 0 {
		t.Fatal("invalid borrower changed state")
	}
}

func TestDashboard_ReloadClearsCacheNavigationKeeps(t *testing.T) {
	d := loaded(t)
	ctx := context.Background()

	if _, err := d.Select(ctx, "2"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := d.SendToValuer(ctx, "2"); err != nil {
		t.Fatalf("send to valuer: %v", err)
	}

	// Navigation: load again without unloading.
	if _, err := d.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	snap, err := d.Select(ctx, "2")
	if err != nil {
		t.Fatalf("select after navigation: %v", err)
	}
	if snap.Active.Status != StatusWithValuer {
		t.Fatalf("expected cached status after navigation, got %s", snap.Active.Status)
	}

	// Full reload.
	if err := d.Unload(ctx); err != nil {
		t.Fatalf("unload: %v", err)
	}
	if _, err := d.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	snap, err = d.Select(ctx, "2")
	if err != nil {
		t.Fatalf("select after reload: %v", err)
	}
	if snap.Active.Status != StatusInReview {
		t.Fatalf("expected fixture status after reload, got %s", snap.Active.Status)
	}
}

func TestDashboard_NotificationsCapped(t *testing.T) {
	d := loaded(t)
	for i := 0; i < 15; i++ {
		d.FilterChanged(fmt.Sprintf("v%d", i))
	}
	items := d.Notifications().List()
	if len(items) != notification.DefaultCapacity {
		t.Fatalf("expected %d notifications, got %d", notification.DefaultCapacity, len(items))
	}
	if items[0].Title != "Filter changed to: v14" {
		t.Fatalf("expected newest first, got %q", items[0].Title)
	}
	if d.Snapshot().UnreadCount != notification.DefaultCapacity {
		t.Fatalf("unexpected unread count %d", d.Snapshot().UnreadCount)
	}
}

func TestDashboard_MenuActions(t *testing.T) {
	d := loaded(t)

	if n := d.Help(); n.Title != "Help & Support" {
		t.Fatalf("unexpected help notification %+v", n)
	}
	n, err := d.ContactBroker(broker.ContactEmail)
	if err != nil || n.Title != "📧 Opening email to Robert Turner..." {
		t.Fatalf("unexpected contact notification %+v / %v", n, err)
	}
	if _, err := d.ContactBroker("pigeon"); !errors.Is(err, broker.ErrUnknownContactMethod) {
		t.Fatalf("expected ErrUnknownContactMethod, got %v", err)
	}
	if n := d.ToggleAssistant(true); n.Title != "🤖 AI Assistant activated!" {
		t.Fatalf("unexpected assistant notification %+v", n)
	}
	if d.Notifications().Len() != 3 {
		t.Fatalf("expected 3 notifications, got %d", d.Notifications().Len())
	}
}

func TestDashboard_SetActiveTab(t *testing.T) {
	d := loaded(t)
	snap, err := d.SetActiveTab(BucketApproved)
	if err != nil || snap.ActiveTab != BucketApproved {
		t.Fatalf("unexpected result %s / %v", snap.ActiveTab, err)
	}
	if _, err := d.SetActiveTab(Bucket("archived")); !errors.Is(err, ErrUnknownBucket) {
		t.Fatalf("expected ErrUnknownBucket, got %v", err)
	}
}

func TestDashboard_SnapshotIsDetached(t *testing.T) {
	d := loaded(t)
	snap := d.Snapshot()
	snap.Active.AIFlags[0] = "changed"
	snap.WorkflowSteps[0] = "changed"

	again := d.Snapshot()
	if again.Active.AIFlags[0] == "changed" || again.WorkflowSteps[0] == "changed" {
		t.Fatal("snapshot shares memory with the dashboard")
	}
}

func TestDashboard_SelectUnknown(t *testing.T) {
	d := loaded(t)
	if _, err := d.Select(context.Background(), "404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if d.Snapshot().Active.ID != "1" {
		t.Fatal("failed select changed the active borrower")
	}
}

func TestRegistry(t *testing.T) {
	built := 0
	r := NewRegistry(func(string) *Dashboard {
		built++
		return NewDashboard(NewFixtureProvider(0), NewDetailCache(session.NewMemoryStore(0)))
	})

	a := r.Get("a")
	if r.Get("a") != a {
		t.Fatal("expected the same dashboard for a session")
	}
	if r.Get("b") == a {
		t.Fatal("sessions share a dashboard")
	}
	if built != 2 || r.Len() != 2 {
		t.Fatalf("expected 2 dashboards, built %d held %d", built, r.Len())
	}
	r.Drop("a")
	if r.Get("a") == a {
		t.Fatal("expected a fresh dashboard after drop")
	}
}

func TestRegistry_EvictsIdleSessions(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(func(string) *Dashboard {
		return NewDashboard(NewFixtureProvider(0), NewDetailCache(session.NewMemoryStore(0)))
	}).WithIdleTTL(time.Hour).WithClock(func() time.Time { return now })

	a := r.Get("a")
	r.Get("b")

	now = now.Add(40 * time.Minute)
	if r.Get("a") != a {
		t.Fatal("active session was evicted")
	}

	now = now.Add(30 * time.Minute)
	r.Get("c")
	if r.Len() != 2 {
		t.Fatalf("expected idle session b evicted, holding %d", r.Len())
	}
	if r.Get("a") != a {
		t.Fatal("session a seen 30m ago was evicted")
	}
}
