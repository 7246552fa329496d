package content

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/conference-companion-go/internal/adapter"
	"github.com/kapu/conference-companion-go/internal/cms"
	"github.com/kapu/conference-companion-go/internal/domain"
	"github.com/kapu/conference-companion-go/internal/idmap"
	"github.com/kapu/conference-companion-go/internal/normalize"
	apperrors "github.com/kapu/conference-companion-go/pkg/errors"
)

type fakeFetcher struct {
	mu      sync.Mutex
	results []*cms.RawContent
	calls   int
	bypass  []bool
}

func (f *fakeFetcher) FetchAll(_ context.Context, bypassCache bool) *cms.RawContent {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := min(f.calls, len(f.results)-1)
	f.calls++
	f.bypass = append(f.bypass, bypassCache)
	return f.results[idx]
}

type recordingNotifier struct {
	events []RefreshEvent
	err    error
}

func (n *recordingNotifier) NotifyRefresh(_ context.Context, event RefreshEvent) error {
	n.events = append(n.events, event)
	return n.err
}

func dayID(t *testing.T, day domain.Day) string {
	t.Helper()
	id, ok := idmap.Default().IdentifierFor(idmap.CategoryScheduleDay, day.String())
	if !ok {
		t.Fatalf("no id for %s", day)
	}
	return id
}

func fullRaw(t *testing.T) *cms.RawContent {
	start := time.Date(2025, 4, 9, 15, 0, 0, 0, time.UTC)
	return &cms.RawContent{
		Schedule: []cms.RawScheduledEvent{
			{Item: cms.Item{ID: "e1", Name: "Opening"}, Day: dayID(t, domain.DayWednesday), DayTime: &start, Talk: "t1"},
		},
		Speakers:        []cms.RawSpeaker{{Item: cms.Item{ID: "s1", Name: "Ada"}}},
		Talks:           []cms.RawTalk{{Item: cms.Item{ID: "t1", Name: "Keynote"}, Speakers: []string{"s1"}}},
		Workshops:       []cms.RawWorkshop{},
		RecurringEvents: []cms.RawRecurringEvent{},
		Sponsors:        []cms.RawSponsor{{Item: cms.Item{ID: "sp1", Name: "Acme"}, IsCurrentSponsor: true}},
		Venues:          []cms.RawVenue{},
		Recommendations: []cms.RawRecommendation{},
		Errors:          map[cms.Collection]error{},
	}
}

func allFailed() *cms.RawContent {
	errs := make(map[cms.Collection]error)
	for _, c := range cms.Collections {
		errs[c] = fmt.Errorf("%s down", c)
	}
	return &cms.RawContent{Errors: errs}
}

func newTestService(fetcher Fetcher) *Service {
	return NewService(fetcher, normalize.New(nil), adapter.NewScheduleCardBuilder(time.UTC), zap.NewNop())
}

func TestRefreshBuildsSnapshotAndNotifies(t *testing.T) {
	fetcher := &fakeFetcher{results: []*cms.RawContent{fullRaw(t)}}
	notifier := &recordingNotifier{err: errors.New("ignored")}
	svc := newTestService(fetcher)
	svc.AddNotifier(notifier)

	snap, err := svc.Refresh(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Version != 1 {
		t.Fatalf("expected version 1, got %d", snap.Version)
	}

	cards := snap.Cards[domain.DayWednesday]
	if len(cards) != 1 || cards[0].Heading != "Ada" || cards[0].Subheading != "Keynote" {
		t.Fatalf("unexpected cards: %+v", cards)
	}
	if len(notifier.events) != 1 || notifier.events[0].Counts["speakers"] != 1 {
		t.Fatalf("unexpected notifications: %+v", notifier.events)
	}
	if svc.Snapshot() != snap {
		t.Fatalf("snapshot not published")
	}
}

func TestRefreshFailsWhenNothingLoads(t *testing.T) {
	svc := newTestService(&fakeFetcher{results: []*cms.RawContent{allFailed()}})

	if _, err := svc.Refresh(context.Background(), false); err == nil {
		t.Fatalf("expected error")
	}
	if svc.Snapshot() != nil {
		t.Fatalf("no snapshot should be published")
	}
	if _, err := svc.Current(); apperrors.StatusCodeOf(err) != 503 {
		t.Fatalf("expected 503 before first load, got %v", err)
	}
}

func TestRefreshKeepsPreviousCollectionOnFailure(t *testing.T) {
	partial := fullRaw(t)
	partial.Speakers = nil
	partial.Errors = map[cms.Collection]error{cms.CollectionSpeakers: errors.New("timeout")}

	fetcher := &fakeFetcher{results: []*cms.RawContent{fullRaw(t), partial}}
	svc := newTestService(fetcher)

	if _, err := svc.Refresh(context.Background(), false); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	snap, err := svc.Refresh(context.Background(), true)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	if snap.Version != 2 {
		t.Fatalf("expected version 2, got %d", snap.Version)
	}
	if len(snap.Content.Speakers) != 1 {
		t.Fatalf("previous speakers should be reused, got %d", len(snap.Content.Speakers))
	}
	if len(snap.Failed) != 1 || snap.Failed[0] != cms.CollectionSpeakers {
		t.Fatalf("unexpected failed list %v", snap.Failed)
	}
	if !fetcher.bypass[1] {
		t.Fatalf("bypass flag not forwarded")
	}
}

func TestRefreshWithFailedSpeakersOnFirstLoad(t *testing.T) {
	partial := fullRaw(t)
	partial.Speakers = nil
	partial.Errors = map[cms.Collection]error{cms.CollectionSpeakers: errors.New("timeout")}

	svc := newTestService(&fakeFetcher{results: []*cms.RawContent{partial}})
	snap, err := svc.Refresh(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cards := snap.Cards[domain.DayWednesday]
	if len(cards) != 1 || cards[0].Heading != "Keynote" {
		t.Fatalf("card should fall back to the talk title, got %+v", cards)
	}
}

func TestScheduleCards(t *testing.T) {
	svc := newTestService(&fakeFetcher{results: []*cms.RawContent{fullRaw(t)}})

	if _, err := svc.ScheduleCards("wednesday"); apperrors.StatusCodeOf(err) != 503 {
		t.Fatalf("expected 503 before load, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), false); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	cards, err := svc.ScheduleCards("wednesday")
	if err != nil || len(cards) != 1 {
		t.Fatalf("unexpected result %v %v", cards, err)
	}

	empty, err := svc.ScheduleCards("Friday")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty friday, got %v %v", empty, err)
	}

	_, err = svc.ScheduleCards("Sunday")
	var nf *apperrors.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDays(t *testing.T) {
	svc := newTestService(&fakeFetcher{results: []*cms.RawContent{fullRaw(t)}})

	before := svc.Days()
	if len(before) != len(domain.ConferenceDays) || before[0].Cards != 0 {
		t.Fatalf("unexpected days before load: %+v", before)
	}

	if _, err := svc.Refresh(context.Background(), false); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	after := svc.Days()
	if after[0].Day != domain.DayWednesday || after[0].Cards != 1 || after[1].Cards != 0 {
		t.Fatalf("unexpected days after load: %+v", after)
	}
}
