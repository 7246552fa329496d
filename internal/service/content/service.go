// Package content runs the fetch -> normalize -> build pipeline and holds the
// latest immutable result for readers.
package content

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/conference-companion-go/internal/adapter"
	"github.com/kapu/conference-companion-go/internal/cms"
	"github.com/kapu/conference-companion-go/internal/domain"
	"github.com/kapu/conference-companion-go/internal/normalize"
	"github.com/kapu/conference-companion-go/pkg/errors"
)

// Fetcher loads raw CMS collections.
type Fetcher interface {
	FetchAll(ctx context.Context, bypassCache bool) *cms.RawContent
}

// Notifier is told about every successful refresh.
type Notifier interface {
	NotifyRefresh(ctx context.Context, event RefreshEvent) error
}

const EventContentRefreshed = "content_refreshed"

type RefreshEvent struct {
	Type        string         `json:"type"`
	Version     int64          `json:"version"`
	RefreshedAt time.Time      `json:"refreshed_at"`
	Failed      []string       `json:"failed,omitempty"`
	Stale       []string       `json:"stale,omitempty"`
	Counts      map[string]int `json:"counts"`
}

// Snapshot is one refresh result. It is never mutated after it is published.
type Snapshot struct {
	Version     int64                                `json:"version"`
	RefreshedAt time.Time                            `json:"refreshed_at"`
	Content     *normalize.Content                   `json:"-"`
	Cards       map[domain.Day][]domain.ScheduleCard `json:"-"`
	Failed      []cms.Collection                     `json:"failed,omitempty"`
	Stale       []cms.Collection                     `json:"stale,omitempty"`
}

type Service struct {
	fetcher    Fetcher
	normalizer *normalize.Normalizer
	builder    *adapter.ScheduleCardBuilder
	logger     *zap.Logger

	refreshMu sync.Mutex
	lastRaw   *cms.RawContent

	mu        sync.RWMutex
	snapshot  *Snapshot
	notifiers []Notifier
}

func NewService(fetcher Fetcher, normalizer *normalize.Normalizer, builder *adapter.ScheduleCardBuilder, logger *zap.Logger) *Service {
	return &Service{
		fetcher:    fetcher,
		normalizer: normalizer,
		builder:    builder,
		logger:     logger,
	}
}

func (s *Service) AddNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifiers = append(s.notifiers, n)
}

// Refresh fetches every collection and publishes a new snapshot. A collection
// that fails keeps its previous raw copy, so one CMS hiccup does not blank a
// screen. It fails only when nothing could be loaded at all.
func (s *Service) Refresh(ctx context.Context, bypassCache bool) (*Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	raw := s.fetcher.FetchAll(ctx, bypassCache)
	failed := raw.Failed()

	if len(failed) == len(cms.Collections) && s.lastRaw == nil {
		s.logger.Error("Content refresh failed, no collection could be loaded")
		return nil, errors.NewServiceError("no CMS collection could be loaded", "content", "refresh", raw.Errors[failed[0]])
	}

	merged := mergeRaw(s.lastRaw, raw)
	s.lastRaw = merged

	content := s.normalizer.All(merged)
	snap := &Snapshot{
		RefreshedAt: time.Now(),
		Content:     content,
		Cards:       s.builder.BuildAll(content.Schedule),
		Failed:      failed,
		Stale:       staleCollections(raw),
	}

	s.mu.Lock()
	if s.snapshot != nil {
		snap.Version = s.snapshot.Version + 1
	} else {
		snap.Version = 1
	}
	s.snapshot = snap
	notifiers := append([]Notifier(nil), s.notifiers...)
	s.mu.Unlock()

	s.logger.Info("Content refreshed",
		zap.Int64("version", snap.Version),
		zap.Int("events", len(content.Schedule)),
		zap.Int("speakers", len(content.Speakers)),
		zap.Int("sponsors", len(content.Sponsors)),
		zap.Int("failed", len(failed)),
		zap.Duration("took", time.Since(start)),
	)

	event := newRefreshEvent(snap)
	for _, n := range notifiers {
		if err := n.NotifyRefresh(ctx, event); err != nil {
			s.logger.Warn("Refresh notification failed", zap.Error(err))
		}
	}

	return snap, nil
}

// Snapshot returns the latest snapshot, or nil before the first refresh.
func (s *Service) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Current returns the latest snapshot or a 503 error when content is not loaded yet.
func (s *Service) Current() (*Snapshot, error) {
	snap := s.Snapshot()
	if snap == nil {
		return nil, errors.NewAppError("content is not loaded yet", errors.CodeService, 503, nil)
	}
	return snap, nil
}

// ScheduleCards returns the cards for a day label (case-insensitive).
func (s *Service) ScheduleCards(dayLabel string) ([]domain.ScheduleCard, error) {
	day, ok := domain.ParseDay(dayLabel)
	if !ok {
		return nil, errors.NewNotFoundError("day", dayLabel)
	}
	snap, err := s.Current()
	if err != nil {
		return nil, err
	}
	cards := snap.Cards[day]
	if cards == nil {
		cards = []domain.ScheduleCard{}
	}
	return cards, nil
}

// DaySummary counts the cards of one conference day.
type DaySummary struct {
	Day   domain.Day `json:"day"`
	Cards int        `json:"cards"`
}

// Days lists every conference day in order. Counts are zero before the first refresh.
func (s *Service) Days() []DaySummary {
	snap := s.Snapshot()
	out := make([]DaySummary, 0, len(domain.ConferenceDays))
	for _, d := range domain.ConferenceDays {
		summary := DaySummary{Day: d}
		if snap != nil {
			summary.Cards = len(snap.Cards[d])
		}
		out = append(out, summary)
	}
	return out
}

func newRefreshEvent(snap *Snapshot) RefreshEvent {
	c := snap.Content
	return RefreshEvent{
		Type:        EventContentRefreshed,
		Version:     snap.Version,
		RefreshedAt: snap.RefreshedAt,
		Failed:      collectionNames(snap.Failed),
		Stale:       collectionNames(snap.Stale),
		Counts: map[string]int{
			cms.CollectionSchedule.String():        len(c.Schedule),
			cms.CollectionSpeakers.String():        len(c.Speakers),
			cms.CollectionTalks.String():           len(c.Talks),
			cms.CollectionWorkshops.String():       len(c.Workshops),
			cms.CollectionRecurringEvents.String(): len(c.RecurringEvents),
			cms.CollectionSponsors.String():        len(c.Sponsors),
			cms.CollectionVenues.String():          len(c.Venues),
			cms.CollectionRecommendations.String(): len(c.Recommendations),
		},
	}
}

func collectionNames(cs []cms.Collection) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.String())
	}
	return out
}

func staleCollections(raw *cms.RawContent) []cms.Collection {
	var stale []cms.Collection
	for _, c := range cms.Collections {
		if raw.Stale[c] {
			stale = append(stale, c)
		}
	}
	return stale
}

// mergeRaw fills collections missing from next with the previous fetch.
func mergeRaw(prev, next *cms.RawContent) *cms.RawContent {
	merged := *next
	if prev == nil {
		return &merged
	}
	if merged.Schedule == nil {
		merged.Schedule = prev.Schedule
	}
	if merged.Speakers == nil {
		merged.Speakers = prev.Speakers
	}
	if merged.Talks == nil {
		merged.Talks = prev.Talks
	}
	if merged.Workshops == nil {
		merged.Workshops = prev.Workshops
	}
	if merged.RecurringEvents == nil {
		merged.RecurringEvents = prev.RecurringEvents
	}
	if merged.Sponsors == nil {
		merged.Sponsors = prev.Sponsors
	}
	if merged.Venues == nil {
		merged.Venues = prev.Venues
	}
	if merged.Recommendations == nil {
		merged.Recommendations = prev.Recommendations
	}
	return &merged
}
