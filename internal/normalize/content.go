package normalize

import (
	"time"

	"github.com/kapu/conference-companion-go/internal/cms"
	"github.com/kapu/conference-companion-go/internal/domain"
)

// Content is every normalized collection of one refresh.
type Content struct {
	Schedule        []*domain.ScheduledEvent `json:"schedule"`
	Speakers        []*domain.Speaker        `json:"speakers"`
	Talks           []*domain.Talk           `json:"talks"`
	Workshops       []*domain.Workshop       `json:"workshops"`
	RecurringEvents []*domain.RecurringEvent `json:"recurring_events"`
	Sponsors        []*domain.Sponsor        `json:"sponsors"`
	Venues          []*domain.Venue          `json:"venues"`
	Recommendations []*domain.Recommendation `json:"recommendations"`
	FetchedAt       time.Time                `json:"fetched_at"`
}

// All runs the whole chain over one fetch. Dependants are built after the
// collections they reference, so a collection that failed to load only leaves
// the references into it unresolved.
func (n *Normalizer) All(raw *cms.RawContent) *Content {
	if raw == nil {
		raw = &cms.RawContent{}
	}

	speakers := n.Speakers(raw.Speakers)
	sponsors := n.Sponsors(raw.Sponsors)
	talks := n.Talks(TalksInput{Speakers: raw.Speakers, Talks: raw.Talks})
	workshops := n.Workshops(raw.Workshops, speakers)
	recurring := n.RecurringEvents(raw.RecurringEvents, sponsors)

	return &Content{
		Schedule:        n.Schedule(raw.Schedule, speakers, workshops, talks, recurring),
		Speakers:        speakers,
		Talks:           talks,
		Workshops:       workshops,
		RecurringEvents: recurring,
		Sponsors:        sponsors,
		Venues:          n.Venues(raw.Venues),
		Recommendations: n.Recommendations(raw.Recommendations),
		FetchedAt:       raw.FetchedAt,
	}
}
