package adapter

import (
	"strings"
	"time"

	"github.com/kapu/conference-companion-go/internal/domain"
	"github.com/kapu/conference-companion-go/internal/util"
)

// ScheduleCardBuilder projects normalized events into per-day schedule cards.
// It holds no state besides the display location and is safe for concurrent use.
type ScheduleCardBuilder struct {
	loc *time.Location
}

// NewScheduleCardBuilder renders card times in loc (UTC when nil).
func NewScheduleCardBuilder(loc *time.Location) *ScheduleCardBuilder {
	if loc == nil {
		loc = time.UTC
	}
	return &ScheduleCardBuilder{loc: loc}
}

// BuildScheduleCards returns the cards of one day ordered by start time. Events
// with equal start times keep their input order. Event types without a card
// layout are left out, so the result may be shorter than the day's events.
func (b *ScheduleCardBuilder) BuildScheduleCards(events []*domain.ScheduledEvent, day domain.Day) []domain.ScheduleCard {
	byDay := util.GroupBy(util.Compact(events), func(ev *domain.ScheduledEvent) domain.Day { return ev.Day })
	ordered := util.SortByTime(byDay[day], func(ev *domain.ScheduledEvent) time.Time { return ev.Start })

	cards := make([]*domain.ScheduleCard, 0, len(ordered))
	for _, ev := range ordered {
		cards = append(cards, b.project(ev))
	}

	out := make([]domain.ScheduleCard, 0, len(cards))
	for _, card := range util.Compact(cards) {
		out = append(out, *card)
	}
	return out
}

// BuildAll builds the cards of every conference day.
func (b *ScheduleCardBuilder) BuildAll(events []*domain.ScheduledEvent) map[domain.Day][]domain.ScheduleCard {
	out := make(map[domain.Day][]domain.ScheduleCard, len(domain.ConferenceDays))
	for _, day := range domain.ConferenceDays {
		out[day] = b.BuildScheduleCards(events, day)
	}
	return out
}

func (b *ScheduleCardBuilder) project(ev *domain.ScheduledEvent) *domain.ScheduleCard {
	switch ev.Type {
	case domain.EventTypeRecurring, domain.EventTypeSponsored:
		return b.recurringCard(ev)
	case domain.EventTypeTalk, domain.EventTypeLightningTalk, domain.EventTypeKeynote:
		return b.talkCard(ev, talkSpeakers(ev))
	case domain.EventTypeTriviaShow:
		return b.talkCard(ev, ev.ShowSpeakers)
	case domain.EventTypeWorkshop:
		return b.workshopCard(ev)
	default:
		return nil
	}
}

func (b *ScheduleCardBuilder) baseCard(ev *domain.ScheduledEvent, variant domain.CardVariant) *domain.ScheduleCard {
	start, end := util.FormatTimeRange(ev.Start, ev.End, b.loc)
	return &domain.ScheduleCard{
		ID:                 ev.ID,
		Variant:            variant,
		Type:               ev.Type,
		Day:                ev.Day,
		Start:              ev.Start,
		FormattedStartTime: start,
		FormattedEndTime:   end,
		Photos:             []string{},
	}
}

func (b *ScheduleCardBuilder) recurringCard(ev *domain.ScheduledEvent) *domain.ScheduleCard {
	card := b.baseCard(ev, domain.CardVariantRecurring)
	card.Heading = ev.Name
	card.Subheading = ev.Description

	if rec := ev.RecurringEvent; rec != nil {
		card.Heading = util.FirstNonEmpty(rec.Name, ev.Name)
		card.Subheading = util.FirstNonEmpty(rec.Description, ev.Description)
		if rec.Sponsor != nil && rec.Sponsor.Logo != nil {
			card.Photos = append(card.Photos, rec.Sponsor.Logo.URL)
		}
	}

	promo := ev.Promo
	card.Promo = &promo
	return card
}

// talkSpeakers prefers the talk's own speakers over the ones set on the slot.
func talkSpeakers(ev *domain.ScheduledEvent) []*domain.Speaker {
	if ev.Talk != nil && len(ev.Talk.Speakers) > 0 {
		return ev.Talk.Speakers
	}
	return ev.Speakers
}

// talkCard keeps photos aligned with the speaker names, so a speaker without a
// photo contributes "". Speakers without a name contribute neither.
func (b *ScheduleCardBuilder) talkCard(ev *domain.ScheduledEvent, speakers []*domain.Speaker) *domain.ScheduleCard {
	card := b.baseCard(ev, domain.CardVariantTalk)

	names := make([]string, 0, len(speakers))
	for _, sp := range util.Compact(speakers) {
		name := strings.TrimSpace(sp.Name)
		if name == "" {
			continue
		}
		names = append(names, name)
		card.Photos = append(card.Photos, sp.PhotoURL())
	}

	title := ev.Name
	if ev.Talk != nil {
		title = util.FirstNonEmpty(ev.Talk.Name, ev.Name)
	}

	card.Heading = strings.Join(names, ", ")
	if card.Heading == "" {
		card.Heading = title
	} else {
		card.Subheading = title
	}
	return card
}

func (b *ScheduleCardBuilder) workshopCard(ev *domain.ScheduledEvent) *domain.ScheduleCard {
	card := b.baseCard(ev, domain.CardVariantWorkshop)
	card.Heading = ev.Name

	w := ev.Workshop
	if w == nil {
		return card
	}
	card.Heading = util.FirstNonEmpty(w.Name, ev.Name)

	instructors := util.Compact(w.Instructors)
	if len(instructors) == 0 && w.Instructor != nil {
		instructors = []*domain.Speaker{w.Instructor}
	}

	names := make([]string, 0, len(instructors))
	for _, sp := range instructors {
		names = append(names, sp.Name)
		if url := sp.PhotoURL(); url != "" {
			card.Photos = append(card.Photos, url)
		}
	}
	card.Subheading = util.JoinNonEmpty(names, ", ")
	return card
}
