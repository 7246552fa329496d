package adapter

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/kapu/conference-companion-go/internal/domain"
	"github.com/kapu/conference-companion-go/internal/util"
)

type CalendarOptions struct {
	Name     string
	Domain   string // UID suffix, e.g. "conf.example.com"
	Location *time.Location
	Stamp    time.Time
}

// ExportICS renders the schedule as an iCalendar document. Events without a start
// time are skipped; events without an end are written without DTEND.
func ExportICS(events []*domain.ScheduledEvent, opts CalendarOptions) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//conference-companion//schedule//EN")
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	if opts.Location != nil {
		cal.SetXWRTimezone(opts.Location.String())
	}

	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}
	uidDomain := util.FirstNonEmpty(opts.Domain, "conference-companion")

	ordered := util.SortByTime(util.Compact(events), func(ev *domain.ScheduledEvent) time.Time { return ev.Start })
	for _, ev := range ordered {
		if ev.Start.IsZero() {
			continue
		}

		vevent := cal.AddEvent(ev.ID + "@" + uidDomain)
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(ev.Start)
		if ev.HasDistinctEnd() {
			vevent.SetEndAt(*ev.End)
		}
		if ev.UpdatedOn != nil {
			vevent.SetModifiedAt(*ev.UpdatedOn)
		}
		vevent.SetSummary(eventTitle(ev))
		if desc := eventDescription(ev); desc != "" {
			vevent.SetDescription(desc)
		}
		vevent.AddProperty(ics.ComponentPropertyCategories, ev.Type.String())
	}

	return cal.Serialize()
}

func eventTitle(ev *domain.ScheduledEvent) string {
	switch {
	case ev.Talk != nil && ev.Talk.Name != "":
		return ev.Talk.Name
	case ev.Workshop != nil && ev.Workshop.Name != "":
		return ev.Workshop.Name
	case ev.RecurringEvent != nil && ev.RecurringEvent.Name != "":
		return ev.RecurringEvent.Name
	default:
		return ev.Name
	}
}

func eventDescription(ev *domain.ScheduledEvent) string {
	var people []*domain.Speaker
	switch {
	case ev.Type == domain.EventTypeTriviaShow:
		people = ev.ShowSpeakers
	case ev.Workshop != nil:
		people = ev.Workshop.Instructors
		if len(people) == 0 && ev.Workshop.Instructor != nil {
			people = []*domain.Speaker{ev.Workshop.Instructor}
		}
	default:
		people = talkSpeakers(ev)
	}
	names := util.Map(util.Compact(people), func(sp *domain.Speaker) string { return sp.Name })

	var details string
	switch {
	case ev.Talk != nil:
		details = ev.Talk.DescriptionText
	case ev.Workshop != nil:
		details = ev.Workshop.DescriptionText
	case ev.RecurringEvent != nil:
		details = ev.RecurringEvent.Description
	}
	details = util.FirstNonEmpty(details, util.PlainText(ev.Description))

	parts := make([]string, 0, 2)
	if len(names) > 0 {
		parts = append(parts, "With "+strings.Join(names, ", "))
	}
	if details != "" {
		parts = append(parts, details)
	}
	return strings.Join(parts, "\n\n")
}
