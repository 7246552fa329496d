package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kapu/conference-companion-go/internal/cms"
	"github.com/kapu/conference-companion-go/internal/domain"
	"github.com/kapu/conference-companion-go/internal/idmap"
)

func optionID(t *testing.T, category idmap.Category, label string) string {
	t.Helper()
	id, ok := idmap.Default().IdentifierFor(category, label)
	if !ok {
		t.Fatalf("no identifier for %s/%s", category, label)
	}
	return id
}

func item(id, name string) cms.Item {
	return cms.Item{ID: id, Name: name, Slug: id}
}

func archived(id, name string) cms.Item {
	i := item(id, name)
	i.Archived = true
	return i
}

func draft(id, name string) cms.Item {
	i := item(id, name)
	i.Draft = true
	return i
}

func at(hour, minute int) *time.Time {
	t := time.Date(2025, 4, 9, hour, minute, 0, 0, time.UTC)
	return &t
}

func TestSpeakersResolvesOptionsAndDropsHidden(t *testing.T) {
	n := New(nil)
	raw := []cms.RawSpeaker{
		{Item: item("s1", "Ada"), SpeakerType: optionID(t, idmap.CategorySpeakerType, "Emcee"),
			TalkLevel: optionID(t, idmap.CategoryTalkLevel, "Advanced"), Bio: "<p>Hello <em>there</em></p>",
			Photo: &cms.Image{URL: "https://cdn/ada.png"}},
		{Item: archived("s2", "Archived")},
		{Item: draft("s3", "Draft")},
		{Item: item("s4", "Grace")},
	}

	got := n.Speakers(raw)

	if len(got) != 2 {
		t.Fatalf("expected 2 speakers, got %d", len(got))
	}
	if got[0].Type != domain.SpeakerTypeEmcee || got[0].TalkLevel != domain.LevelAdvanced {
		t.Fatalf("unexpected options: %+v", got[0])
	}
	if got[0].BioText != "Hello there" || got[0].PhotoURL() != "https://cdn/ada.png" {
		t.Fatalf("unexpected bio/photo: %q %q", got[0].BioText, got[0].PhotoURL())
	}
	// blank speaker type falls back, blank level stays empty
	if got[1].Type != domain.SpeakerTypeSpeaker || got[1].TalkLevel != "" {
		t.Fatalf("unexpected defaults: %+v", got[1])
	}
	if got[1].Photo != nil {
		t.Fatalf("missing photo should stay nil")
	}
}

func TestSpeakersNilInput(t *testing.T) {
	got := New(nil).Speakers(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
}

func TestSponsorsFiltersCurrentAndResolvesTier(t *testing.T) {
	n := New(nil)
	raw := []cms.RawSponsor{
		{Item: item("sp1", "Acme"), IsCurrentSponsor: true, Tier: optionID(t, idmap.CategorySponsorTier, "Platinum")},
		{Item: item("sp2", "Old Co"), IsCurrentSponsor: false, Tier: optionID(t, idmap.CategorySponsorTier, "Gold")},
		{Item: item("sp3", "Beta"), IsCurrentSponsor: true, Tier: optionID(t, idmap.CategorySponsorTier, "Silver")},
	}

	got := n.Sponsors(raw)

	if len(got) != 2 {
		t.Fatalf("expected 2 sponsors, got %d", len(got))
	}
	if got[0].Name != "Acme" || got[0].Tier != domain.SponsorTierPlatinum {
		t.Fatalf("unexpected first sponsor: %+v", got[0])
	}
	if got[1].Name != "Beta" || got[1].Tier != domain.SponsorTierSilver {
		t.Fatalf("unexpected second sponsor: %+v", got[1])
	}
}

func TestTalksDropArchivedSpeakers(t *testing.T) {
	n := New(nil)
	in := TalksInput{
		Speakers: []cms.RawSpeaker{
			{Item: item("s1", "Ada")},
			{Item: archived("s2", "Gone")},
		},
		Talks: []cms.RawTalk{
			{Item: item("t1", "Go at scale"), Speakers: []string{"s1", "s2"},
				TalkType: optionID(t, idmap.CategoryTalkType, "Keynote")},
			{Item: draft("t2", "Draft talk"), Speakers: []string{"s1"}},
		},
	}

	got := n.Talks(in)

	if len(got) != 1 {
		t.Fatalf("expected 1 talk, got %d", len(got))
	}
	if len(got[0].Speakers) != 1 || got[0].Speakers[0].Name != "Ada" {
		t.Fatalf("expected only Ada, got %+v", got[0].Speakers)
	}
	if got[0].Type != domain.TalkTypeKeynote {
		t.Fatalf("unexpected talk type: %s", got[0].Type)
	}
}

func TestTalksWithoutSpeakersLoaded(t *testing.T) {
	got := New(nil).Talks(TalksInput{Talks: []cms.RawTalk{{Item: item("t1", "Talk"), Speakers: []string{"s1"}}}})
	if len(got) != 1 || len(got[0].Speakers) != 0 {
		t.Fatalf("unloaded speakers should leave an empty speaker list, got %+v", got)
	}
	if got[0].Type != domain.TalkTypeTalk {
		t.Fatalf("blank talk type should fall back to Talk, got %q", got[0].Type)
	}
}

func TestWorkshopsResolveInstructors(t *testing.T) {
	n := New(nil)
	speakers := n.Speakers([]cms.RawSpeaker{
		{Item: item("s1", "Ada")},
		{Item: item("s2", "Grace")},
	})
	raw := []cms.RawWorkshop{
		{
			Item:        item("w1", "Intro to Go"),
			Level:       optionID(t, idmap.CategoryWorkshopLevel, "Beginner"),
			Instructor:  "s1",
			Instructors: []string{"s1", "missing", "s2"},
			Assistant:   "missing",
			Assistants:  []string{"s2"},
		},
	}

	got := n.Workshops(raw, speakers)

	w := got[0]
	if w.Level != domain.LevelBeginner {
		t.Fatalf("unexpected level %q", w.Level)
	}
	if w.Instructor == nil || w.Instructor.Name != "Ada" {
		t.Fatalf("unexpected instructor %+v", w.Instructor)
	}
	if w.Assistant != nil {
		t.Fatalf("dangling singular reference should be nil")
	}
	if len(w.Instructors) != 2 || w.Instructors[1].Name != "Grace" {
		t.Fatalf("unexpected instructors %+v", w.Instructors)
	}
	if len(w.Assistants) != 1 {
		t.Fatalf("unexpected assistants %+v", w.Assistants)
	}
}

func TestRecurringEventsApplyPromoDefaults(t *testing.T) {
	n := New(nil)
	sponsors := []*domain.Sponsor{{Item: domain.Item{ID: "sp1", Name: "Acme"}, URL: "https://acme.example"}}
	raw := []cms.RawRecurringEvent{
		{Item: item("r1", "Coffee Break"), Sponsor: "sp1", PromoHeading: "Coffee by Acme"},
		{Item: item("r2", "Check-in"), Sponsor: "gone"},
	}

	got := n.RecurringEvents(raw, sponsors)

	if got[0].Sponsor == nil || got[0].Promo.Heading != "Coffee by Acme" {
		t.Fatalf("unexpected first recurring event %+v", got[0])
	}
	if got[0].Promo.LinkURL != "https://acme.example" {
		t.Fatalf("promo link should default to sponsor url, got %q", got[0].Promo.LinkURL)
	}
	if got[0].Promo.Description != domain.DefaultPromo.Description {
		t.Fatalf("blank promo description should be defaulted")
	}
	if got[1].Sponsor != nil || got[1].Promo != domain.DefaultPromo {
		t.Fatalf("unexpected second recurring event %+v", got[1])
	}
}

func scheduleFixture(t *testing.T) []cms.RawScheduledEvent {
	return []cms.RawScheduledEvent{
		{
			Item:      item("e1", "Opening workshop"),
			Day:       optionID(t, idmap.CategoryScheduleDay, "Thursday"),
			EventType: optionID(t, idmap.CategoryEventType, "Workshop"),
			DayTime:   at(9, 0),
			EndTime:   at(12, 0),
			Workshop:  "w-missing",
		},
		{
			Item:    item("e2", "Untyped talk"),
			Day:     optionID(t, idmap.CategoryScheduleDay, "Friday"),
			DayTime: at(14, 0),
			Talk:    "t1",
		},
		{Item: archived("e3", "Archived"), DayTime: at(8, 0)},
		{
			Item:           item("e4", "Lunch"),
			Day:            optionID(t, idmap.CategoryScheduleDay, "Friday"),
			EventType:      optionID(t, idmap.CategoryEventType, "Recurring"),
			DayTime:        at(12, 0),
			RecurringEvent: "r1",
			Speakers:       []string{"s1", "s-archived"},
			ShowSpeaker1:   "s1",
			ShowSpeaker2:   "nobody",
		},
	}
}

func TestScheduleResolvesReferences(t *testing.T) {
	n := New(nil)
	speakers := n.Speakers([]cms.RawSpeaker{{Item: item("s1", "Ada")}, {Item: archived("s-archived", "Gone")}})
	talks := n.Talks(TalksInput{Talks: []cms.RawTalk{{Item: item("t1", "Talk one")}}})
	recurring := n.RecurringEvents([]cms.RawRecurringEvent{{Item: item("r1", "Lunch break")}}, nil)

	got := n.Schedule(scheduleFixture(t), speakers, nil, talks, recurring)

	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].ID != "e1" || got[1].ID != "e2" || got[2].ID != "e4" {
		t.Fatalf("input order not preserved: %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}

	if got[0].Workshop != nil {
		t.Fatalf("dangling workshop reference should be nil")
	}
	if got[0].Day != domain.DayThursday || got[0].Type != domain.EventTypeWorkshop {
		t.Fatalf("unexpected day/type: %s %s", got[0].Day, got[0].Type)
	}
	if !got[0].HasDistinctEnd() {
		t.Fatalf("expected an end time")
	}

	if got[1].Type != domain.EventTypeTalk {
		t.Fatalf("absent event type should fall back to Talk, got %q", got[1].Type)
	}
	if got[1].Talk == nil || got[1].Talk.Name != "Talk one" {
		t.Fatalf("talk reference not resolved")
	}
	if got[1].Promo != domain.DefaultPromo {
		t.Fatalf("event without a recurring reference should carry default promo")
	}

	lunch := got[2]
	if lunch.RecurringEvent == nil || lunch.RecurringEvent.Name != "Lunch break" {
		t.Fatalf("recurring reference not resolved")
	}
	if len(lunch.Speakers) != 1 || lunch.Speakers[0].Name != "Ada" {
		t.Fatalf("archived speaker must not be resolved: %+v", lunch.Speakers)
	}
	if len(lunch.ShowSpeakers) != 1 {
		t.Fatalf("unexpected show speakers: %+v", lunch.ShowSpeakers)
	}
}

func TestScheduleToleratesUnloadedCollections(t *testing.T) {
	got := New(nil).Schedule(scheduleFixture(t), nil, nil, nil, nil)

	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for _, ev := range got {
		if ev.Talk != nil || ev.Workshop != nil || ev.RecurringEvent != nil || len(ev.Speakers) != 0 {
			t.Fatalf("expected unresolved references on %s", ev.ID)
		}
	}
}

func TestScheduleIsDeterministic(t *testing.T) {
	n := New(nil)
	speakers := n.Speakers([]cms.RawSpeaker{{Item: item("s1", "Ada")}})

	first, _ := json.Marshal(n.Schedule(scheduleFixture(t), speakers, nil, nil, nil))
	second, _ := json.Marshal(n.Schedule(scheduleFixture(t), speakers, nil, nil, nil))

	if string(first) != string(second) {
		t.Fatalf("normalization is not deterministic")
	}
}

func TestAllNeverLeaksHiddenRecords(t *testing.T) {
	raw := &cms.RawContent{
		Speakers: []cms.RawSpeaker{{Item: item("s1", "Ada")}, {Item: draft("s2", "Hidden")}},
		Talks:    []cms.RawTalk{{Item: item("t1", "Talk"), Speakers: []string{"s1", "s2"}}},
		Workshops: []cms.RawWorkshop{
			{Item: item("w1", "Workshop"), Instructor: "s2", Instructors: []string{"s2"}},
		},
		Schedule: []cms.RawScheduledEvent{
			{Item: item("e1", "Talk slot"), Talk: "t1", Speakers: []string{"s2"}, DayTime: at(10, 0)},
			{Item: draft("e2", "Draft slot"), DayTime: at(11, 0)},
		},
		Venues: []cms.RawVenue{{Item: item("v1", "Main hall"), Tag: optionID(t, idmap.CategoryVenueTag, "Conference")}},
		Recommendations: []cms.RawRecommendation{
			{Item: item("rc1", "Taco place"), RecommendationType: optionID(t, idmap.CategoryRecommendationType, "Food")},
		},
	}

	content := New(nil).All(raw)

	for _, sp := range content.Speakers {
		if sp.ID == "s2" {
			t.Fatalf("draft speaker leaked into speakers")
		}
	}
	if len(content.Talks[0].Speakers) != 1 {
		t.Fatalf("draft speaker leaked into talk")
	}
	if content.Workshops[0].Instructor != nil || len(content.Workshops[0].Instructors) != 0 {
		t.Fatalf("draft speaker leaked into workshop")
	}
	if len(content.Schedule) != 1 || len(content.Schedule[0].Speakers) != 0 {
		t.Fatalf("hidden records leaked into schedule")
	}
	if content.Venues[0].Tag != domain.VenueTagConference || content.Venues[0].Location != domain.LocationElsewhere {
		t.Fatalf("unexpected venue %+v", content.Venues[0])
	}
	if content.Recommendations[0].Type != domain.RecommendationTypeFood {
		t.Fatalf("unexpected recommendation %+v", content.Recommendations[0])
	}
}
