// Package normalize turns raw CMS records into cross-referenced domain entities.
//
// Every function here is pure: it never fails, never mutates its input and keeps
// input order. Archived and draft records are dropped. A reference that cannot be
// resolved becomes nil (singular) or is left out (set-valued), and a nil input
// collection is treated as not loaded yet.
package normalize

import (
	"github.com/kapu/conference-companion-go/internal/cms"
	"github.com/kapu/conference-companion-go/internal/domain"
	"github.com/kapu/conference-companion-go/internal/idmap"
	"github.com/kapu/conference-companion-go/internal/util"
)

type Normalizer struct {
	ids *idmap.Map
}

// New returns a normalizer over ids, or over the embedded tables when ids is nil.
func New(ids *idmap.Map) *Normalizer {
	if ids == nil {
		ids = idmap.Default()
	}
	return &Normalizer{ids: ids}
}

// TalksInput mirrors the two collections a talk needs.
type TalksInput struct {
	Speakers []cms.RawSpeaker
	Talks    []cms.RawTalk
}

func (n *Normalizer) Speakers(raw []cms.RawSpeaker) []*domain.Speaker {
	out := make([]*domain.Speaker, 0, len(raw))
	for _, r := range visible(raw) {
		out = append(out, &domain.Speaker{
			Item:     toItem(r.Item),
			Bio:      r.Bio,
			BioText:  util.PlainText(r.Bio),
			Company:  r.Company,
			JobTitle: r.JobTitle,
			Photo:    toImage(r.Photo),
			Links: domain.SocialLinks{
				Twitter:  r.TwitterURL,
				LinkedIn: r.LinkedInURL,
				GitHub:   r.GitHubURL,
				Website:  r.Website,
			},
			Type:      domain.SpeakerType(n.ids.ResolveField(idmap.FieldSpeakerType, r.SpeakerType)),
			TalkLevel: domain.Level(n.ids.ResolveField(idmap.FieldTalkLevel, r.TalkLevel)),
		})
	}
	return out
}

// Sponsors keeps only current sponsors.
func (n *Normalizer) Sponsors(raw []cms.RawSponsor) []*domain.Sponsor {
	out := make([]*domain.Sponsor, 0, len(raw))
	for _, r := range visible(raw) {
		if !r.IsCurrentSponsor {
			continue
		}
		out = append(out, &domain.Sponsor{
			Item:    toItem(r.Item),
			Logo:    toImage(r.Logo),
			Tier:    domain.SponsorTier(n.ids.ResolveField(idmap.FieldSponsorTier, r.Tier)),
			Summary: r.Summary,
			URL:     r.URL,
		})
	}
	return out
}

// Talks normalizes the raw speakers itself so an archived speaker can never be
// stitched into a talk.
func (n *Normalizer) Talks(in TalksInput) []*domain.Talk {
	speakers := byID(n.Speakers(in.Speakers))

	out := make([]*domain.Talk, 0, len(in.Talks))
	for _, r := range visible(in.Talks) {
		out = append(out, &domain.Talk{
			Item:            toItem(r.Item),
			Description:     r.Description,
			DescriptionText: util.PlainText(r.Description),
			Type:            domain.TalkType(n.ids.ResolveField(idmap.FieldTalkType, r.TalkType)),
			Speakers:        resolveMany(speakers, r.Speakers),
		})
	}
	return out
}

func (n *Normalizer) Workshops(raw []cms.RawWorkshop, speakers []*domain.Speaker) []*domain.Workshop {
	index := byID(speakers)

	out := make([]*domain.Workshop, 0, len(raw))
	for _, r := range visible(raw) {
		out = append(out, &domain.Workshop{
			Item:            toItem(r.Item),
			Description:     r.Description,
			DescriptionText: util.PlainText(r.Description),
			Level:           domain.Level(n.ids.ResolveField(idmap.FieldWorkshopLevel, r.Level)),
			Instructor:      resolveOne(index, r.Instructor),
			Instructors:     resolveMany(index, r.Instructors),
			Assistant:       resolveOne(index, r.Assistant),
			Assistants:      resolveMany(index, r.Assistants),
		})
	}
	return out
}

// RecurringEvents resolves the optional sponsor and fills blank promo fields,
// preferring the sponsor's own link before the defaults.
func (n *Normalizer) RecurringEvents(raw []cms.RawRecurringEvent, sponsors []*domain.Sponsor) []*domain.RecurringEvent {
	index := byID(sponsors)

	out := make([]*domain.RecurringEvent, 0, len(raw))
	for _, r := range visible(raw) {
		sponsor := resolveOne(index, r.Sponsor)
		promo := domain.Promo{
			Heading:     r.PromoHeading,
			Description: r.PromoDescription,
			BannerURL:   imageURL(r.PromoBanner),
			LinkURL:     r.PromoURL,
		}
		if promo.LinkURL == "" && sponsor != nil {
			promo.LinkURL = sponsor.URL
		}
		out = append(out, &domain.RecurringEvent{
			Item:        toItem(r.Item),
			Description: r.Description,
			Sponsor:     sponsor,
			Promo:       promo.WithDefaults(),
		})
	}
	return out
}

// Schedule resolves every reference of the raw timetable. Any of the reference
// collections may be nil; the matching fields then stay unresolved.
func (n *Normalizer) Schedule(
	raw []cms.RawScheduledEvent,
	speakers []*domain.Speaker,
	workshops []*domain.Workshop,
	talks []*domain.Talk,
	recurring []*domain.RecurringEvent,
) []*domain.ScheduledEvent {
	speakerIndex := byID(speakers)
	workshopIndex := byID(workshops)
	talkIndex := byID(talks)
	recurringIndex := byID(recurring)

	out := make([]*domain.ScheduledEvent, 0, len(raw))
	for _, r := range visible(raw) {
		ev := &domain.ScheduledEvent{
			Item:           toItem(r.Item),
			Day:            domain.Day(n.ids.ResolveField(idmap.FieldDay, r.Day)),
			Type:           domain.EventType(n.ids.ResolveField(idmap.FieldEventType, r.EventType)),
			Description:    r.Description,
			End:            copyTime(r.EndTime),
			Talk:           resolveOne(talkIndex, r.Talk),
			Workshop:       resolveOne(workshopIndex, r.Workshop),
			RecurringEvent: resolveOne(recurringIndex, r.RecurringEvent),
			Speakers:       resolveMany(speakerIndex, r.Speakers),
			ShowSpeakers:   resolveMany(speakerIndex, r.ShowSpeakerIDs()),
		}
		if r.DayTime != nil {
			ev.Start = *r.DayTime
		}

		var promo domain.Promo
		if ev.RecurringEvent != nil {
			promo = ev.RecurringEvent.Promo
		}
		ev.Promo = promo.WithDefaults()

		out = append(out, ev)
	}
	return out
}

func (n *Normalizer) Venues(raw []cms.RawVenue) []*domain.Venue {
	out := make([]*domain.Venue, 0, len(raw))
	for _, r := range visible(raw) {
		out = append(out, &domain.Venue{
			Item:        toItem(r.Item),
			Description: r.Description,
			Address:     r.Address,
			MapURL:      r.MapURL,
			Photo:       toImage(r.Photo),
			Tag:         domain.VenueTag(n.ids.ResolveField(idmap.FieldVenueTag, r.Tag)),
			Location:    domain.Location(n.ids.ResolveField(idmap.FieldLocation, r.Location)),
		})
	}
	return out
}

func (n *Normalizer) Recommendations(raw []cms.RawRecommendation) []*domain.Recommendation {
	out := make([]*domain.Recommendation, 0, len(raw))
	for _, r := range visible(raw) {
		out = append(out, &domain.Recommendation{
			Item:        toItem(r.Item),
			Description: r.Description,
			URL:         r.URL,
			Photo:       toImage(r.Photo),
			Type:        domain.RecommendationType(n.ids.ResolveField(idmap.FieldRecommendationType, r.RecommendationType)),
			Location:    domain.Location(n.ids.ResolveField(idmap.FieldLocation, r.Location)),
		})
	}
	return out
}
