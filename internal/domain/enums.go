package domain

import "strings"

// Day is a conference day label.
type Day string

const (
	DayWednesday Day = "Wednesday"
	DayThursday  Day = "Thursday"
	DayFriday    Day = "Friday"
)

// ConferenceDays lists the days in agenda order.
var ConferenceDays = []Day{DayWednesday, DayThursday, DayFriday}

func (d Day) String() string {
	return string(d)
}

func (d Day) IsValid() bool {
	switch d {
	case DayWednesday, DayThursday, DayFriday:
		return true
	default:
		return false
	}
}

// ParseDay matches a day label case-insensitively.
func ParseDay(s string) (Day, bool) {
	s = strings.TrimSpace(s)
	for _, d := range ConferenceDays {
		if strings.EqualFold(string(d), s) {
			return d, true
		}
	}
	return "", false
}

type EventType string

const (
	EventTypeTalk          EventType = "Talk"
	EventTypeLightningTalk EventType = "Lightning Talk"
	EventTypeKeynote       EventType = "Keynote"
	EventTypeWorkshop      EventType = "Workshop"
	EventTypeSpeakerPanel  EventType = "Speaker Panel"
	EventTypeRecurring     EventType = "Recurring"
	EventTypeParty         EventType = "Party"
	EventTypeSponsored     EventType = "Sponsored"
	EventTypeTriviaShow    EventType = "Trivia Show"
)

func (e EventType) String() string {
	return string(e)
}

func (e EventType) IsValid() bool {
	switch e {
	case EventTypeTalk, EventTypeLightningTalk, EventTypeKeynote, EventTypeWorkshop,
		EventTypeSpeakerPanel, EventTypeRecurring, EventTypeParty, EventTypeSponsored,
		EventTypeTriviaShow:
		return true
	default:
		return false
	}
}

type SpeakerType string

const (
	SpeakerTypeSpeaker  SpeakerType = "Speaker"
	SpeakerTypePanelist SpeakerType = "Panelist"
	SpeakerTypeWorkshop SpeakerType = "Workshop"
	SpeakerTypeEmcee    SpeakerType = "Emcee"
)

func (s SpeakerType) String() string {
	return string(s)
}

func (s SpeakerType) IsValid() bool {
	switch s {
	case SpeakerTypeSpeaker, SpeakerTypePanelist, SpeakerTypeWorkshop, SpeakerTypeEmcee:
		return true
	default:
		return false
	}
}

// Level is the audience level of a talk or workshop.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

func (l Level) String() string {
	return string(l)
}

func (l Level) IsValid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	default:
		return false
	}
}

type TalkType string

const (
	TalkTypeTalk          TalkType = "Talk"
	TalkTypeLightningTalk TalkType = "Lightning Talk"
	TalkTypeKeynote       TalkType = "Keynote"
)

func (t TalkType) String() string {
	return string(t)
}

func (t TalkType) IsValid() bool {
	switch t {
	case TalkTypeTalk, TalkTypeLightningTalk, TalkTypeKeynote:
		return true
	default:
		return false
	}
}

type SponsorTier string

const (
	SponsorTierPlatinum SponsorTier = "Platinum"
	SponsorTierGold     SponsorTier = "Gold"
	SponsorTierSilver   SponsorTier = "Silver"
	SponsorTierBronze   SponsorTier = "Bronze"
	SponsorTierOther    SponsorTier = "Other"
)

func (s SponsorTier) String() string {
	return string(s)
}

func (s SponsorTier) IsValid() bool {
	switch s {
	case SponsorTierPlatinum, SponsorTierGold, SponsorTierSilver, SponsorTierBronze, SponsorTierOther:
		return true
	default:
		return false
	}
}

// Rank orders tiers for sponsor listings, Platinum first.
func (s SponsorTier) Rank() int {
	switch s {
	case SponsorTierPlatinum:
		return 0
	case SponsorTierGold:
		return 1
	case SponsorTierSilver:
		return 2
	case SponsorTierBronze:
		return 3
	default:
		return 4
	}
}

type VenueTag string

const (
	VenueTagConference VenueTag = "Conference"
	VenueTagWorkshop   VenueTag = "Workshop"
	VenueTagParty      VenueTag = "Party"
	VenueTagHotel      VenueTag = "Hotel"
)

func (v VenueTag) String() string {
	return string(v)
}

func (v VenueTag) IsValid() bool {
	switch v {
	case VenueTagConference, VenueTagWorkshop, VenueTagParty, VenueTagHotel:
		return true
	default:
		return false
	}
}

type RecommendationType string

const (
	RecommendationTypeFood     RecommendationType = "Food"
	RecommendationTypeCoffee   RecommendationType = "Coffee"
	RecommendationTypeDrinks   RecommendationType = "Drinks"
	RecommendationTypeActivity RecommendationType = "Activity"
)

func (r RecommendationType) String() string {
	return string(r)
}

func (r RecommendationType) IsValid() bool {
	switch r {
	case RecommendationTypeFood, RecommendationTypeCoffee, RecommendationTypeDrinks, RecommendationTypeActivity:
		return true
	default:
		return false
	}
}

// Location is the neighbourhood a venue or recommendation sits in.
type Location string

const (
	LocationDowntown    Location = "Downtown"
	LocationLoDo        Location = "LoDo"
	LocationRiNo        Location = "RiNo"
	LocationCapitolHill Location = "Capitol Hill"
	LocationElsewhere   Location = "Elsewhere"
)

func (l Location) String() string {
	return string(l)
}

func (l Location) IsValid() bool {
	switch l {
	case LocationDowntown, LocationLoDo, LocationRiNo, LocationCapitolHill, LocationElsewhere:
		return true
	default:
		return false
	}
}
