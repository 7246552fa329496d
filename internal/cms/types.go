// Package cms holds the wire shapes of the CMS collection API and the client
// that fetches them. Cross references are opaque item identifiers here; they are
// resolved by the normalize package.
package cms

import "time"

// Collection names a content collection the app consumes.
type Collection string

const (
	CollectionSchedule        Collection = "schedule"
	CollectionSpeakers        Collection = "speakers"
	CollectionTalks           Collection = "talks"
	CollectionWorkshops       Collection = "workshops"
	CollectionRecurringEvents Collection = "recurring-events"
	CollectionSponsors        Collection = "sponsors"
	CollectionVenues          Collection = "venues"
	CollectionRecommendations Collection = "recommendations"
)

// Collections lists every collection in fetch order.
var Collections = []Collection{
	CollectionSchedule,
	CollectionSpeakers,
	CollectionTalks,
	CollectionWorkshops,
	CollectionRecurringEvents,
	CollectionSponsors,
	CollectionVenues,
	CollectionRecommendations,
}

func (c Collection) String() string {
	return string(c)
}

func (c Collection) IsValid() bool {
	switch c {
	case CollectionSchedule, CollectionSpeakers, CollectionTalks, CollectionWorkshops,
		CollectionRecurringEvents, CollectionSponsors, CollectionVenues, CollectionRecommendations:
		return true
	default:
		return false
	}
}

// Item is the envelope shared by every record.
type Item struct {
	ID           string     `json:"_id"`
	CollectionID string     `json:"_cid"`
	Archived     bool       `json:"_archived"`
	Draft        bool       `json:"_draft"`
	CreatedOn    *time.Time `json:"created-on,omitempty"`
	UpdatedOn    *time.Time `json:"updated-on,omitempty"`
	PublishedOn  *time.Time `json:"published-on,omitempty"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
}

// Hidden reports whether the record is archived or still a draft.
func (i Item) Hidden() bool {
	return i.Archived || i.Draft
}

// Image is a CMS asset reference.
type Image struct {
	FileID string `json:"fileId"`
	URL    string `json:"url"`
	Alt    string `json:"alt,omitempty"`
}

// ItemsPage is one page of a collection listing.
type ItemsPage[T any] struct {
	Items  []T `json:"items"`
	Count  int `json:"count"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type RawScheduledEvent struct {
	Item
	Day            string     `json:"day"`
	DayTime        *time.Time `json:"day-time,omitempty"`
	EndTime        *time.Time `json:"end-time,omitempty"`
	EventType      string     `json:"event-type"`
	Description    string     `json:"description,omitempty"`
	Talk           string     `json:"talk,omitempty"`
	Workshop       string     `json:"workshop,omitempty"`
	RecurringEvent string     `json:"recurring-event,omitempty"`
	Speakers       []string   `json:"speaker-s,omitempty"`
	// show-style events (trivia night) list their hosts in these fields
	ShowSpeaker1 string `json:"speaker-2-2,omitempty"`
	ShowSpeaker2 string `json:"speaker-3,omitempty"`
	ShowSpeaker3 string `json:"speaker-3-2,omitempty"`
}

// ShowSpeakerIDs returns the show speaker references in display order.
func (e RawScheduledEvent) ShowSpeakerIDs() []string {
	return []string{e.ShowSpeaker1, e.ShowSpeaker2, e.ShowSpeaker3}
}

type RawSpeaker struct {
	Item
	Bio         string `json:"bio,omitempty"`
	Company     string `json:"company,omitempty"`
	JobTitle    string `json:"job-title,omitempty"`
	Photo       *Image `json:"photo,omitempty"`
	TwitterURL  string `json:"twitter-url,omitempty"`
	LinkedInURL string `json:"linkedin-url,omitempty"`
	GitHubURL   string `json:"github-url,omitempty"`
	Website     string `json:"website,omitempty"`
	SpeakerType string `json:"speaker-type,omitempty"`
	TalkLevel   string `json:"talk-level,omitempty"`
}

type RawTalk struct {
	Item
	Description string   `json:"description,omitempty"`
	Speakers    []string `json:"speaker-s,omitempty"`
	TalkType    string   `json:"talk-type,omitempty"`
}

type RawWorkshop struct {
	Item
	Description string   `json:"description,omitempty"`
	Level       string   `json:"level,omitempty"`
	Instructor  string   `json:"instructor,omitempty"`
	Instructors []string `json:"instructors,omitempty"`
	Assistant   string   `json:"assistant,omitempty"`
	Assistants  []string `json:"assistants,omitempty"`
}

type RawRecurringEvent struct {
	Item
	Description      string `json:"description,omitempty"`
	Sponsor          string `json:"sponsor,omitempty"`
	PromoHeading     string `json:"promo-heading,omitempty"`
	PromoDescription string `json:"promo-description,omitempty"`
	PromoBanner      *Image `json:"promo-banner,omitempty"`
	PromoURL         string `json:"promo-url,omitempty"`
}

type RawSponsor struct {
	Item
	Logo             *Image `json:"logo,omitempty"`
	Tier             string `json:"tier,omitempty"`
	Summary          string `json:"summary,omitempty"`
	URL              string `json:"url,omitempty"`
	IsCurrentSponsor bool   `json:"is-a-current-sponsor"`
}

type RawVenue struct {
	Item
	Description string `json:"description,omitempty"`
	Address     string `json:"address,omitempty"`
	MapURL      string `json:"map-url,omitempty"`
	Photo       *Image `json:"photo,omitempty"`
	Tag         string `json:"tag,omitempty"`
	Location    string `json:"location,omitempty"`
}

type RawRecommendation struct {
	Item
	Description        string `json:"description,omitempty"`
	URL                string `json:"url,omitempty"`
	Photo              *Image `json:"photo,omitempty"`
	RecommendationType string `json:"type,omitempty"`
	Location           string `json:"location,omitempty"`
}

// RawContent is one fetch of every collection. A nil slice means the collection
// has not been loaded (its fetch failed); an empty slice means it is empty.
type RawContent struct {
	Schedule        []RawScheduledEvent `json:"schedule"`
	Speakers        []RawSpeaker        `json:"speakers"`
	Talks           []RawTalk           `json:"talks"`
	Workshops       []RawWorkshop       `json:"workshops"`
	RecurringEvents []RawRecurringEvent `json:"recurring_events"`
	Sponsors        []RawSponsor        `json:"sponsors"`
	Venues          []RawVenue          `json:"venues"`
	Recommendations []RawRecommendation `json:"recommendations"`

	FetchedAt time.Time            `json:"fetched_at"`
	Errors    map[Collection]error `json:"-"`
	Stale     map[Collection]bool  `json:"-"`
}

// Failed lists the collections whose fetch failed, in fetch order.
func (r *RawContent) Failed() []Collection {
	var failed []Collection
	for _, c := range Collections {
		if r.Errors[c] != nil {
			failed = append(failed, c)
		}
	}
	return failed
}
