package domain

import "time"

// Item carries the CMS envelope fields every normalized record keeps.
type Item struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	CreatedOn   *time.Time `json:"created_on,omitempty"`
	UpdatedOn   *time.Time `json:"updated_on,omitempty"`
	PublishedOn *time.Time `json:"published_on,omitempty"`
}

// Identifier returns the CMS item id.
func (i Item) Identifier() string {
	return i.ID
}

type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// ImageURL returns the image URL or "" for a nil image.
func ImageURL(img *Image) string {
	if img == nil {
		return ""
	}
	return img.URL
}

type SocialLinks struct {
	Twitter  string `json:"twitter,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

type Speaker struct {
	Item
	Bio       string      `json:"bio,omitempty"`
	BioText   string      `json:"bio_text,omitempty"`
	Company   string      `json:"company,omitempty"`
	JobTitle  string      `json:"job_title,omitempty"`
	Photo     *Image      `json:"photo,omitempty"`
	Links     SocialLinks `json:"links"`
	Type      SpeakerType `json:"speaker_type,omitempty"`
	TalkLevel Level       `json:"talk_level,omitempty"`
}

func (s *Speaker) PhotoURL() string {
	if s == nil {
		return ""
	}
	return ImageURL(s.Photo)
}

type Talk struct {
	Item
	Description     string     `json:"description,omitempty"`
	DescriptionText string     `json:"description_text,omitempty"`
	Type            TalkType   `json:"talk_type,omitempty"`
	Speakers        []*Speaker `json:"speakers"`
}

type Workshop struct {
	Item
	Description     string     `json:"description,omitempty"`
	DescriptionText string     `json:"description_text,omitempty"`
	Level           Level      `json:"level,omitempty"`
	Instructor      *Speaker   `json:"instructor,omitempty"`
	Instructors     []*Speaker `json:"instructors"`
	Assistant       *Speaker   `json:"assistant,omitempty"`
	Assistants      []*Speaker `json:"assistants"`
}

// Promo is the secondary promotional block shown with breaks and sponsored slots.
type Promo struct {
	Heading     string `json:"heading"`
	Description string `json:"description"`
	BannerURL   string `json:"banner_url"`
	LinkURL     string `json:"link_url,omitempty"`
}

// DefaultPromo fills promo fields a recurring event leaves blank.
var DefaultPromo = Promo{
	Heading:     "Thanks to our sponsors",
	Description: "This conference is made possible by the generous support of our sponsors.",
	BannerURL:   "/static/promo-default.png",
}

// WithDefaults returns p with every blank field taken from DefaultPromo.
func (p Promo) WithDefaults() Promo {
	if p.Heading == "" {
		p.Heading = DefaultPromo.Heading
	}
	if p.Description == "" {
		p.Description = DefaultPromo.Description
	}
	if p.BannerURL == "" {
		p.BannerURL = DefaultPromo.BannerURL
	}
	if p.LinkURL == "" {
		p.LinkURL = DefaultPromo.LinkURL
	}
	return p
}

type RecurringEvent struct {
	Item
	Description string   `json:"description,omitempty"`
	Sponsor     *Sponsor `json:"sponsor,omitempty"`
	Promo       Promo    `json:"promo"`
}

type Sponsor struct {
	Item
	Logo    *Image      `json:"logo,omitempty"`
	Tier    SponsorTier `json:"tier"`
	Summary string      `json:"summary,omitempty"`
	URL     string      `json:"url,omitempty"`
}

type ScheduledEvent struct {
	Item
	Day            Day             `json:"day"`
	Start          time.Time       `json:"start"`
	End            *time.Time      `json:"end,omitempty"`
	Type           EventType       `json:"type"`
	Description    string          `json:"description,omitempty"`
	Talk           *Talk           `json:"talk,omitempty"`
	Workshop       *Workshop       `json:"workshop,omitempty"`
	RecurringEvent *RecurringEvent `json:"recurring_event,omitempty"`
	Speakers       []*Speaker      `json:"speakers"`
	// ShowSpeakers holds the alternate speaker fields used by show-style events,
	// in field order, unresolved entries omitted.
	ShowSpeakers []*Speaker `json:"show_speakers,omitempty"`
	Promo        Promo      `json:"promo"`
}

// HasDistinctEnd reports whether the event ends at a different instant than it starts.
func (e *ScheduledEvent) HasDistinctEnd() bool {
	return e != nil && e.End != nil && !e.End.Equal(e.Start)
}

type Venue struct {
	Item
	Description string   `json:"description,omitempty"`
	Address     string   `json:"address,omitempty"`
	MapURL      string   `json:"map_url,omitempty"`
	Photo       *Image   `json:"photo,omitempty"`
	Tag         VenueTag `json:"tag,omitempty"`
	Location    Location `json:"location,omitempty"`
}

type Recommendation struct {
	Item
	Description string             `json:"description,omitempty"`
	URL         string             `json:"url,omitempty"`
	Photo       *Image             `json:"photo,omitempty"`
	Type        RecommendationType `json:"type,omitempty"`
	Location    Location           `json:"location,omitempty"`
}
