package domain

import "time"

// CardVariant selects the card layout the client renders.
type CardVariant string

const (
	CardVariantTalk      CardVariant = "talk"
	CardVariantWorkshop  CardVariant = "workshop"
	CardVariantRecurring CardVariant = "recurring"
)

func (v CardVariant) String() string {
	return string(v)
}

func (v CardVariant) IsValid() bool {
	switch v {
	case CardVariantTalk, CardVariantWorkshop, CardVariantRecurring:
		return true
	default:
		return false
	}
}

// ScheduleCard is the display-ready projection of a ScheduledEvent.
type ScheduleCard struct {
	ID                 string      `json:"id"`
	Variant            CardVariant `json:"variant"`
	Type               EventType   `json:"type"`
	Day                Day         `json:"day"`
	Start              time.Time   `json:"start"`
	FormattedStartTime string      `json:"formatted_start_time"`
	FormattedEndTime   string      `json:"formatted_end_time,omitempty"`
	Heading            string      `json:"heading"`
	Subheading         string      `json:"subheading,omitempty"`
	Photos             []string    `json:"photos"`
	Promo              *Promo      `json:"promo,omitempty"`
}
