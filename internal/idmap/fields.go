package idmap

// Fallback identifiers used when a CMS option field is blank or carries an
// identifier that is not in the table.
const (
	FallbackDayID         = "2bff549f87dbd6965dac7a90acf641ea" // Wednesday
	FallbackEventTypeID   = "b9b37de36534b0c83f3a949c47fc173a" // Talk
	FallbackSpeakerTypeID = "33bab89f3e5acd15b0426918cd7387fa" // Speaker
	FallbackTalkTypeID    = "4572c548c80b162567916d1975f89e48" // Talk
	FallbackSponsorTierID = "82b6371571fc4249f7e2f298b6991cb4" // Other
	FallbackLocationID    = "5d84b6de093c29094a45bcb509b28bca" // Elsewhere
)

// Field binds a raw CMS option field to its category and fallback identifier.
// An empty Fallback means the field is optional and resolves to "" on a miss.
type Field struct {
	Name     string
	Category Category
	Fallback string
}

var (
	FieldDay                = Field{Name: "day", Category: CategoryScheduleDay, Fallback: FallbackDayID}
	FieldEventType          = Field{Name: "event-type", Category: CategoryEventType, Fallback: FallbackEventTypeID}
	FieldSpeakerType        = Field{Name: "speaker-type", Category: CategorySpeakerType, Fallback: FallbackSpeakerTypeID}
	FieldTalkLevel          = Field{Name: "talk-level", Category: CategoryTalkLevel}
	FieldTalkType           = Field{Name: "talk-type", Category: CategoryTalkType, Fallback: FallbackTalkTypeID}
	FieldWorkshopLevel      = Field{Name: "level", Category: CategoryWorkshopLevel}
	FieldSponsorTier        = Field{Name: "tier", Category: CategorySponsorTier, Fallback: FallbackSponsorTierID}
	FieldVenueTag           = Field{Name: "tag", Category: CategoryVenueTag}
	FieldRecommendationType = Field{Name: "type", Category: CategoryRecommendationType}
	FieldLocation           = Field{Name: "location", Category: CategoryLocation, Fallback: FallbackLocationID}
)

// Fields is every field Load validates.
var Fields = []Field{
	FieldDay,
	FieldEventType,
	FieldSpeakerType,
	FieldTalkLevel,
	FieldTalkType,
	FieldWorkshopLevel,
	FieldSponsorTier,
	FieldVenueTag,
	FieldRecommendationType,
	FieldLocation,
}
