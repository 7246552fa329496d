package cms

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseCollection maps a collection name such as "recurring-events".
func ParseCollection(name string) (Collection, bool) {
	c := Collection(name)
	return c, c.IsValid()
}

// DecodeExport parses an exported collection file into its typed item slice.
// Both a bare JSON array and a single API page ({"items": [...]}) are accepted.
func DecodeExport(c Collection, data []byte) (any, int, error) {
	switch c {
	case CollectionSchedule:
		return decodeExport[RawScheduledEvent](data)
	case CollectionSpeakers:
		return decodeExport[RawSpeaker](data)
	case CollectionTalks:
		return decodeExport[RawTalk](data)
	case CollectionWorkshops:
		return decodeExport[RawWorkshop](data)
	case CollectionRecurringEvents:
		return decodeExport[RawRecurringEvent](data)
	case CollectionSponsors:
		return decodeExport[RawSponsor](data)
	case CollectionVenues:
		return decodeExport[RawVenue](data)
	case CollectionRecommendations:
		return decodeExport[RawRecommendation](data)
	default:
		return nil, 0, fmt.Errorf("unknown collection %q", c)
	}
}

func decodeExport[T any](data []byte) (any, int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, 0, fmt.Errorf("empty export")
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, 0, err
		}
		return items, len(items), nil
	}

	var page ItemsPage[T]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, 0, err
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page.Items, len(page.Items), nil
}
