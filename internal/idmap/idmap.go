// Package idmap decodes opaque CMS option identifiers into display labels.
package idmap

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kapu/conference-companion-go/internal/domain"
	apperrors "github.com/kapu/conference-companion-go/pkg/errors"
)

// Category scopes a table of option identifiers.
type Category string

const (
	CategoryScheduleDay        Category = "schedule-day"
	CategoryEventType          Category = "schedule-event-type"
	CategorySpeakerType        Category = "speaker-type"
	CategoryTalkLevel          Category = "talk-level"
	CategoryWorkshopLevel      Category = "workshop-level"
	CategoryTalkType           Category = "talk-type"
	CategorySponsorTier        Category = "sponsor-tier"
	CategoryVenueTag           Category = "venue-tag"
	CategoryRecommendationType Category = "recommendation-type"
	CategoryLocation           Category = "location"
)

// Categories lists every category a table document must define.
var Categories = []Category{
	CategoryScheduleDay,
	CategoryEventType,
	CategorySpeakerType,
	CategoryTalkLevel,
	CategoryWorkshopLevel,
	CategoryTalkType,
	CategorySponsorTier,
	CategoryVenueTag,
	CategoryRecommendationType,
	CategoryLocation,
}

func (c Category) String() string {
	return string(c)
}

func (c Category) IsValid() bool {
	_, ok := labelValidators[c]
	return ok
}

// labels in each table must be values the domain layer knows about
var labelValidators = map[Category]func(string) bool{
	CategoryScheduleDay:        func(s string) bool { return domain.Day(s).IsValid() },
	CategoryEventType:          func(s string) bool { return domain.EventType(s).IsValid() },
	CategorySpeakerType:        func(s string) bool { return domain.SpeakerType(s).IsValid() },
	CategoryTalkLevel:          func(s string) bool { return domain.Level(s).IsValid() },
	CategoryWorkshopLevel:      func(s string) bool { return domain.Level(s).IsValid() },
	CategoryTalkType:           func(s string) bool { return domain.TalkType(s).IsValid() },
	CategorySponsorTier:        func(s string) bool { return domain.SponsorTier(s).IsValid() },
	CategoryVenueTag:           func(s string) bool { return domain.VenueTag(s).IsValid() },
	CategoryRecommendationType: func(s string) bool { return domain.RecommendationType(s).IsValid() },
	CategoryLocation:           func(s string) bool { return domain.Location(s).IsValid() },
}

//go:embed tables.yaml
var defaultTables []byte

// Map holds one identifier -> label table per category. It is immutable after Load.
type Map struct {
	tables map[Category]map[string]string
}

var (
	defaultOnce sync.Once
	defaultMap  *Map
)

// Default returns the embedded tables. A broken embedded table is a build defect,
// so it panics instead of returning an error.
func Default() *Map {
	defaultOnce.Do(func() {
		m, err := Load(defaultTables)
		if err != nil {
			panic(fmt.Sprintf("idmap: embedded tables are invalid: %v", err))
		}
		defaultMap = m
	})
	return defaultMap
}

// Load parses and validates a YAML table document and checks every registered
// field fallback against it.
func Load(data []byte) (*Map, error) {
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.NewConfigError("identifier tables are not valid YAML", "idmap", err)
	}

	m := &Map{tables: make(map[Category]map[string]string, len(raw))}
	for name, table := range raw {
		category := Category(name)
		if !category.IsValid() {
			return nil, apperrors.NewConfigError(fmt.Sprintf("unknown category %q", name), "idmap", nil)
		}
		if err := validateTable(category, table); err != nil {
			return nil, err
		}
		m.tables[category] = table
	}

	for _, category := range Categories {
		if len(m.tables[category]) == 0 {
			return nil, apperrors.NewConfigError(fmt.Sprintf("category %q has no identifiers", category), "idmap", nil)
		}
	}

	if err := m.ValidateFields(Fields...); err != nil {
		return nil, err
	}
	return m, nil
}

func validateTable(category Category, table map[string]string) error {
	valid := labelValidators[category]
	seen := make(map[string]string, len(table))
	for id, label := range table {
		switch {
		case strings.TrimSpace(id) == "":
			return apperrors.NewConfigError(fmt.Sprintf("%s: empty identifier", category), "idmap", nil)
		case label == "":
			return apperrors.NewConfigError(fmt.Sprintf("%s: identifier %s has no label", category, id), "idmap", nil)
		case !valid(label):
			return apperrors.NewConfigError(fmt.Sprintf("%s: unknown label %q", category, label), "idmap", nil)
		}
		if other, dup := seen[label]; dup {
			return apperrors.NewConfigError(
				fmt.Sprintf("%s: label %q mapped by both %s and %s", category, label, other, id), "idmap", nil)
		}
		seen[label] = id
	}
	return nil
}

// ValidateFields checks that each field's fallback identifier exists in its category.
func (m *Map) ValidateFields(fields ...Field) error {
	for _, f := range fields {
		if f.Fallback == "" {
			continue
		}
		if _, ok := m.Resolve(f.Category, f.Fallback); !ok {
			return apperrors.NewConfigError(
				fmt.Sprintf("field %q: fallback %s missing from %s", f.Name, f.Fallback, f.Category), "idmap", nil)
		}
	}
	return nil
}

// Resolve looks up id in category.
func (m *Map) Resolve(category Category, id string) (string, bool) {
	label, ok := m.tables[category][id]
	return label, ok
}

// ResolveField looks up id for field, retrying with the field's fallback identifier
// on a miss. Fields without a fallback resolve to "" on a miss.
func (m *Map) ResolveField(f Field, id string) string {
	if label, ok := m.Resolve(f.Category, id); ok {
		return label
	}
	if f.Fallback == "" {
		return ""
	}
	label, _ := m.Resolve(f.Category, f.Fallback)
	return label
}

// IdentifierFor is the reverse lookup from a label to its CMS identifier.
func (m *Map) IdentifierFor(category Category, label string) (string, bool) {
	for id, l := range m.tables[category] {
		if l == label {
			return id, true
		}
	}
	return "", false
}

// Labels returns the labels of a category, sorted.
func (m *Map) Labels(category Category) []string {
	labels := make([]string, 0, len(m.tables[category]))
	for _, l := range m.tables[category] {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}
