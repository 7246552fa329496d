package normalize

import (
	"time"

	"github.com/kapu/conference-companion-go/internal/cms"
	"github.com/kapu/conference-companion-go/internal/domain"
	"github.com/kapu/conference-companion-go/internal/util"
)

type hideable interface {
	Hidden() bool
}

// visible drops archived and draft records, keeping order.
func visible[T hideable](items []T) []T {
	return util.GroupBy(items, func(item T) bool { return !item.Hidden() })[true]
}

type identified interface {
	Identifier() string
}

func byID[T identified](items []T) map[string]T {
	return util.IndexBy(items, func(item T) string { return item.Identifier() })
}

func resolveOne[T any](index map[string]*T, id string) *T {
	if id == "" {
		return nil
	}
	return index[id]
}

func resolveMany[T any](index map[string]*T, ids []string) []*T {
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		out = append(out, resolveOne(index, id))
	}
	return util.Compact(out)
}

func toItem(r cms.Item) domain.Item {
	return domain.Item{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		CreatedOn:   copyTime(r.CreatedOn),
		UpdatedOn:   copyTime(r.UpdatedOn),
		PublishedOn: copyTime(r.PublishedOn),
	}
}

func toImage(img *cms.Image) *domain.Image {
	if img == nil || img.URL == "" {
		return nil
	}
	return &domain.Image{URL: img.URL, Alt: img.Alt}
}

func imageURL(img *cms.Image) string {
	if img == nil {
		return ""
	}
	return img.URL
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
