package util

import (
	"slices"
	"time"
)

// GroupBy partitions items by key. Each group keeps the relative input order.
func GroupBy[T any, K comparable](items []T, key func(T) K) map[K][]T {
	groups := make(map[K][]T)
	for _, item := range items {
		k := key(item)
		groups[k] = append(groups[k], item)
	}
	return groups
}

// IndexBy builds a lookup table keyed by key. The first item wins on duplicates.
func IndexBy[T any, K comparable](items []T, key func(T) K) map[K]T {
	index := make(map[K]T, len(items))
	for _, item := range items {
		k := key(item)
		if _, exists := index[k]; exists {
			continue
		}
		index[k] = item
	}
	return index
}

// CompareTime orders two instants, returning a negative, zero or positive number.
func CompareTime(a, b time.Time) int {
	return a.Compare(b)
}

// SortByTime returns a copy of items stably sorted ascending by the instant at returns.
// Items with equal instants keep their relative order.
func SortByTime[T any](items []T, at func(T) time.Time) []T {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return CompareTime(at(a), at(b))
	})
	return sorted
}

// NotEmpty reports whether v is non-nil.
func NotEmpty[T any](v *T) bool {
	return v != nil
}

// Compact drops nil entries without leaving gaps.
func Compact[T any](items []*T) []*T {
	out := make([]*T, 0, len(items))
	for _, item := range items {
		if NotEmpty(item) {
			out = append(out, item)
		}
	}
	return out
}

// Map applies fn to every item.
func Map[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
