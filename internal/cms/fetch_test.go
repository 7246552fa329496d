package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeRequester serves pages from in-memory collections keyed by collection id.
type fakeRequester struct {
	mu      sync.Mutex
	items   map[string][]map[string]any
	failing map[string]error
	calls   []string
}

func (f *fakeRequester) DoRequest(_ context.Context, path string, params url.Values) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, path+"?"+params.Encode())
	id := strings.TrimSuffix(strings.TrimPrefix(path, "/collections/"), "/items")
	if err := f.failing[id]; err != nil {
		return nil, err
	}

	all := f.items[id]
	offset, _ := strconv.Atoi(params.Get("offset"))
	limit, _ := strconv.Atoi(params.Get("limit"))
	end := min(offset+limit, len(all))
	page := []map[string]any{}
	if offset < len(all) {
		page = all[offset:end]
	}

	return json.Marshal(map[string]any{
		"items":  page,
		"count":  len(page),
		"limit":  limit,
		"offset": offset,
		"total":  len(all),
	})
}

func (f *fakeRequester) IsCircuitOpen() bool { return false }

func speakers(n int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]any{"_id": fmt.Sprintf("sp-%d", i), "name": fmt.Sprintf("Speaker %d", i)})
	}
	return out
}

func TestFetchItemsPaginatesUntilTotal(t *testing.T) {
	req := &fakeRequester{items: map[string][]map[string]any{"spk": speakers(5)}}

	items, err := FetchItems[RawSpeaker](context.Background(), req, "spk", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(items))
	}
	if items[4].ID != "sp-4" || items[0].Name != "Speaker 0" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if len(req.calls) != 3 {
		t.Fatalf("expected 3 page requests, got %d: %v", len(req.calls), req.calls)
	}
}

func TestFetchItemsEmptyCollection(t *testing.T) {
	req := &fakeRequester{items: map[string][]map[string]any{}}

	items, err := FetchItems[RawSpeaker](context.Background(), req, "none", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}
}

func TestRawItemDecodesEnvelope(t *testing.T) {
	payload := `{"_id":"a1","_cid":"c1","_archived":false,"_draft":true,"name":"Break",
		"slug":"break","created-on":"2025-01-02T03:04:05.000Z","published-on":null,
		"day-time":"2025-04-09T15:00:00.000Z","speaker-s":["x","y"],"speaker-2-2":"h1"}`

	var ev RawScheduledEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.ID != "a1" || !ev.Hidden() || ev.PublishedOn != nil || ev.CreatedOn == nil {
		t.Fatalf("unexpected envelope: %+v", ev.Item)
	}
	if ev.DayTime == nil || !ev.DayTime.Equal(time.Date(2025, 4, 9, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected day-time: %v", ev.DayTime)
	}
	if len(ev.Speakers) != 2 || ev.ShowSpeakerIDs()[0] != "h1" {
		t.Fatalf("unexpected references: %+v", ev)
	}
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

type memoryArchive struct {
	memoryCache
}

func (m *memoryArchive) SaveCollection(ctx context.Context, c string, items any) error {
	return m.Set(ctx, c, items, 0)
}

func (m *memoryArchive) LoadCollection(ctx context.Context, c string, dest any) (bool, error) {
	return m.Get(ctx, c, dest)
}

func allCollectionIDs() map[Collection]string {
	ids := make(map[Collection]string, len(Collections))
	for _, c := range Collections {
		ids[c] = "id-" + c.String()
	}
	return ids
}

func TestFetchAllToleratesFailingCollection(t *testing.T) {
	req := &fakeRequester{
		items: map[string][]map[string]any{
			"id-speakers": speakers(3),
		},
		failing: map[string]error{
			"id-workshops": fmt.Errorf("boom"),
		},
	}

	f := NewFetcher(req, FetcherConfig{CollectionIDs: allCollectionIDs()}, nil, nil, zap.NewNop())
	raw := f.FetchAll(context.Background(), false)

	if raw.Workshops != nil {
		t.Fatalf("failed collection should stay nil")
	}
	if len(raw.Speakers) != 3 {
		t.Fatalf("expected 3 speakers, got %d", len(raw.Speakers))
	}
	if raw.Schedule == nil || len(raw.Schedule) != 0 {
		t.Fatalf("empty collection should be an empty slice")
	}
	failed := raw.Failed()
	if len(failed) != 1 || failed[0] != CollectionWorkshops {
		t.Fatalf("unexpected failed collections: %v", failed)
	}
}

func TestFetchAllUsesCacheAndArchive(t *testing.T) {
	req := &fakeRequester{items: map[string][]map[string]any{"id-speakers": speakers(2)}}
	cache := &memoryCache{data: map[string][]byte{}}
	archive := &memoryArchive{memoryCache{data: map[string][]byte{}}}

	f := NewFetcher(req, FetcherConfig{CollectionIDs: allCollectionIDs()}, cache, archive, zap.NewNop())
	first := f.FetchAll(context.Background(), false)
	if len(first.Speakers) != 2 {
		t.Fatalf("expected 2 speakers, got %d", len(first.Speakers))
	}

	callsAfterFirst := len(req.calls)
	second := f.FetchAll(context.Background(), false)
	if len(second.Speakers) != 2 {
		t.Fatalf("expected cached speakers")
	}
	if len(req.calls) != callsAfterFirst {
		t.Fatalf("cached fetch should not hit the CMS")
	}

	// CMS down and cache bypassed: the archive serves the last good copy.
	req.failing = map[string]error{"id-speakers": fmt.Errorf("down")}
	third := f.FetchAll(context.Background(), true)
	if len(third.Speakers) != 2 || !third.Stale[CollectionSpeakers] {
		t.Fatalf("expected stale archived speakers, got %d stale=%v", len(third.Speakers), third.Stale)
	}
	if third.Errors[CollectionSpeakers] != nil {
		t.Fatalf("archive hit should not be recorded as an error")
	}
}

func TestFetchAllFallsBackToStaleCacheWithoutArchive(t *testing.T) {
	req := &fakeRequester{items: map[string][]map[string]any{"id-speakers": speakers(4)}}
	cache := &memoryCache{data: map[string][]byte{}}

	f := NewFetcher(req, FetcherConfig{CollectionIDs: allCollectionIDs()}, cache, nil, zap.NewNop())
	if first := f.FetchAll(context.Background(), false); len(first.Speakers) != 4 {
		t.Fatalf("expected 4 speakers, got %d", len(first.Speakers))
	}
	if _, ok := cache.data[staleKey(CollectionSpeakers)]; !ok {
		t.Fatalf("stale copy should be written")
	}

	req.failing = map[string]error{"id-speakers": fmt.Errorf("down")}
	second := f.FetchAll(context.Background(), true)
	if len(second.Speakers) != 4 || !second.Stale[CollectionSpeakers] {
		t.Fatalf("expected stale cached speakers, got %d stale=%v", len(second.Speakers), second.Stale)
	}
}
