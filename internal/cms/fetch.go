package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/conference-companion-go/internal/constants"
	"github.com/kapu/conference-companion-go/pkg/errors"
)

// FetchItems pages through a collection until the reported total is reached.
func FetchItems[T any](ctx context.Context, requester Requester, collectionID string, pageSize int) ([]T, error) {
	if pageSize <= 0 {
		pageSize = constants.APIConfig.CMSPageSize
	}

	path := fmt.Sprintf("/collections/%s/items", url.PathEscape(collectionID))
	items := make([]T, 0)
	offset := 0

	for page := 0; page < constants.APIConfig.CMSMaxPages; page++ {
		params := url.Values{}
		params.Set("offset", strconv.Itoa(offset))
		params.Set("limit", strconv.Itoa(pageSize))

		body, err := requester.DoRequest(ctx, path, params)
		if err != nil {
			return nil, err
		}

		var resp ItemsPage[T]
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, errors.NewAPIError("malformed collection page", 502, map[string]any{
				"collection": collectionID,
				"offset":     offset,
			}).WithCause(err)
		}

		items = append(items, resp.Items...)
		received := len(resp.Items)
		if resp.Count > received {
			received = resp.Count
		}
		offset += received

		if received == 0 || offset >= resp.Total {
			return items, nil
		}
	}

	return items, nil
}

// Cache is the subset of the Redis cache the fetcher reads through.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Archive keeps the last good copy of every collection so a CMS outage can be
// served from it.
type Archive interface {
	SaveCollection(ctx context.Context, collection string, items any) error
	LoadCollection(ctx context.Context, collection string, dest any) (bool, error)
}

type FetcherConfig struct {
	CollectionIDs map[Collection]string
	PageSize      int
	Concurrency   int
}

// Fetcher loads every configured collection concurrently.
type Fetcher struct {
	requester Requester
	cfg       FetcherConfig
	cache     Cache
	archive   Archive
	logger    *zap.Logger
}

// NewFetcher builds a fetcher. cache and archive may be nil.
func NewFetcher(requester Requester, cfg FetcherConfig, cache Cache, archive Archive, logger *zap.Logger) *Fetcher {
	if cfg.PageSize <= 0 {
		cfg.PageSize = constants.APIConfig.CMSPageSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = constants.APIConfig.FetchConcurrent
	}
	return &Fetcher{
		requester: requester,
		cfg:       cfg,
		cache:     cache,
		archive:   archive,
		logger:    logger,
	}
}

// FetchAll fetches every collection. A failed collection stays nil and its error
// is recorded in RawContent.Errors; the others still complete.
func (f *Fetcher) FetchAll(ctx context.Context, bypassCache bool) *RawContent {
	raw := &RawContent{
		Errors: make(map[Collection]error),
		Stale:  make(map[Collection]bool),
	}
	var mu sync.Mutex

	record := func(c Collection, stale bool, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			raw.Errors[c] = err
		}
		if stale {
			raw.Stale[c] = true
		}
	}

	p := pool.New().WithMaxGoroutines(f.cfg.Concurrency)
	p.Go(func() {
		items, stale, err := fetchCollection[RawScheduledEvent](ctx, f, CollectionSchedule, bypassCache)
		raw.Schedule = items
		record(CollectionSchedule, stale, err)
	})
	p.Go(func() {
		items, stale, err := fetchCollection[RawSpeaker](ctx, f, CollectionSpeakers, bypassCache)
		raw.Speakers = items
		record(CollectionSpeakers, stale, err)
	})
	p.Go(func() {
		items, stale, err := fetchCollection[RawTalk](ctx, f, CollectionTalks, bypassCache)
		raw.Talks = items
		record(CollectionTalks, stale, err)
	})
	p.Go(func() {
		items, stale, err := fetchCollection[RawWorkshop](ctx, f, CollectionWorkshops, bypassCache)
		raw.Workshops = items
		record(CollectionWorkshops, stale, err)
	})
	p.Go(func() {
		items, stale, err := fetchCollection[RawRecurringEvent](ctx, f, CollectionRecurringEvents, bypassCache)
		raw.RecurringEvents = items
		record(CollectionRecurringEvents, stale, err)
	})
	p.Go(func() {
		items, stale, err := fetchCollection[RawSponsor](ctx, f, CollectionSponsors, bypassCache)
		raw.Sponsors = items
		record(CollectionSponsors, stale, err)
	})
	p.Go(func() {
		items, stale, err := fetchCollection[RawVenue](ctx, f, CollectionVenues, bypassCache)
		raw.Venues = items
		record(CollectionVenues, stale, err)
	})
	p.Go(func() {
		items, stale, err := fetchCollection[RawRecommendation](ctx, f, CollectionRecommendations, bypassCache)
		raw.Recommendations = items
		record(CollectionRecommendations, stale, err)
	})
	p.Wait()

	raw.FetchedAt = time.Now()

	if failed := raw.Failed(); len(failed) > 0 {
		f.logger.Warn("Some CMS collections could not be loaded",
			zap.Any("collections", failed),
		)
	}
	return raw
}

// fetchCollection reads through the cache, falls back to the archive when the CMS
// fails, and refreshes both on success. The stale flag marks archive hits.
func fetchCollection[T any](ctx context.Context, f *Fetcher, c Collection, bypassCache bool) ([]T, bool, error) {
	collectionID, ok := f.cfg.CollectionIDs[c]
	if !ok || collectionID == "" {
		return nil, false, errors.NewValidationError("collection is not configured", "collection", c.String())
	}

	key := cacheKey(c)
	if f.cache != nil && !bypassCache {
		var cached []T
		hit, err := f.cache.Get(ctx, key, &cached)
		if err != nil {
			f.logger.Warn("Collection cache read failed", zap.String("collection", c.String()), zap.Error(err))
		} else if hit && cached != nil {
			return cached, false, nil
		}
	}

	start := time.Now()
	items, err := FetchItems[T](ctx, f.requester, collectionID, f.cfg.PageSize)
	if err != nil {
		f.logger.Warn("Collection fetch failed",
			zap.String("collection", c.String()),
			zap.Error(err),
		)
		if f.archive != nil {
			var archived []T
			found, aerr := f.archive.LoadCollection(ctx, c.String(), &archived)
			if aerr != nil {
				f.logger.Warn("Collection archive read failed", zap.String("collection", c.String()), zap.Error(aerr))
			} else if found {
				f.logger.Info("Serving archived collection", zap.String("collection", c.String()), zap.Int("items", len(archived)))
				return archived, true, nil
			}
		}
		if f.cache != nil {
			var stale []T
			hit, cerr := f.cache.Get(ctx, staleKey(c), &stale)
			if cerr == nil && hit && stale != nil {
				f.logger.Info("Serving stale cached collection", zap.String("collection", c.String()), zap.Int("items", len(stale)))
				return stale, true, nil
			}
		}
		return nil, false, fmt.Errorf("fetch %s: %w", c, err)
	}

	f.logger.Debug("Collection fetched",
		zap.String("collection", c.String()),
		zap.Int("items", len(items)),
		zap.Duration("took", time.Since(start)),
	)

	if f.cache != nil {
		if err := f.cache.Set(ctx, key, items, constants.CacheTTL.RawCollection); err != nil {
			f.logger.Warn("Collection cache write failed", zap.String("collection", c.String()), zap.Error(err))
		}
		if err := f.cache.Set(ctx, staleKey(c), items, constants.CacheTTL.StaleCollection); err != nil {
			f.logger.Warn("Stale collection cache write failed", zap.String("collection", c.String()), zap.Error(err))
		}
	}
	if f.archive != nil {
		if err := f.archive.SaveCollection(ctx, c.String(), items); err != nil {
			f.logger.Warn("Collection archive write failed", zap.String("collection", c.String()), zap.Error(err))
		}
	}
	return items, false, nil
}

func cacheKey(c Collection) string {
	return constants.RedisConfig.KeyPrefix + "cms:" + c.String()
}

// staleKey holds the last good copy for much longer than cacheKey.
func staleKey(c Collection) string {
	return cacheKey(c) + ":stale"
}
