package server

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/tlind/drive-finder/pkg/client"
	"github.com/tlind/drive-finder/pkg/types"
)

const searchCacheTTL = 2 * time.Minute

// cachedFetcher wraps the backend client with the redis cache. Pages are
// keyed by the encoded query so identical searches across sessions share
// an entry. A nil cache means every fetch goes upstream.
type cachedFetcher struct {
	client *client.Client
	cache  *Cache
}

func (f *cachedFetcher) FetchPage(ctx context.Context, criteria *types.Criteria, page, limit int) (*client.Page, error) {
	if f.cache == nil {
		return f.client.FetchPage(ctx, criteria, page, limit)
	}

	query := criteria.Encode()
	key := "search:" + query.Encode() + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(limit)

	cached := client.Page{}
	if err := f.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	fresh, err := f.client.FetchPage(ctx, criteria, page, limit)
	if err != nil {
		return nil, err
	}
	if err := f.cache.Set(ctx, key, fresh, searchCacheTTL); err != nil {
		log.Printf("Error caching search page: %v", err)
	}
	return fresh, nil
}
