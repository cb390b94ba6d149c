package utils

import (
	"CineVault/internal/repo"
	"CineVault/model"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis cache client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
	}
}

// Get reads a cached value.
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

// Set writes a cached value.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, string(data), expiration).Err()
}

// Delete removes a cache entry.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// DeleteByPattern deletes cache entries by pattern.
func (c *RedisCache) DeleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return nil
}

// Exists checks whether a cache key exists.
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	count, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type CacheManager struct {
	cache Cache
}

var globalCacheManager *CacheManager
var cacheManagerOnce sync.Once

// InitCacheManager initializes the cache manager.
func InitCacheManager() {
	cacheManagerOnce.Do(func() {
		globalCacheManager = &CacheManager{
			cache: NewRedisCache(repo.Redis),
		}
	})
}

// GetCacheManager returns the cache manager.
func GetCacheManager() *CacheManager {
	if globalCacheManager == nil {
		InitCacheManager()
	}
	return globalCacheManager
}

// BuildCacheKey builds a cache key.
func BuildCacheKey(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key += fmt.Sprintf(":%v", param)
	}
	return key
}

const (
	CacheKeyMovieList      = "movie:list"
	CacheKeyMovieDetail    = "movie:detail"
	CacheKeyFeaturedMovies = "movie:featured"
	CacheKeyDashboard      = "dashboard:stats"
)

type MovieListCache struct {
	Movies []model.Movie `json:"movies"`
	Total  int64         `json:"total"`
}

// GetMovieListFromCache reads a cached catalog page.
func GetMovieListFromCache(
	ctx context.Context,
	categoryID uint64,
	page int,
	pageSize int,
	orderBy string,
	orderDesc bool,
) (*MovieListCache, bool) {
	manager := GetCacheManager()
	key := BuildCacheKey(CacheKeyMovieList, categoryID, page, pageSize, orderBy, orderDesc)

	var result MovieListCache
	if err := manager.cache.Get(ctx, key, &result); err != nil {
		return nil, false
	}
	return &result, true
}

// SetMovieListToCache writes a cached catalog page.
func SetMovieListToCache(
	ctx context.Context,
	categoryID uint64,
	page int,
	pageSize int,
	orderBy string,
	orderDesc bool,
	data *MovieListCache,
	expiration time.Duration,
) error {
	manager := GetCacheManager()
	key := BuildCacheKey(CacheKeyMovieList, categoryID, page, pageSize, orderBy, orderDesc)
	return manager.cache.Set(ctx, key, data, expiration)
}

// InvalidateMovieListCache clears every cached catalog page. Catalog
// mutations are rare enough that the wildcard scan is acceptable.
func InvalidateMovieListCache(ctx context.Context) error {
	manager := GetCacheManager()
	cache, ok := manager.cache.(*RedisCache)
	if !ok {
		return nil
	}
	if err := cache.DeleteByPattern(ctx, CacheKeyMovieList+":*"); err != nil {
		return err
	}
	return cache.Delete(ctx, CacheKeyFeaturedMovies)
}

// GetMovieDetailFromCache reads a cached movie by slug.
func GetMovieDetailFromCache(ctx context.Context, slug string) (*model.Movie, bool) {
	manager := GetCacheManager()
	key := BuildCacheKey(CacheKeyMovieDetail, slug)

	var result model.Movie
	if err := manager.cache.Get(ctx, key, &result); err != nil {
		return nil, false
	}
	return &result, true
}

// SetMovieDetailToCache writes a cached movie by slug.
func SetMovieDetailToCache(ctx context.Context, slug string, data *model.Movie, expiration time.Duration) error {
	manager := GetCacheManager()
	key := BuildCacheKey(CacheKeyMovieDetail, slug)
	return manager.cache.Set(ctx, key, data, expiration)
}

// InvalidateMovieDetailCache clears a cached movie by slug.
func InvalidateMovieDetailCache(ctx context.Context, slug string) error {
	manager := GetCacheManager()
	key := BuildCacheKey(CacheKeyMovieDetail, slug)
	return manager.cache.Delete(ctx, key)
}

// GetFeaturedMoviesFromCache reads the cached featured list.
func GetFeaturedMoviesFromCache(ctx context.Context) ([]model.Movie, bool) {
	manager := GetCacheManager()

	var result []model.Movie
	if err := manager.cache.Get(ctx, CacheKeyFeaturedMovies, &result); err != nil {
		return nil, false
	}
	return result, true
}

// SetFeaturedMoviesToCache writes the cached featured list.
func SetFeaturedMoviesToCache(ctx context.Context, data []model.Movie, expiration time.Duration) error {
	manager := GetCacheManager()
	return manager.cache.Set(ctx, CacheKeyFeaturedMovies, data, expiration)
}

// GetDashboardFromCache reads the cached dashboard payload.
func GetDashboardFromCache(ctx context.Context, dest interface{}) bool {
	manager := GetCacheManager()
	return manager.cache.Get(ctx, CacheKeyDashboard, dest) == nil
}

// SetDashboardToCache writes the cached dashboard payload.
func SetDashboardToCache(ctx context.Context, data interface{}, expiration time.Duration) error {
	manager := GetCacheManager()
	return manager.cache.Set(ctx, CacheKeyDashboard, data, expiration)
}

// InvalidateDashboardCache clears the cached dashboard payload.
func InvalidateDashboardCache(ctx context.Context) error {
	manager := GetCacheManager()
	return manager.cache.Delete(ctx, CacheKeyDashboard)
}
