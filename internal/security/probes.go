package security

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// DatabaseProbe pings the MySQL connection.
type DatabaseProbe struct {
	DB *gorm.DB
}

// Name implements HealthProbe.
func (DatabaseProbe) Name() string { return "database" }

// Check implements HealthProbe.
func (p DatabaseProbe) Check(ctx context.Context) Health {
	start := time.Now()
	sqlDB, err := p.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		return Health{Status: 0, Message: "unreachable", Error: err.Error(), ResponseTime: elapsed}
	}
	return Health{Status: latencyScore(elapsed, 100), Message: "ok", ResponseTime: elapsed}
}

// CacheProbe pings the Redis connection.
type CacheProbe struct {
	Client *redis.Client
}

// Name implements HealthProbe.
func (CacheProbe) Name() string { return "cache" }

// Check implements HealthProbe.
func (p CacheProbe) Check(ctx context.Context) Health {
	start := time.Now()
	err := p.Client.Ping(ctx).Err()
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		return Health{Status: 0, Message: "unreachable", Error: err.Error(), ResponseTime: elapsed}
	}
	return Health{Status: latencyScore(elapsed, 50), Message: "ok", ResponseTime: elapsed}
}

// StorageProbe checks the object store by listing the bucket.
type StorageProbe struct {
	// Probe reports whether the store answered and how long it took.
	Probe func(ctx context.Context) error
}

// Name implements HealthProbe.
func (StorageProbe) Name() string { return "storage" }

// Check implements HealthProbe.
func (p StorageProbe) Check(ctx context.Context) Health {
	start := time.Now()
	err := p.Probe(ctx)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		return Health{Status: 0, Message: "unreachable", Error: err.Error(), ResponseTime: elapsed}
	}
	return Health{Status: latencyScore(elapsed, 500), Message: "ok", ResponseTime: elapsed}
}

// latencyScore maps a response time onto 0-100: full marks up to the
// budget, degrading linearly until four times over it.
func latencyScore(ms, budget float64) int {
	if ms <= budget {
		return 100
	}
	if ms >= 4*budget {
		return 25
	}
	return int(100 - 25*(ms-budget)/budget)
}
