// Package bootstrap wires external dependencies for command-line entry points.
package bootstrap

import (
	"fmt"

	"guildboard/internal/cache"
	"guildboard/internal/config"
	"guildboard/internal/database"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis. The Redis client is nil when
// the cache is unreachable; callers treat that as cache-disabled, not fatal.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return db, cache.GetClient(), nil
}
