package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/hellofresh/health-go/v5"
	"github.com/hellofresh/health-go/v5/checks/postgres"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
	"github.com/redis/go-redis/v9"
)

const componentName = "storefront"

type Endpoints struct {
	DB          *sql.DB
	RedisClient *redis.Client
	Version     string
}

// NewHealthHandler registers a check per backing service that is actually
// in use: Postgres unless the memory store is configured, Redis when a host
// is set.
func NewHealthHandler(cfg *config.Config, endpoints *Endpoints) (*health.Health, error) {

	var checks []health.Config

	if cfg.Storage.Driver == config.StorageDriverPostgres {
		checks = append(checks, health.Config{
			Name:      "database",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check: postgres.New(postgres.Config{
				DSN: cfg.Database.GetDSN(),
			}),
		})

		if endpoints != nil && endpoints.DB != nil {
			checks = append(checks, health.Config{
				Name:      "database-pool",
				Timeout:   time.Second,
				SkipOnErr: true,
				Check: func(ctx context.Context) error {
					stats := endpoints.DB.Stats()
					if stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections && stats.WaitCount > 0 {
						return fmt.Errorf("connection pool exhausted: %d in use, %d waits", stats.InUse, stats.WaitCount)
					}
					return nil
				},
			})
		}
	}

	if cfg.RedisConnect.Enabled() {
		checks = append(checks, health.Config{
			Name:    "redis",
			Timeout: 2 * time.Second,
			// locks, rate limits and notifications degrade without Redis,
			// carts and orders keep working
			SkipOnErr: true,
			Check: healthRedis.New(healthRedis.Config{
				DSN: cfg.RedisConnect.GetDSN(),
			}),
		})
	}

	version := "dev"
	if endpoints != nil && endpoints.Version != "" {
		version = endpoints.Version
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    componentName,
			Version: version,
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}
