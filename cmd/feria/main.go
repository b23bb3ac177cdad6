package main

import (
	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/manosdelsur/feria/internal/clock"
	"github.com/manosdelsur/feria/internal/config"
	"github.com/manosdelsur/feria/internal/migration"
	"github.com/manosdelsur/feria/internal/observability"
	"github.com/manosdelsur/feria/internal/server"
	"github.com/manosdelsur/feria/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		fx.Provide(newRedisClient),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

// newRedisClient returns nil when no address is configured; the unread
// cache and the order rate limiter degrade to their DB/no-op paths.
func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
