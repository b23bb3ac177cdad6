package config

import (
	"github.com/manosdelsur/feria/pkg/db"
	"go.uber.org/fx"
)

// DBConfig derives the database settings from the application config.
func DBConfig(cfg Config) db.Config {
	return db.Config{
		Type:            cfg.DBType,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		SSLMode:         cfg.DBSSLMode,
		Path:            cfg.DBPath,
		MaxIdleConn:     cfg.DBMaxIdleConn,
		MaxOpenConn:     cfg.DBMaxOpenConn,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}
}

var Module = fx.Module("config",
	fx.Provide(
		Load,
		DBConfig,
		NewMarketplaceConfigHolder,
	),
)
