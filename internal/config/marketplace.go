package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// MarketplaceConfig carries operator-tunable marketplace policy. It lives in
// marketplace.yml so moderation policy can change without a redeploy.
type MarketplaceConfig struct {
	Reviews struct {
		// CountPendingInRating restores the legacy behavior in which reviews
		// awaiting moderation still count toward a product's average rating.
		CountPendingInRating bool `mapstructure:"count_pending_in_rating"`
	} `mapstructure:"reviews"`

	Notifications struct {
		// EmailMirror sends a best-effort email copy of each notification.
		EmailMirror bool `mapstructure:"email_mirror"`
	} `mapstructure:"notifications"`
}

func DefaultMarketplaceConfig() MarketplaceConfig {
	return MarketplaceConfig{}
}

// MarketplaceConfigHolder provides lock-free access to the current policy.
type MarketplaceConfigHolder struct {
	current atomic.Value // holds MarketplaceConfig
}

func NewMarketplaceConfigHolder() (*MarketplaceConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("marketplace")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/feria")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FERIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &MarketplaceConfigHolder{}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		holder.current.Store(DefaultMarketplaceConfig())
		return holder, nil
	}

	cfg, err := unmarshalMarketplace(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalMarketplace(v)
		if err != nil {
			log.Printf("marketplace config reload failed: %v", err)
			return
		}
		holder.current.Store(cfg)
	})
	v.WatchConfig()

	return holder, nil
}

func (h *MarketplaceConfigHolder) Get() MarketplaceConfig {
	if cfg, ok := h.current.Load().(MarketplaceConfig); ok {
		return cfg
	}
	return DefaultMarketplaceConfig()
}

// Set replaces the current policy. Intended for tests.
func (h *MarketplaceConfigHolder) Set(cfg MarketplaceConfig) {
	h.current.Store(cfg)
}

func unmarshalMarketplace(v *viper.Viper) (MarketplaceConfig, error) {
	var cfg MarketplaceConfig
	if err := v.UnmarshalKey("marketplace", &cfg); err != nil {
		return MarketplaceConfig{}, err
	}
	return cfg, nil
}
