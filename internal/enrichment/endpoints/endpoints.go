package endpoints

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/skipscan/skipscan/internal/enrichment/domain"
	"github.com/spf13/viper"
)

// Config maps enrichment kinds to provider paths and optional per-kind
// request rate overrides (requests per minute; 0 means the global limit).
type Config struct {
	Paths map[string]string `mapstructure:"paths"`
	Rates map[string]int    `mapstructure:"rates"`
}

func DefaultConfig() Config {
	return Config{
		Paths: map[string]string{
			domain.KindContactAppend:     "/v2/contact",
			domain.KindDemographicAppend: "/v2/demographic",
			domain.KindIndividualSearch:  "/v2/individual",
			domain.KindPropertySearch:    "/v2/property",
			domain.KindPhoneSearch:       "/v2/phone",
		},
		Rates: map[string]int{},
	}
}

// Holder serves the current endpoint table and swaps it atomically when the
// config file changes on disk.
type Holder struct {
	current atomic.Value // holds Config
}

func NewHolder() (*Holder, error) {
	v := viper.New()

	v.SetConfigName("enrichment")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/skipscan/config") // Volume-mounted config
	v.AddConfigPath("/etc/skipscan")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("SKIPSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultConfig()
		v.SetDefault("enrichment.paths", defaults.Paths)
		v.SetDefault("enrichment.rates", defaults.Rates)
	}

	var cfg Config
	if err := v.UnmarshalKey("enrichment", &cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	holder := &Holder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Config
		if err := v.UnmarshalKey("enrichment", &updated); err != nil {
			log.Printf("[enrichment-config] reload failed: %v", err)
			return
		}
		if err := validate(updated); err != nil {
			log.Printf("[enrichment-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[enrichment-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticHolder wraps a fixed config, bypassing the file watcher.
func NewStaticHolder(cfg Config) (*Holder, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	holder := &Holder{}
	holder.current.Store(cfg)
	return holder, nil
}

func (h *Holder) Get() Config {
	return h.current.Load().(Config)
}

// PathFor returns the provider path for a kind, or false when the kind is
// not configured.
func (h *Holder) PathFor(kind string) (string, bool) {
	path, ok := h.Get().Paths[kind]
	return path, ok && strings.TrimSpace(path) != ""
}

// RateFor returns the per-minute override for a kind, 0 when unset.
func (h *Holder) RateFor(kind string) int {
	return h.Get().Rates[kind]
}

func validate(cfg Config) error {
	if len(cfg.Paths) == 0 {
		return errors.New("enrichment.paths cannot be empty")
	}
	for _, kind := range domain.Kinds {
		if strings.TrimSpace(cfg.Paths[kind]) == "" {
			return errors.New("enrichment.paths missing kind " + kind)
		}
	}
	for kind, rate := range cfg.Rates {
		if rate < 0 {
			return errors.New("enrichment.rates negative for kind " + kind)
		}
	}
	return nil
}
