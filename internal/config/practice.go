package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PracticeConfig holds the accountancy practice details printed on
// generated statements.
type PracticeConfig struct {
	Name         string   `mapstructure:"name"`
	AddressLines []string `mapstructure:"addressLines"`
	Phone        string   `mapstructure:"phone"`
	Email        string   `mapstructure:"email"`
	Website      string   `mapstructure:"website"`
}

func DefaultPracticeConfig() PracticeConfig {
	return PracticeConfig{
		Name: "Ledgerwell Accounting",
	}
}

// PracticeHolder serves the current practice configuration and hot-reloads
// it when the file changes, so letterhead edits don't need a restart.
type PracticeHolder struct {
	current atomic.Value // holds PracticeConfig
}

func NewPracticeHolder() (*PracticeHolder, error) {
	v := viper.New()

	v.SetConfigName("practice")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/praxis/config")
	v.AddConfigPath("/etc/praxis")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PRAXIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultPracticeConfig()
		v.SetDefault("practice.name", defaults.Name)
	}

	var cfg PracticeConfig
	if err := v.UnmarshalKey("practice", &cfg); err != nil {
		return nil, err
	}
	if err := validatePracticeConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PracticeHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PracticeConfig
		if err := v.UnmarshalKey("practice", &updated); err != nil {
			log.Printf("[practice-config] reload failed: %v", err)
			return
		}
		if err := validatePracticeConfig(updated); err != nil {
			log.Printf("[practice-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[practice-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *PracticeHolder) Get() PracticeConfig {
	return h.current.Load().(PracticeConfig)
}

// StaticPracticeHolder wraps a fixed configuration, for tests and tools
// that do not watch a config file.
func StaticPracticeHolder(cfg PracticeConfig) *PracticeHolder {
	holder := &PracticeHolder{}
	holder.current.Store(cfg)
	return holder
}

func validatePracticeConfig(cfg PracticeConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return errors.New("practice.name cannot be empty")
	}
	return nil
}
