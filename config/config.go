// Package config loads the simulation's tunable tables from YAML with
// environment-variable overrides. Loading is the one stage that fails hard:
// a missing file, an unknown archetype name or a malformed value aborts
// startup instead of limping into a half-configured run.
package config

import (
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"

	"github.com/shopsim-xyz/go-shopsim/clock"
	"github.com/shopsim-xyz/go-shopsim/customer"
	"github.com/shopsim-xyz/go-shopsim/economy"
	"github.com/shopsim-xyz/go-shopsim/register"
	"github.com/shopsim-xyz/go-shopsim/shop"
)

// envPrefix namespaces the override variables, e.g. SHOPSIM_SIM_DAYS=14.
const envPrefix = "SHOPSIM_"

// Sim holds the runner options that sit outside the shop itself.
type Sim struct {
	Days         int     `json:"days" yaml:"days"`               // 0 runs until victory or bankruptcy
	TickSeconds  float64 `json:"tickSeconds" yaml:"tickSeconds"` // simulation step size
	JournalPath  string  `json:"journalPath" yaml:"journalPath"` // JSONL export target, empty disables
	DatabasePath string  `json:"databasePath" yaml:"databasePath"`
	ListenAddr   string  `json:"listenAddr" yaml:"listenAddr"`
	LogLevel     string  `json:"logLevel" yaml:"logLevel"`
}

// ShopOptions are the scalar shop knobs; the tables live beside them.
type ShopOptions struct {
	CamerasInstalled bool    `json:"camerasInstalled" yaml:"camerasInstalled"`
	SpawnInterval    float64 `json:"spawnInterval" yaml:"spawnInterval"`
	InitialRegisters int     `json:"initialRegisters" yaml:"initialRegisters"`
	Seed             int64   `json:"seed" yaml:"seed"`
}

// Config is the full on-disk configuration. Customer and register tables
// are keyed by name; names are resolved to their enum tags when the shop
// config is built.
type Config struct {
	Sim       Sim                           `json:"sim" yaml:"sim"`
	Clock     clock.Settings                `json:"clock" yaml:"clock"`
	Economy   economy.Settings              `json:"economy" yaml:"economy"`
	Shop      ShopOptions                   `json:"shop" yaml:"shop"`
	Customers map[string]customer.TypeData  `json:"customers" yaml:"customers"`
	Registers map[string]register.ClassData `json:"registers" yaml:"registers"`
}

var kindsByName = map[string]customer.Kind{
	"elderly":    customer.Elderly,
	"teenager":   customer.Teenager,
	"regular":    customer.Regular,
	"aggressive": customer.Aggressive,
	"vip":        customer.VIP,
}

var classesByName = map[string]register.Class{
	"basic":    register.Basic,
	"enhanced": register.Enhanced,
	"premium":  register.Premium,
}

// Default returns the stock configuration: default tables, one-second
// ticks, no persistence.
func Default() *Config {
	customers := make(map[string]customer.TypeData)
	for kind, data := range customer.DefaultTable() {
		customers[strings.ToLower(kind.String())] = data
	}
	registers := make(map[string]register.ClassData)
	for class, data := range register.DefaultClasses() {
		registers[strings.ToLower(class.String())] = data
	}
	return &Config{
		Sim: Sim{
			Days:        7,
			TickSeconds: 0.5,
			ListenAddr:  ":8080",
			LogLevel:    "info",
		},
		Clock:     clock.DefaultSettings(),
		Economy:   economy.DefaultSettings(),
		Shop:      ShopOptions{SpawnInterval: customer.DefaultSpawnInterval, InitialRegisters: 2, Seed: 1},
		Customers: customers,
		Registers: registers,
	}
}

// Load reads a YAML file over the defaults and applies SHOPSIM_* overrides.
// An empty path skips the file and still honors the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "config: reading %s", path)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, envPrefix)
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "config: loading environment overrides")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrap(err, "config: unmarshal")
	}

	return cfg, nil
}

// ShopConfig resolves the named tables into the shop's typed config. An
// unrecognized customer or register name is a hard error.
func (c *Config) ShopConfig() (shop.Config, error) {
	customers := make(customer.Table, len(c.Customers))
	for name, data := range c.Customers {
		kind, ok := kindsByName[strings.ToLower(name)]
		if !ok {
			return shop.Config{}, errors.Errorf("config: unknown customer archetype %q", name)
		}
		customers[kind] = data
	}

	registers := make(register.Classes, len(c.Registers))
	for name, data := range c.Registers {
		class, ok := classesByName[strings.ToLower(name)]
		if !ok {
			return shop.Config{}, errors.Errorf("config: unknown register class %q", name)
		}
		registers[class] = data
	}

	return shop.Config{
		Clock:            c.Clock,
		Economy:          c.Economy,
		Customers:        customers,
		Registers:        registers,
		CamerasInstalled: c.Shop.CamerasInstalled,
		SpawnInterval:    c.Shop.SpawnInterval,
		InitialRegisters: c.Shop.InitialRegisters,
		Seed:             c.Shop.Seed,
	}, nil
}
