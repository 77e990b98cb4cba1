// Package config holds the CLI's policy defaults. Nothing here is read by
// the filter engine itself; commands resolve a Config and pass explicit
// values down.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the full set of overridable defaults.
type Config struct {
	Build Build `mapstructure:"build"`
	Calc  Calc  `mapstructure:"calc"`
}

// Build holds defaults for the build command.
type Build struct {
	NumBits           uint64  `mapstructure:"num_bits"`
	NumHashes         float64 `mapstructure:"num_hashes"`
	FalsePositiveRate float64 `mapstructure:"false_positive_rate"`
	HashScheme        string  `mapstructure:"hash_scheme"`
}

// Calc holds defaults for the calc command.
type Calc struct {
	FalsePositiveRate float64 `mapstructure:"false_positive_rate"`
	HashRatio         float64 `mapstructure:"num_hashes_to_bits_per_item_ratio"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Build: Build{
			NumBits:           80000,
			NumHashes:         5.7,
			FalsePositiveRate: 0.02,
			HashScheme:        "xxh3",
		},
		Calc: Calc{
			FalsePositiveRate: 0.02,
			HashRatio:         0.7,
		},
	}
}

// Load returns Default overlaid with the YAML (or any viper-supported
// format) file at path. An empty path returns Default.
func Load(path string) (Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("build.num_bits", def.Build.NumBits)
	v.SetDefault("build.num_hashes", def.Build.NumHashes)
	v.SetDefault("build.false_positive_rate", def.Build.FalsePositiveRate)
	v.SetDefault("build.hash_scheme", def.Build.HashScheme)
	v.SetDefault("calc.false_positive_rate", def.Calc.FalsePositiveRate)
	v.SetDefault("calc.num_hashes_to_bits_per_item_ratio", def.Calc.HashRatio)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
