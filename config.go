// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package intern

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/luxfi/intern/managed"
)

const (
	// DefaultInterval is the period of the maintenance scheduler.
	DefaultInterval = time.Minute

	// EnvDisable turns every interning call into a pass-through when set to "1".
	EnvDisable = "STRINGINTERNER_DISABLE"
	// EnvInterval overrides the maintenance period, in time.ParseDuration form.
	EnvInterval = "STRINGINTERNER_INTERVAL"
)

// Config configures an Interner. The zero value is usable; New fills unset
// fields with defaults.
type Config struct {
	// Disabled starts the interner as a pass-through. See Interner.SetDisabled.
	Disabled bool
	// Interval is the maintenance period once Start has been called.
	Interval time.Duration
	// Pool holds the managed pool's eviction thresholds.
	Pool managed.Config

	Logger   logrus.FieldLogger
	Observer managed.Observer
}

// DefaultConfig returns the configuration used by Default when the
// environment sets nothing.
func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		Pool:     managed.DefaultConfig(),
	}
}

// ConfigFromEnv returns DefaultConfig adjusted by EnvDisable and EnvInterval.
// An unparsable interval is logged and ignored.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.Disabled = os.Getenv(EnvDisable) == "1"
	if v := os.Getenv(EnvInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d > 0 {
			cfg.Interval = d
		} else {
			logrus.WithField("value", v).Warnf("ignoring invalid %s", EnvInterval)
		}
	}
	return cfg
}

// Validate reports settings New would have to replace.
func (c Config) Validate() error {
	if c.Interval < 0 {
		return errors.Errorf("negative maintenance interval %s", c.Interval)
	}
	return errors.Wrap(c.Pool.Validate(), "pool")
}

func (c Config) build() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	c.Pool = c.Pool.Build()
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger().WithField("component", "intern")
	}
	return c
}
