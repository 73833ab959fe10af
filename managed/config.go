// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package managed

import (
	"math"

	"github.com/pkg/errors"
)

const (
	// DefaultImmediateTrigger is the pool size at which an insert runs an
	// unscheduled cleanup before adding its entry.
	DefaultImmediateTrigger = 2000
	// DefaultImmediateGoal is the size an unscheduled cleanup stops at.
	DefaultImmediateGoal = 1500
	// DefaultScheduledTrigger is the size a scheduled pass must reach before
	// it removes anything besides reclaimed entries.
	DefaultScheduledTrigger = DefaultImmediateGoal
	// DefaultScheduledGoal is the size weighted removal stops at in a
	// scheduled pass.
	DefaultScheduledGoal = 1000
	// DefaultAgingThreshold is the size below which a scheduled pass leaves
	// hit counters alone.
	DefaultAgingThreshold = 750

	// MaxHits is the saturation point of an entry's hit counter.
	MaxHits = math.MaxUint16

	defaultInitialCapacity = 800
)

// Config holds the eviction thresholds of a Pool. Zero fields take their
// defaults in Build.
type Config struct {
	ImmediateTrigger int
	ImmediateGoal    int
	ScheduledTrigger int
	ScheduledGoal    int
	AgingThreshold   int
	InitialCapacity  int
}

// DefaultConfig returns the thresholds tuned for a long running client.
func DefaultConfig() Config {
	return Config{
		ImmediateTrigger: DefaultImmediateTrigger,
		ImmediateGoal:    DefaultImmediateGoal,
		ScheduledTrigger: DefaultScheduledTrigger,
		ScheduledGoal:    DefaultScheduledGoal,
		AgingThreshold:   DefaultAgingThreshold,
		InitialCapacity:  defaultInitialCapacity,
	}
}

// Build fills unset fields with defaults and clamps each goal to its
// trigger, so a pass never tries to shrink below the point it started at.
func (c Config) Build() Config {
	d := DefaultConfig()
	if c.ImmediateTrigger <= 0 {
		c.ImmediateTrigger = d.ImmediateTrigger
	}
	if c.ImmediateGoal <= 0 {
		c.ImmediateGoal = d.ImmediateGoal
	}
	if c.ScheduledTrigger <= 0 {
		c.ScheduledTrigger = d.ScheduledTrigger
	}
	if c.ScheduledGoal <= 0 {
		c.ScheduledGoal = d.ScheduledGoal
	}
	if c.AgingThreshold <= 0 {
		c.AgingThreshold = d.AgingThreshold
	}
	if c.InitialCapacity <= 0 {
		c.InitialCapacity = d.InitialCapacity
	}
	c.ImmediateGoal = min(c.ImmediateGoal, c.ImmediateTrigger)
	c.ScheduledGoal = min(c.ScheduledGoal, c.ScheduledTrigger)
	return c
}

// Validate reports thresholds that Build would have to rewrite. Unset
// fields are valid.
func (c Config) Validate() error {
	switch {
	case c.ImmediateTrigger < 0, c.ImmediateGoal < 0, c.ScheduledTrigger < 0,
		c.ScheduledGoal < 0, c.AgingThreshold < 0, c.InitialCapacity < 0:
		return errors.New("thresholds must not be negative")
	case c.ImmediateTrigger > 0 && c.ImmediateGoal > c.ImmediateTrigger:
		return errors.Errorf("immediate goal %d exceeds trigger %d", c.ImmediateGoal, c.ImmediateTrigger)
	case c.ScheduledTrigger > 0 && c.ScheduledGoal > c.ScheduledTrigger:
		return errors.Errorf("scheduled goal %d exceeds trigger %d", c.ScheduledGoal, c.ScheduledTrigger)
	}
	return nil
}
