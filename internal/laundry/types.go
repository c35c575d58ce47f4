// Package laundry holds the laundry-room domain model and the client for
// the machine-status backend.
package laundry

import (
	"fmt"
	"time"
)

// Level identifies a building floor with a laundry room.
type Level int

// String renders the level for button labels and log attributes.
func (l Level) String() string {
	return fmt.Sprintf("%d", int(l))
}

// Machine is one tracked washer or dryer with its display name.
type Machine struct {
	ID   string
	Name string
}

// MachineState is the availability of a machine at a single observation.
type MachineState int

const (
	// StateAvailable means the machine is free to use.
	StateAvailable MachineState = iota
	// StateInUse means a cycle is running.
	StateInUse
	// StateFinishingSoon covers every other reported code; unknown or
	// future codes degrade into it instead of failing the whole query.
	StateFinishingSoon
)

// String returns a stable name used in logs and tests.
func (s MachineState) String() string {
	switch s {
	case StateAvailable:
		return "available"
	case StateInUse:
		return "in_use"
	default:
		return "finishing_soon"
	}
}

// StateFromCode maps the backend's raw status code to a MachineState.
func StateFromCode(code int) MachineState {
	switch code {
	case 0:
		return StateAvailable
	case 1:
		return StateInUse
	default:
		return StateFinishingSoon
	}
}

// MachineStatus pairs a machine with its observed state.
type MachineStatus struct {
	Machine Machine
	State   MachineState
}

// LevelStatus is a snapshot of one laundry room. Machines keep the
// configured display order. It is built per query and discarded after
// rendering.
type LevelStatus struct {
	Level      Level
	Machines   []MachineStatus
	ObservedAt time.Time
}

// Building describes the fixed set of laundry rooms and machines served
// by one deployment. Immutable after construction.
type Building struct {
	levels   []Level
	machines []Machine
}

// NewBuilding constructs a Building from ordered level and machine lists.
func NewBuilding(levels []int, machines []Machine) Building {
	ls := make([]Level, 0, len(levels))
	for _, l := range levels {
		ls = append(ls, Level(l))
	}
	return Building{
		levels:   ls,
		machines: append([]Machine(nil), machines...),
	}
}

// Levels returns the configured levels in display order.
func (b Building) Levels() []Level {
	return append([]Level(nil), b.levels...)
}

// Machines returns the configured machines in display order.
func (b Building) Machines() []Machine {
	return append([]Machine(nil), b.machines...)
}

// HasLevel reports whether l is one of the configured levels.
func (b Building) HasLevel(l Level) bool {
	for _, known := range b.levels {
		if known == l {
			return true
		}
	}
	return false
}
