package session

import (
	"fmt"
	"strings"

	"github.com/banshee-data/faceoverlay/internal/placement"
)

// Command is a user action applied to a Session between frames.
type Command interface {
	// Kind is the command name as written on the command line.
	Kind() string
	// Arg is the command argument.
	Arg() string
	apply(s *Session) error
}

// SelectVariant switches the active variant.
type SelectVariant struct {
	ID string
}

func (SelectVariant) Kind() string             { return "select" }
func (c SelectVariant) Arg() string            { return c.ID }
func (c SelectVariant) apply(s *Session) error { return s.SelectVariant(c.ID) }

// Nudge moves the manual offset one step.
type Nudge struct {
	Direction placement.Direction
}

func (Nudge) Kind() string  { return "nudge" }
func (c Nudge) Arg() string { return string(c.Direction) }
func (c Nudge) apply(s *Session) error {
	if _, err := placement.ParseDirection(string(c.Direction)); err != nil {
		return err
	}
	s.Nudge(c.Direction)
	return nil
}

// ParseCommand parses one command line:
//
//	select <variant>
//	nudge up|down|left|right
//
// A bare direction is shorthand for nudge.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	verb := strings.ToLower(fields[0])
	if len(fields) == 1 {
		if d, err := placement.ParseDirection(verb); err == nil {
			return Nudge{Direction: d}, nil
		}
	}
	if len(fields) != 2 {
		return nil, fmt.Errorf("command %q: want \"<verb> <arg>\"", line)
	}
	switch verb {
	case "select", "variant":
		return SelectVariant{ID: fields[1]}, nil
	case "nudge", "move":
		d, err := placement.ParseDirection(strings.ToLower(fields[1]))
		if err != nil {
			return nil, err
		}
		return Nudge{Direction: d}, nil
	}
	return nil, fmt.Errorf("unknown command %q", verb)
}
