package projection

import (
	"fmt"
	"strings"
)

// Axis identifies one coordinate axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Valid reports whether a is one of x, y or z.
func (a Axis) Valid() bool {
	return a >= AxisX && a <= AxisZ
}

// ParseAxis parses a single axis name (case-insensitive).
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("%w: unknown axis %q", ErrInvalidArgument, s)
}

// ParseAxes parses an axis set written either compactly ("xy") or
// comma separated ("x,y").
func ParseAxes(s string) ([]Axis, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty axis set", ErrInvalidArgument)
	}

	var names []string
	if strings.Contains(s, ",") {
		names = strings.Split(s, ",")
	} else {
		names = strings.Split(s, "")
	}

	axes := make([]Axis, 0, len(names))
	for _, n := range names {
		a, err := ParseAxis(n)
		if err != nil {
			return nil, err
		}
		axes = append(axes, a)
	}
	if err := validateAxes(axes); err != nil {
		return nil, err
	}
	return axes, nil
}

// validateAxes enforces that axes is a non-empty set of valid axes.
func validateAxes(axes []Axis) error {
	if len(axes) == 0 {
		return fmt.Errorf("%w: empty axis set", ErrInvalidArgument)
	}
	var seen [3]bool
	for _, a := range axes {
		if !a.Valid() {
			return fmt.Errorf("%w: axis %v outside {x,y,z}", ErrInvalidArgument, a)
		}
		if seen[a] {
			return fmt.Errorf("%w: duplicate axis %v", ErrInvalidArgument, a)
		}
		seen[a] = true
	}
	return nil
}
