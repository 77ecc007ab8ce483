package risk

import (
	"fmt"
	"strings"
)

// Direction is the side of a trade. It decides which way stops and
// targets are placed relative to the entry price.
type Direction int

const (
	Long Direction = iota + 1
	Short
)

// ParseDirection accepts "long"/"buy" and "short"/"sell" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy":
		return Long, nil
	case "short", "sell":
		return Short, nil
	}
	return 0, fmt.Errorf("%w: direction %q (want long or short)", ErrInvalidArgument, s)
}

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Valid reports whether d is Long or Short.
func (d Direction) Valid() bool {
	return d == Long || d == Short
}

// sign is +1 for Long and -1 for Short.
func (d Direction) sign() float64 {
	switch d {
	case Long:
		return 1
	case Short:
		return -1
	}
	return 0
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: direction %d", ErrInvalidArgument, int(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Set and Type let a Direction be used directly as a pflag value.
func (d *Direction) Set(s string) error {
	return d.UnmarshalText([]byte(s))
}

func (d *Direction) Type() string {
	return "direction"
}
