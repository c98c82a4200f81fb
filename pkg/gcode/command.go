// Package gcode provides toolpath line classification and move command
// parsing for the BrickLayers transform engine.
package gcode

import (
	"strconv"
	"strings"
)

// Command represents a parsed G1 move command. Each axis field is
// optional; a nil pointer means the field was absent from the source
// line.
type Command struct {
	X *float64
	Y *float64
	Z *float64
	E *float64
	F *float64

	// Raw is the original source line, preserved so pass-through
	// emission does not reformat untouched moves.
	Raw string
}

// Float returns a pointer to v, for building commands with optional fields.
func Float(v float64) *float64 {
	return &v
}

// ParseMove parses a G1 line into a Command. The line must start with
// the G1 token; ok is false otherwise. Unknown or malformed fields are
// ignored rather than failing the whole move.
func ParseMove(line string) (*Command, bool) {
	trimmed := strings.TrimSpace(line)
	if !isMoveLine(trimmed) {
		return nil, false
	}

	// Strip any trailing comment before splitting fields.
	body := trimmed
	if idx := strings.IndexByte(body, ';'); idx >= 0 {
		body = strings.TrimSpace(body[:idx])
	}

	cmd := &Command{Raw: line}
	for _, field := range strings.Fields(body)[1:] {
		if len(field) < 2 {
			continue
		}
		value, err := strconv.ParseFloat(field[1:], 64)
		if err != nil {
			continue
		}
		switch field[0] {
		case 'X':
			cmd.X = &value
		case 'Y':
			cmd.Y = &value
		case 'Z':
			cmd.Z = &value
		case 'E':
			cmd.E = &value
		case 'F':
			cmd.F = &value
		}
	}
	return cmd, true
}

// isMoveLine reports whether a trimmed line starts with the G1 token.
// "G10" and similar commands are not moves.
func isMoveLine(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "G1") {
		return false
	}
	return len(trimmed) == 2 || trimmed[2] == ' ' || trimmed[2] == '\t' || trimmed[2] == ';'
}

// Clone returns a deep copy of the command. The rewritten copy drops
// the raw line since it no longer matches the field values.
func (c *Command) Clone() *Command {
	out := &Command{}
	if c.X != nil {
		out.X = Float(*c.X)
	}
	if c.Y != nil {
		out.Y = Float(*c.Y)
	}
	if c.Z != nil {
		out.Z = Float(*c.Z)
	}
	if c.E != nil {
		out.E = Float(*c.E)
	}
	if c.F != nil {
		out.F = Float(*c.F)
	}
	return out
}

// String renders the command in canonical form: the G1 token followed
// by the present fields in X, Y, Z, E, F order at six decimal places.
func (c *Command) String() string {
	parts := []string{"G1"}
	appendField := func(letter byte, v *float64) {
		if v != nil {
			parts = append(parts, string(letter)+strconv.FormatFloat(*v, 'f', 6, 64))
		}
	}
	appendField('X', c.X)
	appendField('Y', c.Y)
	appendField('Z', c.Z)
	appendField('E', c.E)
	appendField('F', c.F)
	return strings.Join(parts, " ")
}
