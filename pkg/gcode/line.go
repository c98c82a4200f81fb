package gcode

import (
	"strconv"
	"strings"
)

// Kind tags the classification of one toolpath line.
type Kind int

const (
	// Other covers every line the engine ignores, including
	// recognized markers with malformed payloads.
	Other Kind = iota

	// LayerMarker is a layer boundary comment.
	LayerMarker

	// ZAnnotation is a ";Z:<float>" comment setting the current Z.
	ZAnnotation

	// HeightAnnotation is a layer height comment.
	HeightAnnotation

	// FeatureAnnotation is a ";TYPE:<label>" comment.
	FeatureAnnotation

	// MoveCommand is a G1 move.
	MoveCommand
)

// String returns the name of the classification kind.
func (k Kind) String() string {
	switch k {
	case LayerMarker:
		return "layer_marker"
	case ZAnnotation:
		return "z_annotation"
	case HeightAnnotation:
		return "height_annotation"
	case FeatureAnnotation:
		return "feature_annotation"
	case MoveCommand:
		return "move"
	default:
		return "other"
	}
}

// Event is the result of classifying one line. Value carries the float
// payload of Z and height annotations, Label the feature annotation
// text, and Move the parsed command of a MoveCommand line.
type Event struct {
	Kind  Kind
	Value float64
	Label string
	Move  *Command
}

// Classify tags a single toolpath line. It is a pure function: no
// state, no I/O, first matching rule wins.
func Classify(line string) Event {
	trimmed := strings.TrimSpace(line)

	// Layer boundaries come in two slicer vocabularies.
	if strings.Contains(trimmed, ";LAYER_CHANGE") || strings.HasPrefix(trimmed, ";LAYER:") {
		return Event{Kind: LayerMarker}
	}

	if strings.HasPrefix(trimmed, ";Z:") {
		v, err := strconv.ParseFloat(strings.TrimSpace(trimmed[len(";Z:"):]), 64)
		if err != nil {
			return Event{Kind: Other}
		}
		return Event{Kind: ZAnnotation, Value: v}
	}

	if strings.HasPrefix(trimmed, ";HEIGHT:") {
		v, err := strconv.ParseFloat(strings.TrimSpace(trimmed[len(";HEIGHT:"):]), 64)
		if err != nil {
			return Event{Kind: Other}
		}
		return Event{Kind: HeightAnnotation, Value: v}
	}
	if strings.HasPrefix(trimmed, ";layer_height") {
		v, ok := firstFloatToken(trimmed[len(";layer_height"):])
		if !ok {
			return Event{Kind: Other}
		}
		return Event{Kind: HeightAnnotation, Value: v}
	}

	if idx := strings.Index(trimmed, ";TYPE:"); idx >= 0 {
		label := strings.TrimSpace(trimmed[idx+len(";TYPE:"):])
		if label == "" {
			return Event{Kind: Other}
		}
		return Event{Kind: FeatureAnnotation, Label: label}
	}

	if cmd, ok := ParseMove(trimmed); ok {
		return Event{Kind: MoveCommand, Move: cmd}
	}

	return Event{Kind: Other}
}

// firstFloatToken extracts the first parseable float from a string of
// the form " = 0.2" or " 0.2", as emitted after ";layer_height".
func firstFloatToken(s string) (float64, bool) {
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '='
	}) {
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// innerWallMarkers are the vocabulary fragments used by slicers to tag
// inner perimeter features ("Inner wall", "WALL-INNER",
// "Internal perimeter", ...).
var innerWallMarkers = []string{"inner", "internal perimeter"}

// IsInnerWall reports whether a feature label names an inner-wall
// perimeter. The match is case-insensitive and substring-based to
// tolerate varying slicer vocabularies.
func IsInnerWall(label string) bool {
	if label == "" {
		return false
	}
	lower := strings.ToLower(label)
	for _, marker := range innerWallMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
