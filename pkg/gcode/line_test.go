package gcode

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		line  string
		kind  Kind
		value float64
		label string
	}{
		{";LAYER_CHANGE", LayerMarker, 0, ""},
		{"  ;LAYER_CHANGE  ", LayerMarker, 0, ""},
		{"; before ;LAYER_CHANGE after", LayerMarker, 0, ""},
		{";LAYER:12", LayerMarker, 0, ""},
		{";LAYER:", LayerMarker, 0, ""},
		{";Z:0.6", ZAnnotation, 0.6, ""},
		{";Z: 1.25", ZAnnotation, 1.25, ""},
		{";Z:abc", Other, 0, ""},
		{";Z:", Other, 0, ""},
		{";HEIGHT:0.2", HeightAnnotation, 0.2, ""},
		{";HEIGHT:x", Other, 0, ""},
		{";layer_height = 0.25", HeightAnnotation, 0.25, ""},
		{";layer_height 0.3", HeightAnnotation, 0.3, ""},
		{";layer_height =", Other, 0, ""},
		{";TYPE:Inner wall", FeatureAnnotation, 0, "Inner wall"},
		{";TYPE:External perimeter", FeatureAnnotation, 0, "External perimeter"},
		{";TYPE:", Other, 0, ""},
		{"G1 X1 Y2 E0.1", MoveCommand, 0, ""},
		{"G1", MoveCommand, 0, ""},
		{"G10", Other, 0, ""},
		{"M117 hello", Other, 0, ""},
		{"", Other, 0, ""},
		{"; plain comment", Other, 0, ""},
	}
	for _, c := range cases {
		t.Run(c.line, func(t *testing.T) {
			ev := Classify(c.line)
			if ev.Kind != c.kind {
				t.Fatalf("Classify(%q).Kind = %v, want %v", c.line, ev.Kind, c.kind)
			}
			if ev.Value != c.value {
				t.Fatalf("Classify(%q).Value = %v, want %v", c.line, ev.Value, c.value)
			}
			if ev.Label != c.label {
				t.Fatalf("Classify(%q).Label = %q, want %q", c.line, ev.Label, c.label)
			}
		})
	}
}

func TestClassify_MarkerBeatsMove(t *testing.T) {
	// A line carrying both a marker fragment and move-like text is a
	// marker; classification is priority ordered.
	ev := Classify("G1 X1 ;TYPE:Inner wall")
	if ev.Kind != FeatureAnnotation {
		t.Fatalf("got %v, want feature annotation", ev.Kind)
	}
}

func TestIsInnerWall(t *testing.T) {
	cases := []struct {
		label string
		want  bool
	}{
		{"Inner wall", true},
		{"WALL-INNER", true},
		{"inner_wall", true},
		{"Internal perimeter", true},
		{"Internal perimeter 2", true},
		{"External perimeter", false},
		{"Perimeter", false},
		{"WALL-OUTER", false},
		{"Internal infill", false},
		{"Skirt/Brim", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsInnerWall(c.label); got != c.want {
			t.Fatalf("IsInnerWall(%q) = %v, want %v", c.label, got, c.want)
		}
	}
}
