package brick

import (
	"bufio"
	"io"
	"os"

	"bricklayers-go/pkg/errors"
	"bricklayers-go/pkg/gcode"
)

// DefaultLayerHeight is assumed until the toolpath announces its own.
const DefaultLayerHeight = 0.2

// scanState is the mutable record carried across one scan pass. It is
// scoped to a single Builder and discarded with it.
type scanState struct {
	layer       int
	feature     string
	offsetState bool
	currentZ    float64
	layerHeight float64
	moveOrdinal int
}

// ScanStats summarizes one scan pass over a toolpath.
type ScanStats struct {
	Lines              int
	Moves              int
	LayerMarkers       int
	FeatureAnnotations int
	TransformPoints    int
}

// Builder runs the single forward pass over a toolpath, deriving the
// sparse TransformMap. Feeding the same input twice into two builders
// with the same start layer yields identical maps.
type Builder struct {
	startLayer int
	state      scanState
	entries    map[int]Instruction
	stats      ScanStats
}

// NewBuilder creates a builder for one scan pass.
func NewBuilder(startLayer int) *Builder {
	return &Builder{
		startLayer: startLayer,
		state:      scanState{layerHeight: DefaultLayerHeight},
		entries:    make(map[int]Instruction),
	}
}

// Line classifies and consumes one toolpath line.
func (b *Builder) Line(line string) {
	b.stats.Lines++
	b.apply(gcode.Classify(line))
}

// apply advances the scan state machine by one event.
func (b *Builder) apply(ev gcode.Event) {
	st := &b.state
	switch ev.Kind {
	case gcode.LayerMarker:
		st.layer++
		b.stats.LayerMarkers++
		if st.layer >= b.startLayer {
			st.offsetState = !st.offsetState
		}

	case gcode.ZAnnotation:
		st.currentZ = ev.Value

	case gcode.HeightAnnotation:
		st.layerHeight = ev.Value

	case gcode.FeatureAnnotation:
		st.feature = ev.Label
		b.stats.FeatureAnnotations++

	case gcode.MoveCommand:
		st.moveOrdinal++
		b.stats.Moves++
		// Z embedded in the move itself is the fallback tracker; it
		// becomes the current Z until the next annotation.
		if ev.Move.Z != nil {
			st.currentZ = *ev.Move.Z
		}
		if gcode.IsInnerWall(st.feature) && st.layer >= b.startLayer {
			b.entries[st.moveOrdinal] = makeInstruction(
				st.layer, st.feature, st.offsetState, st.currentZ, st.layerHeight)
		}
	}
}

// Scan consumes all lines from r.
func (b *Builder) Scan(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		b.Line(scanner.Text())
	}
	return scanner.Err()
}

// Finish returns the built map and the pass statistics. The builder
// must not be fed further lines afterwards.
func (b *Builder) Finish() (*TransformMap, ScanStats) {
	b.stats.TransformPoints = len(b.entries)
	return newTransformMap(b.entries), b.stats
}

// ScanFile runs a full builder pass over a toolpath file. An
// unreadable source yields a SCAN_SOURCE error and no map.
func ScanFile(path string, startLayer int) (*TransformMap, ScanStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ScanStats{}, errors.ScanSourceError(path, err)
	}
	defer f.Close()

	b := NewBuilder(startLayer)
	if err := b.Scan(f); err != nil {
		return nil, ScanStats{}, errors.ScanSourceError(path, err)
	}
	tm, stats := b.Finish()
	return tm, stats, nil
}
