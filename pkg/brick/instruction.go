package brick

// Instruction describes how one move command is to be rewritten. It is
// recorded by the scanner against the move's ordinal and consumed by
// the interceptor.
type Instruction struct {
	// Layer is the layer index the move belongs to.
	Layer int

	// Feature is the slicer feature label active at the move.
	Feature string

	// OffsetState is the alternating per-layer flag tagging raised vs
	// baseline layers in the brick pattern.
	OffsetState bool

	// SourceZ is the tracked Z height at scan time.
	SourceZ float64

	// LayerHeight is the tracked layer height at scan time.
	LayerHeight float64

	// BrickZ is the Z height injected into the rewritten move. Always
	// SourceZ + LayerHeight/2 at the moment the instruction is made.
	BrickZ float64
}

// makeInstruction derives an Instruction from scan state. BrickZ is
// computed here and nowhere else.
func makeInstruction(layer int, feature string, offsetState bool, sourceZ, layerHeight float64) Instruction {
	return Instruction{
		Layer:       layer,
		Feature:     feature,
		OffsetState: offsetState,
		SourceZ:     sourceZ,
		LayerHeight: layerHeight,
		BrickZ:      sourceZ + layerHeight/2,
	}
}

// TransformMap is the sparse table mapping move ordinals (1-based) to
// rewrite instructions. It is immutable once built; a new toolpath
// replaces it wholesale.
type TransformMap struct {
	entries map[int]Instruction
}

// newTransformMap wraps a built entry table.
func newTransformMap(entries map[int]Instruction) *TransformMap {
	if entries == nil {
		entries = make(map[int]Instruction)
	}
	return &TransformMap{entries: entries}
}

// EmptyTransformMap returns a map with no transform points.
func EmptyTransformMap() *TransformMap {
	return newTransformMap(nil)
}

// Lookup returns the instruction for a move ordinal, if any.
func (m *TransformMap) Lookup(ordinal int) (Instruction, bool) {
	ins, ok := m.entries[ordinal]
	return ins, ok
}

// Len returns the number of transform points.
func (m *TransformMap) Len() int {
	return len(m.entries)
}

// Ordinals returns the mapped ordinals in unspecified order.
func (m *TransformMap) Ordinals() []int {
	out := make([]int, 0, len(m.entries))
	for k := range m.entries {
		out = append(out, k)
	}
	return out
}
