package brick

import (
	"bricklayers-go/pkg/errors"
	"bricklayers-go/pkg/gcode"
	"bricklayers-go/pkg/log"
)

// Emitter submits a move command to the host executor.
type Emitter interface {
	EmitMove(cmd *gcode.Command) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(cmd *gcode.Command) error

// EmitMove calls f(cmd).
func (f EmitterFunc) EmitMove(cmd *gcode.Command) error {
	return f(cmd)
}

// Intercept handles one live move command. Every intercepted move
// advances the runtime ordinal by exactly one, whether or not it is
// rewritten; this mirrors the scanner's counting rule. The returned
// command is the rewritten replacement, or nil with ok=false when the
// original should execute unchanged.
func (e *Engine) Intercept(cmd *gcode.Command) (*gcode.Command, bool) {
	out, _, ok := e.intercept(cmd)
	return out, ok
}

// Process intercepts one move and submits the outcome to the emitter.
// A failed submission of a rewritten move is fatal for that command
// and propagated: silently dropping a motion command could corrupt
// the physical toolpath mid-print.
func (e *Engine) Process(cmd *gcode.Command, em Emitter) error {
	out, ordinal, ok := e.intercept(cmd)
	if !ok {
		return em.EmitMove(cmd)
	}
	if err := em.EmitMove(out); err != nil {
		return errors.RewriteEmitError(ordinal, err)
	}
	return nil
}

// intercept advances the ordinal, consults the map, and applies the
// matched instruction. Only the counter update and table lookup happen
// under the lock; the rewrite itself is pure.
func (e *Engine) intercept(cmd *gcode.Command) (*gcode.Command, int, bool) {
	e.mu.Lock()
	e.runtimeOrdinal++
	ordinal := e.runtimeOrdinal
	e.movesTotal++

	var ins Instruction
	var hit bool
	if e.tmap != nil {
		ins, hit = e.tmap.Lookup(ordinal)
	}

	// Layer tracking follows the map even while disabled, so status
	// reports stay truthful.
	oldLayer := -1
	if hit && ins.Layer > e.currentLayer {
		oldLayer = e.currentLayer
		e.currentLayer = ins.Layer
	}

	transform := hit && e.enabled && ins.Layer >= e.cfg.StartLayer
	if transform {
		e.movesTransformed++
	}
	verbose := e.cfg.Verbose
	multiplier := e.cfg.ExtrusionMultiplier
	e.mu.Unlock()

	if e.metMovesTotal != nil {
		e.metMovesTotal.Inc()
	}
	if oldLayer >= 0 && verbose {
		e.log.Info("layer change %d -> %d at move #%d", oldLayer, ins.Layer, ordinal)
	}
	if !transform {
		return nil, ordinal, false
	}
	if e.metMovesTransformed != nil {
		e.metMovesTransformed.Inc()
	}

	out := applyInstruction(cmd, ins, multiplier)
	if verbose {
		e.logRewrite(cmd, out, ins, ordinal)
	}
	return out, ordinal, true
}

// applyInstruction produces the rewritten command. Z is force-set to
// the instruction's brick Z even when the input carried no Z at all;
// E, when present, is scaled; no other field is fabricated.
func applyInstruction(cmd *gcode.Command, ins Instruction, multiplier float64) *gcode.Command {
	out := cmd.Clone()
	out.Z = gcode.Float(ins.BrickZ)
	if out.E != nil {
		*out.E *= multiplier
	}
	return out
}

func (e *Engine) logRewrite(in, out *gcode.Command, ins Instruction, ordinal int) {
	entry := e.log.WithFields(log.Fields{
		"move":    ordinal,
		"layer":   ins.Layer,
		"feature": ins.Feature,
	})
	if in.Z != nil {
		entry.Info("Z override: %.3f -> %.3f", *in.Z, *out.Z)
	} else {
		entry.Info("Z injected: %.3f", *out.Z)
	}
	if in.E != nil {
		entry.Info("extrusion adjust: %.5f -> %.5f", *in.E, *out.E)
	}
}
