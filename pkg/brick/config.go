// Package brick implements the BrickLayers toolpath transform engine:
// a one-pass scanner that maps move ordinals to Z-injection
// instructions, and a live interceptor that applies them so inner-wall
// perimeters interlock across layers like brickwork.
package brick

import (
	"bricklayers-go/pkg/config"
)

// SectionName is the printer.cfg section the engine is configured from.
const SectionName = "brick_layers"

// Config holds the [brick_layers] configuration options.
type Config struct {
	// Enabled controls whether transforms are applied at startup.
	Enabled bool

	// ZOffset is the nominal Z offset in mm (reserved for offset-mode
	// tuning; the injected Z is derived from the tracked layer height).
	ZOffset float64

	// ExtrusionMultiplier scales the E field of transformed moves.
	ExtrusionMultiplier float64

	// StartLayer is the first layer transforms apply to.
	StartLayer int

	// RequireSlicerComments warns when the toolpath carries no TYPE
	// annotations (nothing can be classified without them).
	RequireSlicerComments bool

	// Verbose logs every transform decision.
	Verbose bool
}

// DefaultConfig returns the configuration defaults, matching the
// documented [brick_layers] section.
func DefaultConfig() Config {
	return Config{
		Enabled:               false,
		ZOffset:               0.1,
		ExtrusionMultiplier:   1.05,
		StartLayer:            3,
		RequireSlicerComments: true,
		Verbose:               false,
	}
}

// LoadConfig reads a Config from a [brick_layers] config section.
// Missing options fall back to defaults; malformed values fail.
func LoadConfig(sec *config.Section) (Config, error) {
	def := DefaultConfig()
	cfg := Config{}

	var err error
	if cfg.Enabled, err = sec.GetBool("enabled", def.Enabled); err != nil {
		return Config{}, err
	}
	if cfg.ZOffset, err = sec.GetFloat("z_offset", def.ZOffset); err != nil {
		return Config{}, err
	}
	if cfg.ExtrusionMultiplier, err = sec.GetFloat("extrusion_multiplier", def.ExtrusionMultiplier); err != nil {
		return Config{}, err
	}
	if cfg.StartLayer, err = sec.GetInt("start_layer", def.StartLayer); err != nil {
		return Config{}, err
	}
	if cfg.RequireSlicerComments, err = sec.GetBool("require_slicer_comments", def.RequireSlicerComments); err != nil {
		return Config{}, err
	}
	if cfg.Verbose, err = sec.GetBool("verbose", def.Verbose); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
