package brick

import (
	"sync"
	"time"

	"bricklayers-go/pkg/errors"
	"bricklayers-go/pkg/log"
	"bricklayers-go/pkg/metrics"
)

// Engine owns the transform state for one loaded toolpath: the sparse
// transform map, the live move ordinal, and the enabled flag. The map
// and the runtime counters are always swapped together; the
// interceptor can never observe a map from one toolpath paired with
// counters from another.
type Engine struct {
	mu  sync.Mutex
	cfg Config
	log *log.Logger

	enabled  bool
	scanning bool

	// Loaded toolpath identity and its map. A nil map means no scan
	// has produced results for the current toolpath yet.
	path string
	tmap *TransformMap

	// Live interception state, reset on every (re)load.
	runtimeOrdinal int
	currentLayer   int

	movesTotal       int64
	movesTransformed int64

	// Optional metrics, attached by the host.
	metMovesTotal       *metrics.Counter
	metMovesTransformed *metrics.Counter
	metScansTotal       *metrics.Counter
	metTransformPoints  *metrics.Gauge
	metScanSeconds      *metrics.Gauge
}

// New creates an engine with the given configuration. A nil logger
// falls back to the package default.
func New(cfg Config, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.GetLogger(SectionName)
	}
	e := &Engine{
		cfg:     cfg,
		log:     logger,
		enabled: cfg.Enabled,
	}
	logger.Info("initialized: z_offset=%.3f, multiplier=%.3f, start_layer=%d",
		cfg.ZOffset, cfg.ExtrusionMultiplier, cfg.StartLayer)
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// AttachMetrics registers the engine's metrics on a registry.
func (e *Engine) AttachMetrics(reg *metrics.Registry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metMovesTotal = reg.Counter("brick_moves_total",
		"Move commands seen by the interceptor")
	e.metMovesTransformed = reg.Counter("brick_moves_transformed_total",
		"Move commands rewritten by the interceptor")
	e.metScansTotal = reg.Counter("brick_scans_total",
		"Toolpath scan passes completed")
	e.metTransformPoints = reg.Gauge("brick_transform_points",
		"Transform points in the current map")
	e.metScanSeconds = reg.Gauge("brick_scan_duration_seconds",
		"Duration of the most recent toolpath scan")
}

// Load scans a toolpath file and installs the resulting map. The
// runtime counters are reset in the same critical section as the map
// swap. A failed scan installs an empty map, so the engine keeps
// passing moves through unchanged.
//
// A Load while another scan is in flight is rejected, never
// interleaved.
func (e *Engine) Load(path string) error {
	e.mu.Lock()
	if e.scanning {
		e.mu.Unlock()
		return errors.ScanBusyError(path)
	}
	e.scanning = true
	startLayer := e.cfg.StartLayer
	e.mu.Unlock()

	e.log.Info("preprocessing %s", path)
	start := time.Now()
	tmap, stats, err := ScanFile(path, startLayer)
	elapsed := time.Since(start)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.scanning = false
	e.path = path
	e.runtimeOrdinal = 0
	e.currentLayer = 0
	e.movesTotal = 0
	e.movesTransformed = 0

	if err != nil {
		e.tmap = EmptyTransformMap()
		if e.metTransformPoints != nil {
			e.metTransformPoints.Set(0)
		}
		e.log.WithError(err).Error("preprocessing failed, moves will pass through")
		return err
	}

	e.tmap = tmap
	if e.metScansTotal != nil {
		e.metScansTotal.Inc()
		e.metTransformPoints.Set(float64(tmap.Len()))
		e.metScanSeconds.Set(elapsed.Seconds())
	}

	e.log.Info("preprocessed %d lines (%d moves) in %.2fs",
		stats.Lines, stats.Moves, elapsed.Seconds())
	e.log.Info("found %d transform points", tmap.Len())
	if e.cfg.RequireSlicerComments && stats.FeatureAnnotations == 0 {
		e.log.Warn("no slicer TYPE comments found in %s; nothing will be transformed", path)
	}
	return nil
}

// SetToolpath records a newly loaded toolpath without scanning it.
// Used when a file is loaded while the engine is disabled; enabling
// later triggers a catch-up scan.
func (e *Engine) SetToolpath(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.path = path
	e.tmap = nil
	e.runtimeOrdinal = 0
	e.currentLayer = 0
	e.movesTotal = 0
	e.movesTransformed = 0
	if e.metTransformPoints != nil {
		e.metTransformPoints.Set(0)
	}
}

// Reload rescans the current toolpath.
func (e *Engine) Reload() error {
	e.mu.Lock()
	path := e.path
	e.mu.Unlock()
	if path == "" {
		return errors.New(errors.ErrScanSource, "no toolpath loaded")
	}
	return e.Load(path)
}

// Enable turns transforms on. If a toolpath is loaded but no map has
// been built for it yet, a catch-up scan runs first.
func (e *Engine) Enable() error {
	e.mu.Lock()
	e.enabled = true
	needScan := e.tmap == nil && e.path != ""
	path := e.path
	e.mu.Unlock()

	if needScan {
		e.log.Info("enabled, triggering catch-up preprocessing")
		return e.Load(path)
	}
	e.log.Info("enabled")
	return nil
}

// Disable turns transforms off. The map stays installed.
func (e *Engine) Disable() {
	e.mu.Lock()
	e.enabled = false
	e.mu.Unlock()
	e.log.Info("disabled")
}

// Enabled reports whether transforms are applied.
func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// Status is a point-in-time snapshot of the engine.
type Status struct {
	Enabled             bool    `json:"enabled"`
	Toolpath            string  `json:"toolpath"`
	CurrentLayer        int     `json:"current_layer"`
	StartLayer          int     `json:"start_layer"`
	ZOffset             float64 `json:"z_offset"`
	ExtrusionMultiplier float64 `json:"extrusion_multiplier"`
	TransformPoints     int     `json:"transform_points"`
	MovesTransformed    int64   `json:"moves_transformed"`
	MovesTotal          int64   `json:"moves_total"`
}

// Status returns a snapshot of the engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	points := 0
	if e.tmap != nil {
		points = e.tmap.Len()
	}
	return Status{
		Enabled:             e.enabled,
		Toolpath:            e.path,
		CurrentLayer:        e.currentLayer,
		StartLayer:          e.cfg.StartLayer,
		ZOffset:             e.cfg.ZOffset,
		ExtrusionMultiplier: e.cfg.ExtrusionMultiplier,
		TransformPoints:     points,
		MovesTransformed:    e.movesTransformed,
		MovesTotal:          e.movesTotal,
	}
}

// StatusMap returns the snapshot in the key/value form the host API
// exposes to frontends.
func (e *Engine) StatusMap() map[string]any {
	st := e.Status()
	return map[string]any{
		"enabled":              st.Enabled,
		"toolpath":             st.Toolpath,
		"current_layer":        st.CurrentLayer,
		"start_layer":          st.StartLayer,
		"z_offset":             st.ZOffset,
		"extrusion_multiplier": st.ExtrusionMultiplier,
		"transform_points":     st.TransformPoints,
		"moves_transformed":    st.MovesTransformed,
		"moves_total":          st.MovesTotal,
	}
}
