package brick

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"bricklayers-go/pkg/errors"
	"bricklayers-go/pkg/gcode"
)

func writeToolpath(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "part.gcode")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write toolpath: %v", err)
	}
	return path
}

// The scanner and the interceptor must count moves identically: feeding
// the scanned file through the live path rewrites exactly the mapped
// ordinals.
func TestEngine_ScanAndLiveOrdinalsAgree(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.StartLayer = 1
	e := New(cfg, quietLogger())

	path := writeToolpath(t, twoLayerToolpath)
	if err := e.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	mapped := make(map[int]bool)
	for _, ord := range e.tmap.Ordinals() {
		mapped[ord] = true
	}

	ordinal := 0
	for _, line := range strings.Split(twoLayerToolpath, "\n") {
		cmd, ok := gcode.ParseMove(line)
		if !ok {
			continue
		}
		ordinal++
		_, rewritten := e.Intercept(cmd)
		if rewritten != mapped[ordinal] {
			t.Fatalf("move #%d: rewritten=%v, scan mapped=%v", ordinal, rewritten, mapped[ordinal])
		}
	}
	if ordinal != 20 {
		t.Fatalf("replayed %d moves, want 20", ordinal)
	}
}

func TestEngine_LoadFailureInstallsEmptyMap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	e := New(cfg, quietLogger())

	err := e.Load(filepath.Join(t.TempDir(), "missing.gcode"))
	if err == nil {
		t.Fatalf("expected load error")
	}
	if !e.Enabled() {
		t.Fatalf("failed load must not flip the enabled flag")
	}
	// Moves pass through unchanged on an empty map.
	in, _ := gcode.ParseMove("G1 X1 E0.1")
	if _, ok := e.Intercept(in); ok {
		t.Fatalf("engine with empty map rewrote a move")
	}
	if st := e.Status(); st.TransformPoints != 0 {
		t.Fatalf("transform points = %d, want 0", st.TransformPoints)
	}
}

func TestEngine_ReloadResetsCounters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.StartLayer = 1
	e := New(cfg, quietLogger())

	path := writeToolpath(t, twoLayerToolpath)
	if err := e.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i := 0; i < 7; i++ {
		in, _ := gcode.ParseMove("G1 X1 E0.1")
		e.Intercept(in)
	}
	if st := e.Status(); st.MovesTotal != 7 {
		t.Fatalf("moves total = %d, want 7", st.MovesTotal)
	}

	if err := e.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	st := e.Status()
	if st.MovesTotal != 0 || st.MovesTransformed != 0 || st.CurrentLayer != 0 {
		t.Fatalf("counters survived reload: %+v", st)
	}

	// After the reset the first move is ordinal 1 again.
	in, _ := gcode.ParseMove("G1 X1 E0.1")
	if _, ok := e.Intercept(in); ok {
		t.Fatalf("move #1 rewritten, map starts at the first inner wall move")
	}
}

func TestEngine_ReloadWithoutToolpath(t *testing.T) {
	e := New(DefaultConfig(), quietLogger())
	if err := e.Reload(); err == nil {
		t.Fatalf("expected error reloading with no toolpath")
	}
}

func TestEngine_EnableCatchUpScan(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartLayer = 1
	e := New(cfg, quietLogger())

	path := writeToolpath(t, twoLayerToolpath)
	e.SetToolpath(path)
	if st := e.Status(); st.TransformPoints != 0 {
		t.Fatalf("SetToolpath must not scan, points = %d", st.TransformPoints)
	}

	if err := e.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	st := e.Status()
	if !st.Enabled {
		t.Fatalf("engine not enabled")
	}
	if st.TransformPoints != 10 {
		t.Fatalf("catch-up scan found %d points, want 10", st.TransformPoints)
	}

	// A second enable must not rescan (the map exists already).
	if err := e.Enable(); err != nil {
		t.Fatalf("Enable again: %v", err)
	}
}

func TestEngine_DisableKeepsMap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.StartLayer = 1
	e := New(cfg, quietLogger())

	path := writeToolpath(t, twoLayerToolpath)
	if err := e.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	e.Disable()
	if e.Enabled() {
		t.Fatalf("engine still enabled")
	}
	if st := e.Status(); st.TransformPoints != 10 {
		t.Fatalf("map dropped on disable, points = %d", st.TransformPoints)
	}
}

func TestEngine_LoadWhileScanning(t *testing.T) {
	e := New(DefaultConfig(), quietLogger())
	e.mu.Lock()
	e.scanning = true
	e.mu.Unlock()

	err := e.Load("part.gcode")
	if !errors.Is(err, errors.ErrScanBusy) {
		t.Fatalf("error = %v, want SCAN_BUSY", err)
	}
}

// The map and the runtime counters must be swapped as one unit: moves
// intercepted while reloads run concurrently may pass through or be
// rewritten, but the counters can never come apart and the installed
// map is always a complete one.
func TestEngine_ConcurrentInterceptAndReload(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.StartLayer = 1
	e := New(cfg, quietLogger())

	path := writeToolpath(t, strings.Repeat(twoLayerToolpath, 50))
	if err := e.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	points := e.Status().TransformPoints

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				in, _ := gcode.ParseMove("G1 X1 E0.1")
				e.Intercept(in)
			}
		}()
	}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := e.Reload(); err != nil && !errors.Is(err, errors.ErrScanBusy) {
					t.Errorf("Reload: %v", err)
					return
				}
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(stop)
	wg.Wait()

	st := e.Status()
	if st.MovesTransformed > st.MovesTotal {
		t.Fatalf("transformed %d of %d moves, counters out of lock-step",
			st.MovesTransformed, st.MovesTotal)
	}
	if st.TransformPoints != points {
		t.Fatalf("transform points changed across reloads: %d vs %d",
			st.TransformPoints, points)
	}
}

func TestEngine_StatusMapKeys(t *testing.T) {
	e := New(DefaultConfig(), quietLogger())
	m := e.StatusMap()
	for _, key := range []string{
		"enabled", "toolpath", "current_layer", "start_layer",
		"z_offset", "extrusion_multiplier", "transform_points",
		"moves_transformed", "moves_total",
	} {
		if _, ok := m[key]; !ok {
			t.Fatalf("status map missing %q", key)
		}
	}
	if m["start_layer"] != 3 {
		t.Fatalf("start_layer = %v, want 3", m["start_layer"])
	}
}
