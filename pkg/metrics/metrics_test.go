// Metrics tests
//
// Copyright (C) 2025 Justin Hayes
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"strings"
	"sync"
	"testing"
)

func TestCounter(t *testing.T) {
	r := NewRegistry()
	c := r.Counter("test_total", "test counter")

	c.Inc()
	c.Inc()
	c.Add(3.5)
	if got := c.Value(); got != 5.5 {
		t.Fatalf("value = %v, want 5.5", got)
	}

	// Counters never go down.
	c.Add(-2)
	if got := c.Value(); got != 5.5 {
		t.Fatalf("value after negative add = %v, want 5.5", got)
	}
}

func TestCounter_Concurrent(t *testing.T) {
	r := NewRegistry()
	c := r.Counter("test_total", "")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()

	if got := c.Value(); got != 8000 {
		t.Fatalf("value = %v, want 8000", got)
	}
}

func TestGauge(t *testing.T) {
	r := NewRegistry()
	g := r.Gauge("test_gauge", "test gauge")

	g.Set(42)
	if got := g.Value(); got != 42 {
		t.Fatalf("value = %v, want 42", got)
	}
	g.Set(1.5)
	if got := g.Value(); got != 1.5 {
		t.Fatalf("value = %v, want 1.5", got)
	}
}

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry()
	a := r.Counter("shared_total", "help")
	b := r.Counter("shared_total", "ignored")
	if a != b {
		t.Fatalf("same name must return the same counter")
	}
	a.Inc()
	if b.Value() != 1 {
		t.Fatalf("counters diverged")
	}
}

func TestRegistry_Render(t *testing.T) {
	r := NewRegistry()
	r.Counter("moves_total", "Moves seen").Add(20)
	r.Gauge("transform_points", "Points in the map").Set(10)
	r.Gauge("scan_seconds", "").Set(0.25)

	out := r.Render()
	for _, want := range []string{
		"# HELP moves_total Moves seen\n",
		"# TYPE moves_total counter\n",
		"moves_total 20\n",
		"# TYPE transform_points gauge\n",
		"transform_points 10\n",
		"scan_seconds 0.25\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
	// No HELP line when help is empty.
	if strings.Contains(out, "# HELP scan_seconds") {
		t.Fatalf("unexpected HELP line for undocumented metric:\n%s", out)
	}
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{10, "10"},
		{-3, "-3"},
		{0.25, "0.25"},
		{1.5, "1.5"},
	}
	for _, c := range cases {
		if got := formatValue(c.in); got != c.want {
			t.Fatalf("formatValue(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
