package config

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"bricklayers-go/pkg/errors"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Basic(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "printer.cfg", `
# printer configuration
[printer]
kinematics: cartesian

[brick_layers]
enabled: true
z_offset = 0.15   # inline comment
start_layer: 2
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !c.HasSection("brick_layers") {
		t.Fatalf("missing [brick_layers]")
	}
	sec, err := c.Section("brick_layers")
	if err != nil {
		t.Fatalf("Section: %v", err)
	}

	if v, err := sec.GetBool("enabled"); err != nil || !v {
		t.Fatalf("enabled = %v, %v", v, err)
	}
	if v, err := sec.GetFloat("z_offset"); err != nil || v != 0.15 {
		t.Fatalf("z_offset = %v, %v", v, err)
	}
	if v, err := sec.GetInt("start_layer"); err != nil || v != 2 {
		t.Fatalf("start_layer = %v, %v", v, err)
	}

	names := c.SectionNames()
	want := []string{"printer", "brick_layers"}
	if len(names) != 2 || names[0] != want[0] || names[1] != want[1] {
		t.Fatalf("section names = %v, want %v", names, want)
	}
}

func TestLoad_MissingSection(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "printer.cfg", "[printer]\nkinematics: corexy\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, err = c.Section("brick_layers")
	if !errors.Is(err, errors.ErrConfigSection) {
		t.Fatalf("error = %v, want CONFIG_SECTION", err)
	}
}

func TestLoad_Include(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "extras.cfg", "[brick_layers]\nenabled: yes\n")
	path := writeConfig(t, dir, "printer.cfg", "[include extras.cfg]\n[printer]\nkinematics: cartesian\n")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !c.HasSection("brick_layers") {
		t.Fatalf("included section not loaded")
	}
}

func TestLoad_IncludeGlob(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.cfg", "[sec_a]\nx: 1\n")
	writeConfig(t, dir, "b.cfg", "[sec_b]\ny: 2\n")
	path := writeConfig(t, dir, "printer.cfg", "[include ?.cfg]\n")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !c.HasSection("sec_a") || !c.HasSection("sec_b") {
		t.Fatalf("glob include missed sections: %v", c.SectionNames())
	}
}

func TestLoad_MissingInclude(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "printer.cfg", "[include nope.cfg]\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing include")
	}
}

func TestLoad_RecursiveInclude(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "printer.cfg", "[include printer.cfg]\n")
	if _, err := Load(filepath.Join(dir, "printer.cfg")); err == nil {
		t.Fatalf("expected error for recursive include")
	}
}

func TestLoad_SaveConfigLines(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "printer.cfg", `
[printer]
kinematics: cartesian
#*# [brick_layers]
#*# enabled: true
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sec, err := c.Section("brick_layers")
	if err != nil {
		t.Fatalf("SAVE_CONFIG section not parsed: %v", err)
	}
	if v, err := sec.GetBool("enabled"); err != nil || !v {
		t.Fatalf("enabled = %v, %v", v, err)
	}
}

func TestLoad_LaterSectionOverrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "printer.cfg", `
[brick_layers]
start_layer: 2

[brick_layers]
start_layer: 5
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sec, _ := c.Section("brick_layers")
	if v, _ := sec.GetInt("start_layer"); v != 5 {
		t.Fatalf("start_layer = %d, want 5 (later definition wins)", v)
	}
}

func TestLoad_OptionOutsideSection(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "printer.cfg", "orphan: 1\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for option outside a section")
	}
}

func TestSection_TypedAccess(t *testing.T) {
	sec := newSection("test", map[string]string{
		"flag_on":  "on",
		"flag_off": "0",
		"bad_bool": "maybe",
		"bad_int":  "x",
	})

	if v, err := sec.GetBool("flag_on"); err != nil || !v {
		t.Fatalf("flag_on = %v, %v", v, err)
	}
	if v, err := sec.GetBool("flag_off"); err != nil || v {
		t.Fatalf("flag_off = %v, %v", v, err)
	}
	if _, err := sec.GetBool("bad_bool"); !errors.Is(err, errors.ErrConfigValue) {
		t.Fatalf("bad_bool error = %v, want CONFIG_VALUE", err)
	}
	if _, err := sec.GetInt("bad_int"); !errors.Is(err, errors.ErrConfigValue) {
		t.Fatalf("bad_int error = %v, want CONFIG_VALUE", err)
	}
	if _, err := sec.Get("missing"); !errors.Is(err, errors.ErrConfigOption) {
		t.Fatalf("missing error = %v, want CONFIG_OPTION", err)
	}
	if v, err := sec.Get("missing", "fallback"); err != nil || v != "fallback" {
		t.Fatalf("fallback = %q, %v", v, err)
	}
}

func TestSection_UnusedOptions(t *testing.T) {
	sec := newSection("test", map[string]string{
		"used":   "1",
		"unused": "2",
		"typo":   "3",
	})
	if _, err := sec.Get("used"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	unused := sec.UnusedOptions()
	sort.Strings(unused)
	if len(unused) != 2 || unused[0] != "typo" || unused[1] != "unused" {
		t.Fatalf("unused = %v, want [typo unused]", unused)
	}
}
