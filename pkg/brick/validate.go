package brick

import (
	"bufio"
	"io"
	"os"
	"sort"

	"bricklayers-go/pkg/errors"
	"bricklayers-go/pkg/gcode"
)

// CompatReport describes whether a toolpath carries the slicer
// annotations the transform engine depends on.
type CompatReport struct {
	LayerChanges int
	FeatureTypes []string // sorted, unique
	HasInnerWall bool
}

// Compatible reports whether the toolpath can be transformed at all:
// it needs layer boundary markers and feature annotations.
func (r CompatReport) Compatible() bool {
	return r.LayerChanges > 0 && len(r.FeatureTypes) > 0
}

// ValidateReader scans a toolpath for compatibility markers.
func ValidateReader(r io.Reader) (CompatReport, error) {
	var report CompatReport
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		switch ev := gcode.Classify(scanner.Text()); ev.Kind {
		case gcode.LayerMarker:
			report.LayerChanges++
		case gcode.FeatureAnnotation:
			if _, ok := seen[ev.Label]; !ok {
				seen[ev.Label] = struct{}{}
				report.FeatureTypes = append(report.FeatureTypes, ev.Label)
				if gcode.IsInnerWall(ev.Label) {
					report.HasInnerWall = true
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return CompatReport{}, err
	}
	sort.Strings(report.FeatureTypes)
	return report, nil
}

// ValidateFile scans a toolpath file for compatibility markers.
func ValidateFile(path string) (CompatReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return CompatReport{}, errors.ScanSourceError(path, err)
	}
	defer f.Close()

	report, err := ValidateReader(f)
	if err != nil {
		return CompatReport{}, errors.ScanSourceError(path, err)
	}
	return report, nil
}
