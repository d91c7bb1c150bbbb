package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/voxelsplace/carve/view"
)

var ErrCalibration = errors.New("dataset: malformed calibration")

// calibrationFields is K (9), R (9) and t (3).
const calibrationFields = 21

// CameraParams is one calibration line.
type CameraParams struct {
	Name string
	K    [9]float64
	R    [9]float64
	T    [3]float64
}

func (p CameraParams) Camera() *view.Camera {
	return view.NewCamera(p.K, p.R, r3.Vec{X: p.T[0], Y: p.T[1], Z: p.T[2]})
}

// ParseCalibration reads a calibration file: a header line, then one line
// per image holding a name token followed by K and R row-major and t.
// Blank lines are skipped.
func ParseCalibration(r io.Reader) ([]CameraParams, error) {
	sc := bufio.NewScanner(r)
	var out []CameraParams
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if lineNo == 1 {
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != calibrationFields+1 {
			return nil, fmt.Errorf("%w: line %d has %d values, want %d", ErrCalibration, lineNo, len(fields)-1, calibrationFields)
		}
		var vals [calibrationFields]float64
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d value %d: %v", ErrCalibration, lineNo, i+1, err)
			}
			vals[i] = v
		}
		var p CameraParams
		p.Name = fields[0]
		copy(p.K[:], vals[0:9])
		copy(p.R[:], vals[9:18])
		copy(p.T[:], vals[18:21])
		out = append(out, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no camera lines", ErrCalibration)
	}
	return out, nil
}

// LoadCalibration parses a calibration file from disk.
func LoadCalibration(path string) ([]CameraParams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	params, err := ParseCalibration(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return params, nil
}
