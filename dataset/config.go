// Package dataset loads a photographed scene: its configuration, the camera
// calibration file and the images, and turns them into carving views.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gonum.org/v1/gonum/spatial/r3"
)

const maxConfigSize = 1 * 1024 * 1024 // 1MB

// Config describes where a dataset lives and the box to carve.
type Config struct {
	Directory       string     `json:"directory" toml:"directory"`
	Prefix          string     `json:"prefix" toml:"prefix"`
	FrontTopLeft    [3]float64 `json:"bb_front_top_left" toml:"bb_front_top_left"`
	BackBottomRight [3]float64 `json:"bb_back_bottom_right" toml:"bb_back_bottom_right"`

	// ImageExt defaults to png.
	ImageExt string `json:"image_ext,omitempty" toml:"image_ext,omitempty"`
	// FirstImage is the number of the image matching the first calibration
	// line. Defaults to 1.
	FirstImage *int `json:"first_image,omitempty" toml:"first_image,omitempty"`
	// Calibration defaults to <prefix>_par.txt inside Directory.
	Calibration string `json:"calibration,omitempty" toml:"calibration,omitempty"`
}

// LoadConfig reads a .json or .toml dataset file. A relative Directory is
// resolved against the file's own directory.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".toml" {
		return nil, fmt.Errorf("dataset file must have .json or .toml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat dataset file: %w", err)
	}
	if fileInfo.Size() > maxConfigSize {
		return nil, fmt.Errorf("dataset file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	cfg := &Config{}
	if ext == ".toml" {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", filepath.Base(cleanPath), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}
	if !filepath.IsAbs(cfg.Directory) {
		cfg.Directory = filepath.Join(filepath.Dir(cleanPath), cfg.Directory)
	}
	return cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	var errs []error
	if c.Directory == "" {
		errs = append(errs, errors.New("directory is required"))
	}
	if c.Prefix == "" {
		errs = append(errs, errors.New("prefix is required"))
	}
	if c.FirstImage != nil && *c.FirstImage < 0 {
		errs = append(errs, fmt.Errorf("first_image must be non-negative, got %d", *c.FirstImage))
	}
	if strings.ContainsAny(c.ImageExt, `/\`) {
		errs = append(errs, fmt.Errorf("image_ext %q is not an extension", c.ImageExt))
	}
	return errors.Join(errs...)
}

// Bounds returns the carving box corners.
func (c *Config) Bounds() (frontTopLeft, backBottomRight r3.Vec) {
	return r3.Vec{X: c.FrontTopLeft[0], Y: c.FrontTopLeft[1], Z: c.FrontTopLeft[2]},
		r3.Vec{X: c.BackBottomRight[0], Y: c.BackBottomRight[1], Z: c.BackBottomRight[2]}
}

func (c *Config) GetFirstImage() int {
	if c.FirstImage != nil {
		return *c.FirstImage
	}
	return 1
}

func (c *Config) GetImageExt() string {
	if c.ImageExt != "" {
		return strings.TrimPrefix(c.ImageExt, ".")
	}
	return "png"
}

// CalibrationPath is the calibration file location.
func (c *Config) CalibrationPath() string {
	name := c.Calibration
	if name == "" {
		name = c.Prefix + "_par.txt"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Directory, name)
}

// ImagePath returns the file of image number n: prefix plus a 4-digit
// zero-padded number.
func (c *Config) ImagePath(n int) string {
	return filepath.Join(c.Directory, fmt.Sprintf("%s%04d.%s", c.Prefix, n, c.GetImageExt()))
}
