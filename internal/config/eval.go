package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Defaults applied by the Get* accessors when a field is absent.
const (
	DefaultFPRBelow     = 0.1
	DefaultTPRAbove     = 0.9
	DefaultTitle        = "Confusion Matrix"
	DefaultWidthInches  = 6.0
	DefaultHeightInches = 6.0
	DefaultFormat       = "png"
)

// Image formats understood by gonum/plot's formatted canvases.
var supportedFormats = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "tif": true, "tiff": true,
	"svg": true, "pdf": true, "eps": true,
}

// EvalConfig holds the options of an evaluation run. Fields omitted from the
// JSON file stay nil and fall back to the defaults above.
type EvalConfig struct {
	// PositiveClass selects the binary positive label. When unset, the
	// largest class in sort order is used.
	PositiveClass *string `json:"positive_class,omitempty"`

	// Threshold search bounds
	FPRBelow *float64 `json:"fpr_below,omitempty"`
	TPRAbove *float64 `json:"tpr_above,omitempty"`

	// Plot params
	ClassNames []string `json:"class_names,omitempty"`
	Title      *string  `json:"title,omitempty"`
	PlotWidth  *float64 `json:"plot_width_inches,omitempty"`
	PlotHeight *float64 `json:"plot_height_inches,omitempty"`
	Format     *string  `json:"format,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// EmptyEvalConfig returns an EvalConfig with all fields unset.
func EmptyEvalConfig() *EvalConfig {
	return &EvalConfig{}
}

// DefaultEvalConfig returns an EvalConfig with every field populated.
func DefaultEvalConfig() *EvalConfig {
	return &EvalConfig{
		FPRBelow:   ptrFloat64(DefaultFPRBelow),
		TPRAbove:   ptrFloat64(DefaultTPRAbove),
		Title:      ptrString(DefaultTitle),
		PlotWidth:  ptrFloat64(DefaultWidthInches),
		PlotHeight: ptrFloat64(DefaultHeightInches),
		Format:     ptrString(DefaultFormat),
	}
}

// LoadEvalConfig loads an EvalConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadEvalConfig(path string) (*EvalConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyEvalConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *EvalConfig) Validate() error {
	if c.FPRBelow != nil && (*c.FPRBelow < 0 || *c.FPRBelow > 1) {
		return fmt.Errorf("fpr_below must be between 0 and 1, got %f", *c.FPRBelow)
	}
	if c.TPRAbove != nil && (*c.TPRAbove < 0 || *c.TPRAbove > 1) {
		return fmt.Errorf("tpr_above must be between 0 and 1, got %f", *c.TPRAbove)
	}
	if c.PlotWidth != nil && *c.PlotWidth <= 0 {
		return fmt.Errorf("plot_width_inches must be positive, got %f", *c.PlotWidth)
	}
	if c.PlotHeight != nil && *c.PlotHeight <= 0 {
		return fmt.Errorf("plot_height_inches must be positive, got %f", *c.PlotHeight)
	}
	if c.Format != nil && *c.Format != "" && !supportedFormats[strings.ToLower(*c.Format)] {
		return fmt.Errorf("unsupported format %q", *c.Format)
	}
	return nil
}

// GetPositiveClass returns the positive class and whether one was set.
func (c *EvalConfig) GetPositiveClass() (string, bool) {
	if c.PositiveClass == nil {
		return "", false
	}
	return *c.PositiveClass, true
}

// GetFPRBelow returns the fpr_below value or the default.
func (c *EvalConfig) GetFPRBelow() float64 {
	if c.FPRBelow == nil {
		return DefaultFPRBelow
	}
	return *c.FPRBelow
}

// GetTPRAbove returns the tpr_above value or the default.
func (c *EvalConfig) GetTPRAbove() float64 {
	if c.TPRAbove == nil {
		return DefaultTPRAbove
	}
	return *c.TPRAbove
}

// GetTitle returns the confusion matrix title or the default.
func (c *EvalConfig) GetTitle() string {
	if c.Title == nil || *c.Title == "" {
		return DefaultTitle
	}
	return *c.Title
}

// GetPlotWidth returns the single-plot width in inches.
func (c *EvalConfig) GetPlotWidth() float64 {
	if c.PlotWidth == nil {
		return DefaultWidthInches
	}
	return *c.PlotWidth
}

// GetPlotHeight returns the single-plot height in inches.
func (c *EvalConfig) GetPlotHeight() float64 {
	if c.PlotHeight == nil {
		return DefaultHeightInches
	}
	return *c.PlotHeight
}

// GetFormat returns the lowercased image format (file extension) or the default.
func (c *EvalConfig) GetFormat() string {
	if c.Format == nil || *c.Format == "" {
		return DefaultFormat
	}
	return strings.ToLower(*c.Format)
}
