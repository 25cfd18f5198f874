// Package config holds the run configuration for both pipelines: defaults,
// TOML loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Mode names a manifest the scanner can process.
type Mode string

const (
	ModeTrain      Mode = "train"
	ModeValidation Mode = "validation"
	ModeTest       Mode = "test"
)

// MissingPolicy decides what happens to images lacking some finding labels.
type MissingPolicy string

const (
	MissingReject MissingPolicy = "reject" // Drop the image (default).
	MissingZero   MissingPolicy = "zero"   // Impute 0.0 for absent findings.
)

// ScanRun is one manifest to flag.
type ScanRun struct {
	Mode     Mode   `toml:"mode"`
	Manifest string `toml:"manifest"`
	ImageDir string `toml:"image_dir"`
	Output   string `toml:"output"`
	Enabled  bool   `toml:"enabled"`
}

// ScanConfig configures the integrity scanner.
type ScanConfig struct {
	ExpectedRows   int       `toml:"expected_rows"`
	ExpectedCols   int       `toml:"expected_cols"`
	FilenameColumn string    `toml:"filename_column"` // Empty selects the first column.
	Ledger         string    `toml:"ledger"`          // Optional sqlite ledger path.
	Runs           []ScanRun `toml:"runs"`
}

// LabelConfig configures the label builder and splitter.
type LabelConfig struct {
	RawLabels        string        `toml:"raw_labels"`
	Master           string        `toml:"master"`
	TrainOutput      string        `toml:"train_output"`
	ValidationOutput string        `toml:"validation_output"`
	Seed             int64         `toml:"seed"`
	TrainFraction    float64       `toml:"train_fraction"`
	MissingPolicy    MissingPolicy `toml:"missing_policy"`
	Duplicates       []string      `toml:"duplicates"`
}

// Config holds all runtime settings.
type Config struct {
	Scan   ScanConfig  `toml:"scan"`
	Labels LabelConfig `toml:"labels"`
}

// DefaultDuplicates lists slices known to be byte-identical copies of others.
var DefaultDuplicates = []string{
	"ID_a64d5deed.dcm",
	"ID_921490062.dcm",
	"ID_489ae4179.dcm",
	"ID_854fba667.dcm",
}

// DefaultConfig returns the stage 1 layout: the scanner reads the split CSVs
// written by the label builder.
func DefaultConfig() Config {
	return Config{
		Scan: ScanConfig{
			ExpectedRows: 512,
			ExpectedCols: 512,
			Runs: []ScanRun{
				{
					Mode:     ModeTrain,
					Manifest: "../src/training.csv",
					ImageDir: "../../data/stage_1_train_images/",
					Output:   "../src/train_flagged.csv",
					Enabled:  true,
				},
				{
					Mode:     ModeValidation,
					Manifest: "../src/validation.csv",
					ImageDir: "../../data/stage_1_train_images/",
					Output:   "../src/validate_flagged.csv",
					Enabled:  true,
				},
				{
					Mode:     ModeTest,
					Manifest: "../src/testing.csv",
					ImageDir: "../../data/stage_1_test_images/",
					Output:   "../src/test_flagged.csv",
					Enabled:  false,
				},
			},
		},
		Labels: LabelConfig{
			RawLabels:        "stage_1_train.csv",
			Master:           "master_train.csv",
			TrainOutput:      "../src/training.csv",
			ValidationOutput: "../src/validation.csv",
			Seed:             13,
			TrainFraction:    0.90,
			MissingPolicy:    MissingReject,
			Duplicates:       append([]string(nil), DefaultDuplicates...),
		},
	}
}

// Load reads a TOML file over the defaults. Keys absent from the file keep
// their default values; a [[scan.runs]] list replaces the default runs.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var file Config
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	// seed = 0 is a valid choice, so presence is read separately from the value
	var seed struct {
		Labels struct {
			Seed *int64 `toml:"seed"`
		} `toml:"labels"`
	}
	if err := toml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.merge(file)
	if seed.Labels.Seed != nil {
		cfg.Labels.Seed = *seed.Labels.Seed
	}
	return &cfg, nil
}

func (c *Config) merge(o Config) {
	if o.Scan.ExpectedRows != 0 {
		c.Scan.ExpectedRows = o.Scan.ExpectedRows
	}
	if o.Scan.ExpectedCols != 0 {
		c.Scan.ExpectedCols = o.Scan.ExpectedCols
	}
	if o.Scan.FilenameColumn != "" {
		c.Scan.FilenameColumn = o.Scan.FilenameColumn
	}
	if o.Scan.Ledger != "" {
		c.Scan.Ledger = o.Scan.Ledger
	}
	if len(o.Scan.Runs) > 0 {
		c.Scan.Runs = o.Scan.Runs
	}

	l := o.Labels
	if l.RawLabels != "" {
		c.Labels.RawLabels = l.RawLabels
	}
	if l.Master != "" {
		c.Labels.Master = l.Master
	}
	if l.TrainOutput != "" {
		c.Labels.TrainOutput = l.TrainOutput
	}
	if l.ValidationOutput != "" {
		c.Labels.ValidationOutput = l.ValidationOutput
	}
	if l.TrainFraction != 0 {
		c.Labels.TrainFraction = l.TrainFraction
	}
	if l.MissingPolicy != "" {
		c.Labels.MissingPolicy = l.MissingPolicy
	}
	if l.Duplicates != nil {
		c.Labels.Duplicates = l.Duplicates
	}
}

// Validate checks enum fields, fractions and required paths.
func (c *Config) Validate() error {
	if c.Scan.ExpectedRows <= 0 || c.Scan.ExpectedCols <= 0 {
		return errors.New("expected slice rows and cols must be positive")
	}

	seen := make(map[Mode]bool)
	for i, run := range c.Scan.Runs {
		switch run.Mode {
		case ModeTrain, ModeValidation, ModeTest:
		default:
			return fmt.Errorf("scan run %d: invalid mode %q (use 'train', 'validation' or 'test')", i, run.Mode)
		}
		if seen[run.Mode] {
			return fmt.Errorf("scan run %d: mode %q configured twice", i, run.Mode)
		}
		seen[run.Mode] = true
		if strings.TrimSpace(run.Manifest) == "" || strings.TrimSpace(run.Output) == "" {
			return fmt.Errorf("scan run %q: manifest and output paths are required", run.Mode)
		}
	}

	l := c.Labels
	switch l.MissingPolicy {
	case MissingReject, MissingZero:
	default:
		return fmt.Errorf("invalid missing_policy %q (use 'reject' or 'zero')", l.MissingPolicy)
	}
	if l.TrainFraction <= 0 || l.TrainFraction >= 1 {
		return fmt.Errorf("train_fraction must be between 0 and 1, got %v", l.TrainFraction)
	}
	if l.Master == "" || l.TrainOutput == "" || l.ValidationOutput == "" {
		return errors.New("labels: master, train_output and validation_output are required")
	}
	return nil
}

// Run returns the scan run configured for mode.
func (c *Config) Run(mode Mode) (ScanRun, bool) {
	for _, run := range c.Scan.Runs {
		if run.Mode == mode {
			return run, true
		}
	}
	return ScanRun{}, false
}

// EnabledRuns returns the scan runs switched on in the configuration.
func (c *Config) EnabledRuns() []ScanRun {
	var runs []ScanRun
	for _, run := range c.Scan.Runs {
		if run.Enabled {
			runs = append(runs, run)
		}
	}
	return runs
}
