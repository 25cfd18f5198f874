package balance

import (
	"fmt"

	"ichprep/config"
	"ichprep/labels"
	"ichprep/logging"
)

// Result summarizes one label-builder run
type Result struct {
	Source     labels.Source
	Master     int
	Removed    int
	Positive   int
	Balanced   int
	Train      int
	Validation int
}

// Run prepares the master table, removes the duplicate denylist, balances the
// classes and writes the train and validation CSVs.
func Run(cfg config.LabelConfig, rebuild bool) (*Result, error) {
	records, source, err := labels.Prepare(cfg, rebuild)
	if err != nil {
		return nil, fmt.Errorf("prepare master (%s): %w", source, err)
	}

	result := &Result{Source: source, Master: len(records)}

	records, result.Removed = labels.RemoveDuplicates(records, cfg.Duplicates)
	if result.Removed > 0 {
		logging.LogInfo("Removed %d known duplicate slices", result.Removed)
	}

	balanced, err := Balance(records, cfg.Seed)
	if err != nil {
		return nil, err
	}
	result.Balanced = len(balanced)
	result.Positive = len(balanced) / 2

	train, validation, err := Split(balanced, cfg.TrainFraction, cfg.Seed)
	if err != nil {
		return nil, err
	}
	result.Train = len(train)
	result.Validation = len(validation)

	if err := WriteSplit(cfg.TrainOutput, train); err != nil {
		return nil, err
	}
	if err := WriteSplit(cfg.ValidationOutput, validation); err != nil {
		return nil, err
	}
	logging.LogInfo("Wrote %d train rows to %s and %d validation rows to %s",
		result.Train, cfg.TrainOutput, result.Validation, cfg.ValidationOutput)

	return result, nil
}
