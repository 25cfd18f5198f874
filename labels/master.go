package labels

import (
	"errors"
	"fmt"
	"os"

	"ichprep/config"
	"ichprep/logging"
	"ichprep/table"
)

// MasterColumns is the column layout of master and split CSVs
var MasterColumns = []string{
	"filename",
	string(Any),
	string(Epidural),
	string(Intraparenchymal),
	string(Intraventricular),
	string(Subarachnoid),
	string(Subdural),
	"targets",
}

// Source names the operation that produced a master table
type Source string

const (
	SourceBuilt    Source = "built"
	SourceExisting Source = "existing"
)

// ToTable lays records out in MasterColumns order
func ToTable(records []MasterRecord) *table.Table {
	t := &table.Table{
		Header: append([]string(nil), MasterColumns...),
		Rows:   make([][]string, 0, len(records)),
	}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{
			r.Filename,
			formatScore(r.Score(Any)),
			formatScore(r.Score(Epidural)),
			formatScore(r.Score(Intraparenchymal)),
			formatScore(r.Score(Intraventricular)),
			formatScore(r.Score(Subarachnoid)),
			formatScore(r.Score(Subdural)),
			r.Targets(),
		})
	}
	return t
}

// SaveMaster writes records to path with a header row
func SaveMaster(path string, records []MasterRecord) error {
	return table.Write(path, ToTable(records))
}

// LoadAndNormalizeExisting reads a master CSV from a previous run and
// re-derives the six scalar scores from each row's targets column. Other
// columns are ignored, and the missing-value policy is not applied again.
func LoadAndNormalizeExisting(path string) ([]MasterRecord, error) {
	t, err := table.Read(path)
	if err != nil {
		return nil, err
	}
	return NormalizeExisting(t)
}

// NormalizeExisting is LoadAndNormalizeExisting over an in-memory table
func NormalizeExisting(t *table.Table) ([]MasterRecord, error) {
	filenameIdx, err := t.MustIndex("filename")
	if err != nil {
		return nil, err
	}
	targetsIdx, err := t.MustIndex("targets")
	if err != nil {
		return nil, err
	}

	records := make([]MasterRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		scores, err := ParseTargets(row[targetsIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, MasterRecord{Filename: row[filenameIdx], Scores: scores})
	}
	return records, nil
}

// Prepare returns the master records, building them from the raw label CSV
// unless a master CSV already exists and rebuild is false.
func Prepare(cfg config.LabelConfig, rebuild bool) ([]MasterRecord, Source, error) {
	if !rebuild {
		if _, err := os.Stat(cfg.Master); err == nil {
			logging.LogInfo("Reusing existing master %s (targets re-parsed; missing-value policy not re-applied)", cfg.Master)
			records, err := LoadAndNormalizeExisting(cfg.Master)
			if err != nil {
				return nil, SourceExisting, err
			}
			return records, SourceExisting, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, SourceExisting, fmt.Errorf("stat master %s: %w", cfg.Master, err)
		}
	}

	if cfg.RawLabels == "" {
		return nil, SourceBuilt, errors.New("no raw label CSV configured to build the master from")
	}

	raw, err := ReadRawLabels(cfg.RawLabels)
	if err != nil {
		return nil, SourceBuilt, err
	}

	records, report, err := BuildMaster(raw, cfg.MissingPolicy)
	if err != nil {
		return nil, SourceBuilt, err
	}
	logging.LogInfo("Pivoted %d label rows into %d images (%d duplicate rows, %d rejected, %d imputed)",
		report.RawRows, report.Images, report.DuplicateRows, report.Rejected, report.Imputed)

	if err := SaveMaster(cfg.Master, records); err != nil {
		return nil, SourceBuilt, err
	}
	logging.LogInfo("Saved master table to %s", cfg.Master)

	return records, SourceBuilt, nil
}

// RemoveDuplicates drops records whose filename is on the denylist. Repeated
// denylist entries count once. It returns the kept records and the number removed.
func RemoveDuplicates(records []MasterRecord, denylist []string) ([]MasterRecord, int) {
	deny := make(map[string]struct{}, len(denylist))
	for _, name := range denylist {
		deny[name] = struct{}{}
	}

	kept := make([]MasterRecord, 0, len(records))
	removed := 0
	for _, r := range records {
		if _, ok := deny[r.Filename]; ok {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	return kept, removed
}
