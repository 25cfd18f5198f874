// Package labels turns the long-format hemorrhage label CSV into one master
// record per image with a fixed-order target vector.
package labels

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ichprep/config"
	"ichprep/logging"
	"ichprep/table"
)

var (
	// ErrMalformedID is returned for raw IDs that are not <prefix>_<image>_<finding>
	ErrMalformedID = errors.New("malformed label id")

	// ErrUnknownFinding is returned for finding types outside CanonicalOrder
	ErrUnknownFinding = errors.New("unknown finding type")

	// ErrConflictingLabel is returned when one image has two labels for the same finding
	ErrConflictingLabel = errors.New("conflicting labels")

	// ErrBadTargets is returned when a serialized target vector cannot be parsed
	ErrBadTargets = errors.New("malformed targets vector")
)

// FindingType is one of the six hemorrhage categories
type FindingType string

const (
	Epidural         FindingType = "epidural"
	Intraparenchymal FindingType = "intraparenchymal"
	Intraventricular FindingType = "intraventricular"
	Subarachnoid     FindingType = "subarachnoid"
	Subdural         FindingType = "subdural"
	Any              FindingType = "any"
)

// CanonicalOrder is the positional layout of every targets vector.
// Downstream training code indexes into it, so it must never change.
var CanonicalOrder = [6]FindingType{
	Epidural,
	Intraparenchymal,
	Intraventricular,
	Subarachnoid,
	Subdural,
	Any,
}

// AnyIndex is the position of the aggregate finding in CanonicalOrder
const AnyIndex = 5

func findingIndex(f FindingType) int {
	for i, c := range CanonicalOrder {
		if c == f {
			return i
		}
	}
	return -1
}

// RawLabel is one row of the long-format label CSV
type RawLabel struct {
	ID      string
	ImageID string
	Finding FindingType
	Label   float64
}

// Filename returns the slice file the label refers to
func (r RawLabel) Filename() string {
	return FilenameFor(r.ImageID)
}

// MasterRecord holds all six finding scores of one image
type MasterRecord struct {
	Filename string
	Scores   [6]float64
}

// Any returns the aggregate finding score
func (m MasterRecord) Any() float64 {
	return m.Scores[AnyIndex]
}

// Score returns the score of finding f
func (m MasterRecord) Score(f FindingType) float64 {
	return m.Scores[findingIndex(f)]
}

// Targets returns the serialized target vector
func (m MasterRecord) Targets() string {
	return FormatTargets(m.Scores)
}

// ParseRawID splits "ID_<image>_<finding>" into its image id and finding type
func ParseRawID(id string) (string, FindingType, error) {
	tokens := strings.Split(strings.TrimSpace(id), "_")
	if len(tokens) < 3 || tokens[1] == "" || tokens[2] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedID, id)
	}

	finding := FindingType(tokens[2])
	if findingIndex(finding) < 0 {
		return "", "", fmt.Errorf("%w: %q in %q", ErrUnknownFinding, tokens[2], id)
	}
	return tokens[1], finding, nil
}

// FilenameFor returns the slice file name of an image id
func FilenameFor(imageID string) string {
	return "ID_" + imageID + ".dcm"
}

// ReadRawLabels loads and parses the long-format label CSV
func ReadRawLabels(path string) ([]RawLabel, error) {
	t, err := table.Read(path)
	if err != nil {
		return nil, err
	}
	return ParseRawLabels(t)
}

// ParseRawLabels parses the ID and Label columns of t
func ParseRawLabels(t *table.Table) ([]RawLabel, error) {
	idIdx, err := t.MustIndex("ID")
	if err != nil {
		return nil, err
	}
	labelIdx, err := t.MustIndex("Label")
	if err != nil {
		return nil, err
	}

	raw := make([]RawLabel, 0, len(t.Rows))
	for i, row := range t.Rows {
		imageID, finding, err := ParseRawID(row[idIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		label, err := strconv.ParseFloat(strings.TrimSpace(row[labelIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid label %q: %w", i+1, row[labelIdx], err)
		}
		raw = append(raw, RawLabel{
			ID:      row[idIdx],
			ImageID: imageID,
			Finding: finding,
			Label:   label,
		})
	}
	return raw, nil
}

// BuildReport summarizes a master build
type BuildReport struct {
	RawRows       int
	DuplicateRows int
	Images        int
	Rejected      int
	Imputed       int
}

// BuildMaster pivots raw labels into one record per filename, sorted by
// filename. Exact duplicate rows collapse; differing labels for the same
// finding are an error. Images missing findings are dropped or zero-filled
// according to policy.
func BuildMaster(raw []RawLabel, policy config.MissingPolicy) ([]MasterRecord, BuildReport, error) {
	report := BuildReport{RawRows: len(raw)}

	type cell struct {
		filename string
		finding  int
	}
	type pivotRow struct {
		scores  [6]float64
		present [6]bool
	}

	seen := make(map[cell]float64, len(raw))
	rows := make(map[string]*pivotRow)

	for _, r := range raw {
		filename := r.Filename()
		idx := findingIndex(r.Finding)
		if idx < 0 {
			return nil, report, fmt.Errorf("%w: %q", ErrUnknownFinding, r.Finding)
		}

		key := cell{filename, idx}
		if prev, ok := seen[key]; ok {
			if prev != r.Label {
				return nil, report, fmt.Errorf("%w: %s %s is both %v and %v",
					ErrConflictingLabel, filename, r.Finding, prev, r.Label)
			}
			report.DuplicateRows++
			continue
		}
		seen[key] = r.Label

		row, ok := rows[filename]
		if !ok {
			row = &pivotRow{}
			rows[filename] = row
		}
		row.scores[idx] = r.Label
		row.present[idx] = true
	}

	filenames := make([]string, 0, len(rows))
	for filename := range rows {
		filenames = append(filenames, filename)
	}
	sort.Strings(filenames)

	records := make([]MasterRecord, 0, len(filenames))
	for _, filename := range filenames {
		row := rows[filename]

		var missing []string
		for i, ok := range row.present {
			if !ok {
				missing = append(missing, string(CanonicalOrder[i]))
			}
		}

		if len(missing) > 0 {
			switch policy {
			case config.MissingZero:
				report.Imputed++
				logging.DebugLog("Imputing 0.0 for %s: missing %s", filename, strings.Join(missing, ", "))
			default:
				report.Rejected++
				logging.LogWarning("dropping %s: missing %s", filename, strings.Join(missing, ", "))
				continue
			}
		}

		records = append(records, MasterRecord{Filename: filename, Scores: row.scores})
	}

	report.Images = len(records)
	return records, report, nil
}
