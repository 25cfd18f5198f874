package balance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ichprep/config"
	"ichprep/labels"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func masterTable(positive, negative int) []labels.MasterRecord {
	records := make([]labels.MasterRecord, 0, positive+negative)
	for i := 0; i < positive; i++ {
		records = append(records, labels.MasterRecord{
			Filename: fmt.Sprintf("ID_pos%04d.dcm", i),
			Scores:   [6]float64{0, 0, 0, 0, 1, 1},
		})
	}
	for i := 0; i < negative; i++ {
		records = append(records, labels.MasterRecord{Filename: fmt.Sprintf("ID_neg%04d.dcm", i)})
	}
	return records
}

func filenames(records []labels.MasterRecord) map[string]bool {
	set := make(map[string]bool, len(records))
	for _, r := range records {
		set[r.Filename] = true
	}
	return set
}

func TestPartitionRejectsUnexpectedLabels(t *testing.T) {
	records := masterTable(2, 2)
	records = append(records, labels.MasterRecord{Filename: "ID_odd.dcm", Scores: [6]float64{0, 0, 0, 0, 0, 0.5}})

	_, _, err := Partition(records)
	assert.True(t, errors.Is(err, ErrUnexpectedLabel))
}

func TestBalanceSmallPositiveClass(t *testing.T) {
	balanced, err := Balance(masterTable(3, 1000), 13)
	require.NoError(t, err)
	require.Len(t, balanced, 6)

	positive, negative, err := Partition(balanced)
	require.NoError(t, err)
	assert.Len(t, positive, 3)
	assert.Len(t, negative, 3)
	assert.Len(t, filenames(balanced), 6)
}

func TestBalanceNeedsEnoughNegatives(t *testing.T) {
	_, err := Balance(masterTable(5, 4), 13)
	assert.True(t, errors.Is(err, ErrNotEnoughNegatives))
}

func TestSplitTenPositives(t *testing.T) {
	balanced, err := Balance(masterTable(10, 50), 13)
	require.NoError(t, err)
	require.Len(t, balanced, 20)

	train, validation, err := Split(balanced, 0.9, 13)
	require.NoError(t, err)
	assert.Len(t, train, 18)
	assert.Len(t, validation, 2)

	trainSet := filenames(train)
	for _, r := range validation {
		assert.False(t, trainSet[r.Filename], "%s in both partitions", r.Filename)
	}

	union := filenames(train)
	for name := range filenames(validation) {
		union[name] = true
	}
	assert.Equal(t, filenames(balanced), union)
}

func TestTrainSizeRoundsHalfToEven(t *testing.T) {
	assert.Equal(t, 18, TrainSize(20, 0.9))
	assert.Equal(t, 5, TrainSize(6, 0.9))
	assert.Equal(t, 2, TrainSize(5, 0.5))
	assert.Equal(t, 4, TrainSize(7, 0.5))
}

func TestSplitRejectsBadFraction(t *testing.T) {
	_, _, err := Split(masterTable(2, 0), 1.0, 13)
	assert.Error(t, err)
}

func TestSeededRunsAreDeterministic(t *testing.T) {
	records := masterTable(25, 300)

	first, err := Balance(records, 13)
	require.NoError(t, err)
	second, err := Balance(records, 13)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := Balance(records, 14)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func writeRawLabels(t *testing.T, path string, positive, negative int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("ID,Label\n")
	for i := 0; i < positive+negative; i++ {
		label := 0
		if i < positive {
			label = 1
		}
		for _, f := range labels.CanonicalOrder {
			v := 0
			if f == labels.Subdural || f == labels.Any {
				v = label
			}
			fmt.Fprintf(&b, "ID_%05d_%s,%d\n", i, f, v)
		}
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func TestRunWritesByteIdenticalSplits(t *testing.T) {
	run := func(dir string) (*Result, []byte, []byte) {
		cfg := config.DefaultConfig().Labels
		cfg.RawLabels = filepath.Join(dir, "stage_1_train.csv")
		cfg.Master = filepath.Join(dir, "master_train.csv")
		cfg.TrainOutput = filepath.Join(dir, "src", "training.csv")
		cfg.ValidationOutput = filepath.Join(dir, "src", "validation.csv")
		cfg.Duplicates = []string{"ID_00003.dcm", "ID_00003.dcm"}
		writeRawLabels(t, cfg.RawLabels, 11, 40)

		result, err := Run(cfg, false)
		require.NoError(t, err)

		train, err := os.ReadFile(cfg.TrainOutput)
		require.NoError(t, err)
		validation, err := os.ReadFile(cfg.ValidationOutput)
		require.NoError(t, err)
		return result, train, validation
	}

	result, train1, val1 := run(t.TempDir())
	_, train2, val2 := run(t.TempDir())

	assert.Equal(t, labels.SourceBuilt, result.Source)
	assert.Equal(t, 51, result.Master)
	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, 10, result.Positive)
	assert.Equal(t, 20, result.Balanced)
	assert.Equal(t, 18, result.Train)
	assert.Equal(t, 2, result.Validation)

	assert.Equal(t, train1, train2)
	assert.Equal(t, val1, val2)
	assert.True(t, strings.HasPrefix(string(train1), strings.Join(labels.MasterColumns, ",")+"\n"))
	assert.NotContains(t, string(train1), "ID_00003.dcm")
	assert.NotContains(t, string(val1), "ID_00003.dcm")
}
