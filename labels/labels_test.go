package labels

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ichprep/config"
	"ichprep/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawCSV renders long-format rows for each image; labels are in CanonicalOrder.
func rawCSV(images map[string][6]int) string {
	var b strings.Builder
	b.WriteString("ID,Label\n")
	for id, labels := range images {
		for i, f := range CanonicalOrder {
			fmt.Fprintf(&b, "ID_%s_%s,%d\n", id, f, labels[i])
		}
	}
	return b.String()
}

func parseRaw(t *testing.T, csv string) []RawLabel {
	t.Helper()
	tbl, err := table.Decode(strings.NewReader(csv))
	require.NoError(t, err)
	raw, err := ParseRawLabels(tbl)
	require.NoError(t, err)
	return raw
}

func TestParseRawID(t *testing.T) {
	imageID, finding, err := ParseRawID("ID_63eb1e259_epidural")
	require.NoError(t, err)
	assert.Equal(t, "63eb1e259", imageID)
	assert.Equal(t, Epidural, finding)
	assert.Equal(t, "ID_63eb1e259.dcm", FilenameFor(imageID))

	_, _, err = ParseRawID("ID_63eb1e259")
	assert.True(t, errors.Is(err, ErrMalformedID))

	_, _, err = ParseRawID("ID_63eb1e259_fracture")
	assert.True(t, errors.Is(err, ErrUnknownFinding))
}

func TestParseRawLabelsRequiresColumns(t *testing.T) {
	tbl, err := table.Decode(strings.NewReader("Image,Label\nx,1\n"))
	require.NoError(t, err)

	_, err = ParseRawLabels(tbl)
	assert.True(t, errors.Is(err, table.ErrMissingColumn))
}

func TestBuildMasterPivotsInCanonicalOrder(t *testing.T) {
	raw := parseRaw(t, rawCSV(map[string][6]int{
		"bbb": {0, 1, 0, 1, 0, 1},
		"aaa": {0, 0, 0, 0, 0, 0},
	}))

	records, report, err := BuildMaster(raw, config.MissingReject)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "ID_aaa.dcm", records[0].Filename)
	assert.Equal(t, "ID_bbb.dcm", records[1].Filename)
	assert.Equal(t, [6]float64{0, 1, 0, 1, 0, 1}, records[1].Scores)
	assert.Equal(t, 1.0, records[1].Any())
	assert.Equal(t, 1.0, records[1].Score(Intraparenchymal))
	assert.Equal(t, "[0. 1. 0. 1. 0. 1.]", records[1].Targets())

	assert.Equal(t, 12, report.RawRows)
	assert.Equal(t, 2, report.Images)
	assert.Zero(t, report.DuplicateRows)
}

func TestBuildMasterIsIdempotent(t *testing.T) {
	csv := rawCSV(map[string][6]int{
		"a1": {1, 0, 0, 0, 0, 1},
		"b2": {0, 0, 0, 0, 1, 1},
		"c3": {0, 0, 0, 0, 0, 0},
	})

	first, _, err := BuildMaster(parseRaw(t, csv), config.MissingReject)
	require.NoError(t, err)
	second, _, err := BuildMaster(parseRaw(t, csv), config.MissingReject)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildMasterDropsExactDuplicates(t *testing.T) {
	csv := rawCSV(map[string][6]int{"a1": {0, 0, 0, 0, 1, 1}}) + "ID_a1_subdural,1\nID_a1_any,1\n"

	records, report, err := BuildMaster(parseRaw(t, csv), config.MissingReject)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, report.DuplicateRows)
}

func TestBuildMasterRejectsConflicts(t *testing.T) {
	csv := rawCSV(map[string][6]int{"a1": {0, 0, 0, 0, 1, 1}}) + "ID_a1_subdural,0\n"

	_, _, err := BuildMaster(parseRaw(t, csv), config.MissingReject)
	assert.True(t, errors.Is(err, ErrConflictingLabel))
}

func TestBuildMasterMissingPolicy(t *testing.T) {
	csv := rawCSV(map[string][6]int{"full": {0, 0, 0, 0, 0, 0}}) +
		"ID_part_epidural,1\nID_part_any,1\n"

	rejected, report, err := BuildMaster(parseRaw(t, csv), config.MissingReject)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "ID_full.dcm", rejected[0].Filename)
	assert.Equal(t, 1, report.Rejected)

	imputed, report, err := BuildMaster(parseRaw(t, csv), config.MissingZero)
	require.NoError(t, err)
	require.Len(t, imputed, 2)
	assert.Equal(t, "ID_part.dcm", imputed[1].Filename)
	assert.Equal(t, [6]float64{1, 0, 0, 0, 0, 1}, imputed[1].Scores)
	assert.Equal(t, 1, report.Imputed)
}

func TestMasterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master_train.csv")
	records := []MasterRecord{
		{Filename: "ID_a.dcm", Scores: [6]float64{0, 1, 0, 0, 0, 1}},
		{Filename: "ID_b.dcm", Scores: [6]float64{0, 0, 0, 0, 0, 0}},
	}
	require.NoError(t, SaveMaster(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "filename,any,epidural,intraparenchymal,intraventricular,subarachnoid,subdural,targets", lines[0])
	assert.Equal(t, "ID_a.dcm,1.0,0.0,1.0,0.0,0.0,0.0,[0. 1. 0. 0. 0. 1.]", lines[1])

	loaded, err := LoadAndNormalizeExisting(path)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestNormalizeExistingPandasLayout(t *testing.T) {
	// Column order and integer labels as pandas writes them after pivot.
	csv := "filename,any,epidural,intraparenchymal,intraventricular,subarachnoid,subdural,targets\n" +
		"ID_x.dcm,1.0,0,0,0,1,0,[0. 0. 0. 1. 0. 1.]\n"
	tbl, err := table.Decode(strings.NewReader(csv))
	require.NoError(t, err)

	records, err := NormalizeExisting(tbl)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, [6]float64{0, 0, 0, 1, 0, 1}, records[0].Scores)
	assert.Equal(t, 1.0, records[0].Score(Subarachnoid))
}

func TestNormalizeExistingErrors(t *testing.T) {
	tbl, err := table.Decode(strings.NewReader("filename,any\nID_x.dcm,1.0\n"))
	require.NoError(t, err)
	_, err = NormalizeExisting(tbl)
	assert.True(t, errors.Is(err, table.ErrMissingColumn))

	tbl, err = table.Decode(strings.NewReader("filename,targets\nID_x.dcm,[0. 1.]\n"))
	require.NoError(t, err)
	_, err = NormalizeExisting(tbl)
	assert.True(t, errors.Is(err, ErrBadTargets))
}

func TestPrepareChoosesOperation(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig().Labels
	cfg.RawLabels = filepath.Join(dir, "stage_1_train.csv")
	cfg.Master = filepath.Join(dir, "master_train.csv")
	require.NoError(t, os.WriteFile(cfg.RawLabels, []byte(rawCSV(map[string][6]int{
		"a1": {1, 0, 0, 0, 0, 1},
		"b2": {0, 0, 0, 0, 0, 0},
	})), 0o644))

	built, source, err := Prepare(cfg, false)
	require.NoError(t, err)
	assert.Equal(t, SourceBuilt, source)
	require.FileExists(t, cfg.Master)

	reused, source, err := Prepare(cfg, false)
	require.NoError(t, err)
	assert.Equal(t, SourceExisting, source)
	assert.Equal(t, built, reused)

	_, source, err = Prepare(cfg, true)
	require.NoError(t, err)
	assert.Equal(t, SourceBuilt, source)
}

func TestRemoveDuplicatesTreatsDenylistAsSet(t *testing.T) {
	records := []MasterRecord{
		{Filename: "ID_854fba667.dcm"},
		{Filename: "ID_keep.dcm"},
		{Filename: "ID_a64d5deed.dcm"},
	}
	denylist := []string{"ID_a64d5deed.dcm", "ID_854fba667.dcm", "ID_854fba667.dcm"}

	kept, removed := RemoveDuplicates(records, denylist)
	assert.Equal(t, 2, removed)
	require.Len(t, kept, 1)
	assert.Equal(t, "ID_keep.dcm", kept[0].Filename)
}
