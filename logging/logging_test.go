package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogfWritesLevelsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ichprep.log")
	require.NoError(t, SetupLogger(path))

	LogInfo("scanning %s", "train")
	LogWarning("slow disk")
	LogError("ledger: %v", "locked")
	LogSliceChecked("ID_a.dcm", true, "ok")
	LogSliceChecked("ID_b.dcm", false, "pixel_data")
	CloseLogger()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "INFO: scanning train")
	assert.Contains(t, out, "WARNING: slow disk")
	assert.Contains(t, out, "ERROR: ledger: locked")
	assert.Contains(t, out, "USABLE: ID_a.dcm")
	assert.Contains(t, out, "FLAGGED: ID_b.dcm - Reason: pixel_data")
}

func TestLogfFallsBackToStandardLogger(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	LogWarning("no log file")
	DebugLog("dropped")
	LogSliceChecked("ID_c.dcm", false, "decode")

	assert.Contains(t, buf.String(), "WARNING: no log file")
	assert.NotContains(t, buf.String(), "dropped")
	assert.NotContains(t, buf.String(), "ID_c.dcm")
}
