package for009

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLoggerInfoFormat(t *testing.T) {
	var info, errs bytes.Buffer
	l := NewSlogLogger(&info, &errs)
	l.Info("Spill 3: 12 recon events", "extractor")

	pattern := regexp.MustCompile(`^\[\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}\] \[extractor\] Spill 3: 12 recon events\n$`)
	assert.Regexp(t, pattern, info.String())
	assert.Empty(t, errs.String())
}

func TestSlogLoggerErrorIsJSON(t *testing.T) {
	var info, errs bytes.Buffer
	l := NewSlogLogger(&info, &errs)
	l.Error("error opening file")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(errs.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "error opening file", entry["msg"])
	assert.Empty(t, info.String())
}

func TestHandlerKeepsKeysOfOtherAttributes(t *testing.T) {
	var out bytes.Buffer
	l := slog.New(NewHandler(&out, nil)).With(MODULE_KEY, "postprocess").WithGroup("rows")
	l.Info("upstream done", "kept", 3, "dropped", 1)
	l.Debug("not shown")

	pattern := regexp.MustCompile(`^\[[0-9/: ]+\] \[postprocess\] upstream done rows\.kept=3 rows\.dropped=1\n$`)
	assert.Regexp(t, pattern, out.String())
}

type recordingLogger struct {
	infos  []string
	errors []string
}

func (l *recordingLogger) Info(message string, module string) {
	l.infos = append(l.infos, module+": "+message)
}

func (l *recordingLogger) Error(message string) {
	l.errors = append(l.errors, message)
}

func TestVerbosityGatesInfoMessages(t *testing.T) {
	previousConfig, previousLogger := GetConfiguration(), GetLogger()
	t.Cleanup(func() {
		SetConfiguration(previousConfig)
		SetLogger(previousLogger)
	})

	rec := &recordingLogger{}
	SetLogger(rec)
	config := DefaultConfiguration()
	config.Verbosity = 0
	SetConfiguration(config)

	_, _, _ = runExtractor(t, spill("calibration_event"), spill(PHYSICS_EVENT))
	assert.Empty(t, rec.infos)

	config.Verbosity = 2
	SetConfiguration(config)
	_, _, _ = runExtractor(t, spill("calibration_event"), spill(PHYSICS_EVENT))
	assert.Equal(t, []string{
		`extractor: Skipping spill 0 with event type "calibration_event"`,
		"extractor: Spill 0: 0 recon events",
	}, rec.infos)
}

func TestPrintStats(t *testing.T) {
	rec := &recordingLogger{}
	PrintStats(ExtractStats{Spills: 4, NonPhysicsSpills: 1, UpstreamRows: 7, DownstreamRows: 9}, rec)
	assert.Contains(t, rec.infos, "extractor: Spills read: 4 (non physics: 1)")
	assert.Contains(t, rec.infos, "extractor: Rows written: 7 upstream, 9 downstream")
}
