package vad

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ExecDetector invokes an external neural voice-activity detector as a child
// process. The command receives the PCM path and threshold and prints speech
// spans as JSON on stdout:
//
//	[{"start": 1.234, "end": 2.567}, ...]
//
// Times are seconds from the start of the PCM file.
type ExecDetector struct {
	command string
	timeout time.Duration
	logger  *zap.Logger
}

// NewExecDetector creates a new ExecDetector instance
func NewExecDetector(command string, timeout time.Duration) *ExecDetector {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ExecDetector{command: command, timeout: timeout, logger: zap.NewNop()}
}

// NewExecDetectorWithLogger creates a new ExecDetector instance with custom logger
func NewExecDetectorWithLogger(command string, timeout time.Duration, logger *zap.Logger) *ExecDetector {
	d := NewExecDetector(command, timeout)
	if logger != nil {
		d.logger = logger
	}
	return d
}

// DetectSpeech runs the detector over the PCM file and parses its spans
func (d *ExecDetector) DetectSpeech(ctx context.Context, pcmPath string, threshold float64) ([]Segment, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.logger.Debug("invoking vad detector",
		zap.String("command", d.command),
		zap.String("pcm", pcmPath),
		zap.Float64("threshold", threshold))

	cmd := exec.CommandContext(ctx, d.command,
		"--input", pcmPath,
		"--sample-rate", "16000",
		"--threshold", strconv.FormatFloat(threshold, 'f', 2, 64),
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("vad detector %s failed: %w", d.command, err)
	}

	var spans []Segment
	if err := json.Unmarshal(out, &spans); err != nil {
		return nil, fmt.Errorf("failed to parse vad detector output: %w", err)
	}

	return spans, nil
}
