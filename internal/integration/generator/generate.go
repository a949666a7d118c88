package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/logsift/internal/integration/binary"
)

var errEmptyCommand = errors.New("empty generator command")

// Response is the JSON document the generator is asked to print.
type Response struct {
	Recommendation string   `json:"recommendation"`
	Code           string   `json:"code,omitempty"`
	Confidence     float64  `json:"confidence"`
	References     []string `json:"references,omitempty"`
}

// Generate runs command with prompt on stdin and parses the JSON object it prints.
// Text around the object (markdown fences, chatter) is ignored.
func Generate(ctx context.Context, command []string, prompt string) (*Response, error) {
	if len(command) == 0 {
		return nil, errEmptyCommand
	}

	slog.Debug("generator.Generate", "command", command[0], "stage", "start")

	path, err := binary.Require(command[0])
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // the generator command is operator configuration
	cmd := exec.CommandContext(ctx, path, command[1:]...)
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &limitedBuffer{buf: &stdout, limit: maxOutput}
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			slog.Debug("generator.Generate", "command", command[0], "stage", "timeout")

			return nil, fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		slog.Debug("generator.Generate", "command", command[0], "stage", "error")

		return nil, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	return Parse(stdout.Bytes())
}

// Parse extracts the first JSON object from output.
func Parse(output []byte) (*Response, error) {
	start := bytes.IndexByte(output, '{')
	end := bytes.LastIndexByte(output, '}')

	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in generator output", fault.ErrInvalidJSON)
	}

	var response Response
	if err := json.Unmarshal(output[start:end+1], &response); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
	}

	if strings.TrimSpace(response.Recommendation) == "" {
		return nil, fmt.Errorf("%w: empty recommendation", fault.ErrInvalidJSON)
	}

	response.Confidence = min(max(response.Confidence, 0), 1)

	return &response, nil
}

// limitedBuffer drops writes past limit instead of failing the command.
type limitedBuffer struct {
	buf   *bytes.Buffer
	limit int
}

func (l *limitedBuffer) Write(data []byte) (int, error) {
	if room := l.limit - l.buf.Len(); room > 0 {
		l.buf.Write(data[:min(room, len(data))])
	}

	return len(data), nil
}
