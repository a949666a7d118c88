package generator

import "time"

const (
	// DefaultCommand is the text generation command used when none is configured.
	DefaultCommand = "llm"
	// Generation is slow; remote models may take a while to answer.
	timeout = 120 * time.Second
	// Cap on captured output.
	maxOutput = 256 * 1024
)
