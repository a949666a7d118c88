package generator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/logsift/internal/integration/binary"
	"github.com/farcloser/logsift/internal/integration/generator"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    string
		conf    float64
		wantErr error
	}{
		{
			name:   "bare object",
			output: `{"recommendation": "raise the pool size", "confidence": 0.8}`,
			want:   "raise the pool size",
			conf:   0.8,
		},
		{
			name:   "fenced object",
			output: "Sure!\n```json\n{\"recommendation\": \"fix it\", \"confidence\": 7, \"references\": [\"a\"]}\n```\n",
			want:   "fix it",
			conf:   1,
		},
		{
			name:    "no object",
			output:  "I cannot help with that",
			wantErr: fault.ErrInvalidJSON,
		},
		{
			name:    "broken object",
			output:  `{"recommendation": }`,
			wantErr: fault.ErrInvalidJSON,
		},
		{
			name:    "empty recommendation",
			output:  `{"recommendation": "  ", "confidence": 0.5}`,
			wantErr: fault.ErrInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := generator.Parse([]byte(tt.output))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if got.Recommendation != tt.want || got.Confidence != tt.conf {
				t.Errorf("got %q (%v)", got.Recommendation, got.Confidence)
			}
		})
	}
}

func TestGenerateMissingBinary(t *testing.T) {
	_, err := generator.Generate(context.Background(), []string{"logsift-no-such-generator"}, "prompt")
	if !errors.Is(err, fault.ErrMissingRequirements) {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerateEmptyCommand(t *testing.T) {
	if _, err := generator.Generate(context.Background(), nil, "prompt"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestGenerateEchoesThroughCommand(t *testing.T) {
	if _, ok := binary.Available("cat"); !ok {
		t.Skip("cat not available")
	}

	got, err := generator.Generate(context.Background(), []string{"cat"},
		`{"recommendation": "check the disk", "code": "df -h", "confidence": 0.4}`)
	if err != nil {
		t.Fatal(err)
	}

	if got.Recommendation != "check the disk" || got.Code != "df -h" || got.Confidence != 0.4 {
		t.Errorf("got %+v", got)
	}
}
