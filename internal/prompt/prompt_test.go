package prompt

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kosmosec/portreport/internal/api"
	"github.com/kosmosec/portreport/internal/model"
	"github.com/pkg/errors"
)

func TestCollectInteractive(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  model.ScanRequest
	}{
		{
			name:  "explicit answers",
			input: "scanme.example\n22,80,443\n",
			want:  model.ScanRequest{Target: "scanme.example", Ports: "22,80,443"},
		},
		{
			name:  "empty answers use defaults",
			input: "\n\n",
			want:  model.ScanRequest{Target: "127.0.0.1", Ports: "1-1024"},
		},
		{
			name:  "whitespace answers use defaults",
			input: "   \t\n  \n",
			want:  model.ScanRequest{Target: "127.0.0.1", Ports: "1-1024"},
		},
		{
			name:  "answers are trimmed",
			input: "  10.0.0.0/24  \r\n 80 \n",
			want:  model.ScanRequest{Target: "10.0.0.0/24", Ports: "80"},
		},
		{
			name:  "closed input uses defaults",
			input: "",
			want:  model.ScanRequest{Target: "127.0.0.1", Ports: "1-1024"},
		},
		{
			name:  "last answer without newline",
			input: "host\n8080",
			want:  model.ScanRequest{Target: "host", Ports: "8080"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := New(strings.NewReader(tt.input), &out, api.DefaultConfig(), model.ScanRequest{})

			got, err := c.Collect(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("request mismatch (-want +got):\n%s", diff)
			}
			if !strings.Contains(out.String(), "Enter Target") {
				t.Fatalf("target prompt not shown: %q", out.String())
			}
		})
	}
}

func TestCollectNonInteractive(t *testing.T) {
	var out bytes.Buffer
	c := New(nil, &out, api.DefaultConfig(), model.ScanRequest{Target: " example.org "})

	got, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := model.ScanRequest{Target: "example.org", Ports: "1-1024"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(out.String(), "Enter") {
		t.Fatalf("non-interactive collection prompted: %q", out.String())
	}
}

func TestCollectPresetSkipsPrompt(t *testing.T) {
	var out bytes.Buffer
	c := New(strings.NewReader("443\n"), &out, api.DefaultConfig(), model.ScanRequest{Target: "example.org"})

	got, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Ports != "443" || got.Target != "example.org" {
		t.Fatalf("unexpected request %+v", got)
	}
	if strings.Contains(out.String(), "Enter Target") {
		t.Fatalf("target prompt shown despite preset")
	}
}

func TestCollectEmptyDefaultsRejected(t *testing.T) {
	cfg := api.DefaultConfig()
	cfg.Defaults = api.Defaults{Target: " ", Ports: ""}
	c := New(nil, io.Discard, cfg, model.ScanRequest{})

	_, err := c.Collect(context.Background())
	if !errors.Is(err, api.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCollectInterrupted(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(reader, io.Discard, api.DefaultConfig(), model.ScanRequest{})
	_, err := c.Collect(ctx)
	if !errors.Is(err, api.ErrUserInterrupt) {
		t.Fatalf("expected user interrupt, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(model.ScanRequest{Target: "a", Ports: "1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, req := range []model.ScanRequest{
		{Target: "", Ports: "1"},
		{Target: "a", Ports: "  "},
		{Target: "\t", Ports: ""},
	} {
		if err := Validate(req); api.KindOf(err) != api.ValidationError {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
	}
}
