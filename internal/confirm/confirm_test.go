package confirm

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestTerminalAnswers(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"sure\n", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := NewTerminal(strings.NewReader(tt.in), &out).Confirm(context.Background(), Prompt{Title: "Deny company", Detail: "Acme Ltd"})
		if err != nil {
			t.Fatalf("%q: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%q: got %v, want %v", tt.in, got, tt.want)
		}
		if !strings.Contains(out.String(), "Deny company") || !strings.Contains(out.String(), "[y/N]") {
			t.Errorf("prompt = %q", out.String())
		}
	}
}

func TestRequire(t *testing.T) {
	ctx := context.Background()
	if err := Require(ctx, AutoConfirm{}, Prompt{Title: "x"}); err != nil {
		t.Errorf("auto: %v", err)
	}
	no := NewTerminal(strings.NewReader("n\n"), &bytes.Buffer{})
	if err := Require(ctx, no, Prompt{Title: "x"}); !errors.Is(err, ErrDeclined) {
		t.Errorf("declined: %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewTerminal(strings.NewReader("y\n"), &bytes.Buffer{}).Confirm(ctx, Prompt{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}
