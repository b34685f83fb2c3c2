// Package confirm asks an operator before a destructive action runs.
package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrDeclined = errors.New("action cancelled")

type Prompt struct {
	Title  string // e.g. "Deny company"
	Detail string // what will happen, shown under the title
}

type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// AutoConfirm answers yes without asking; used for --yes.
type AutoConfirm struct{}

func (AutoConfirm) Confirm(context.Context, Prompt) (bool, error) { return true, nil }

// Terminal reads a y/N answer. Anything other than y or yes is a no.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

func (t *Terminal) Confirm(ctx context.Context, p Prompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(t.out, "%s\n", p.Title)
	if p.Detail != "" {
		fmt.Fprintf(t.out, "  %s\n", p.Detail)
	}
	fmt.Fprint(t.out, "Continue? [y/N] ")

	line, err := t.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Require runs c and turns a "no" into ErrDeclined.
func Require(ctx context.Context, c Confirmer, p Prompt) error {
	ok, err := c.Confirm(ctx, p)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDeclined
	}
	return nil
}
