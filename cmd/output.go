package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/treegar/admin-console/internal/apiclient"
	"github.com/treegar/admin-console/internal/confirm"
	"github.com/treegar/admin-console/internal/model"
	"github.com/treegar/admin-console/internal/query"
	"github.com/treegar/admin-console/internal/validation"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPage writes the rows to stdout and the position to stderr so the
// rows can be piped on their own.
func printPage[T any](cmd *cobra.Command, p model.Page[T]) error {
	if err := printJSON(cmd.OutOrStdout(), p.Items); err != nil {
		return err
	}
	if p.IsEmpty() && p.TotalCount > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "page %d is past the end (%d pages, %d rows)\n", p.PageNumber, p.TotalPages, p.TotalCount)
		return nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "page %d of %d, %d rows\n", p.PageNumber, p.TotalPages, p.TotalCount)
	return nil
}

type listFlags struct {
	filters []string
	page    int
	size    int
}

func (f *listFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "filter as name=value (repeatable)")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.size, "page-size", 0, "rows per page (default from config)")
}

func (f *listFlags) parse() (query.Filters, model.PageRequest, error) {
	filters, err := parseFilters(f.filters)
	return filters, model.PageRequest{Number: f.page, Size: f.size}, err
}

func parseFilters(raw []string) (query.Filters, error) {
	out := query.Filters{}
	for _, kv := range raw {
		k, v, found := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !found || k == "" {
			return nil, fmt.Errorf("bad filter %q, want name=value", kv)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// decodeData reads a JSON payload given inline or as @path.
func decodeData[T any](data string) (T, error) {
	var out T
	raw := []byte(data)
	if path, isFile := strings.CutPrefix(data, "@"); isFile {
		b, err := os.ReadFile(path)
		if err != nil {
			return out, err
		}
		raw = b
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return out, fmt.Errorf("--data is required")
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("decode --data: %w", err)
	}
	return out, nil
}

func confirmer(cmd *cobra.Command, yes bool) confirm.Confirmer {
	if yes {
		return confirm.AutoConfirm{}
	}
	return confirm.NewTerminal(cmd.InOrStdin(), cmd.ErrOrStderr())
}

// submitError puts a rejected submit in form terms: server field errors
// land on Req's JSON names, anything else becomes the server message or
// the generic one. Transport failures and 401 pass through untouched.
func submitError[Req any](err error) error {
	var ae *apiclient.Error
	if !errors.As(err, &ae) || ae.Kind != apiclient.KindServer || apiclient.IsUnauthorized(err) {
		return err
	}
	var form Req
	return validation.FromServer(err, validation.FormFields(form)...)
}

// report prints err for a terminal: one line per field error, and a hint
// to sign in again when the API dropped the session.
func report(w io.Writer, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		if verr.General != "" {
			fmt.Fprintln(w, verr.General)
		}
		names := make([]string, 0, len(verr.Fields))
		for name := range verr.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %s\n", name, verr.Fields[name])
		}
		if verr.General == "" && len(verr.Fields) == 0 {
			fmt.Fprintln(w, verr)
		}
	case apiclient.IsUnauthorized(err):
		fmt.Fprintln(w, err)
		fmt.Fprintln(w, "not signed in; run \"treegar-admin login\"")
	default:
		fmt.Fprintln(w, err)
	}
}
