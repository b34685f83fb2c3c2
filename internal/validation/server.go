package validation

import (
	"errors"
	"reflect"
	"strings"
)

// fieldReporter is implemented by API errors that carry server-side
// validation details.
type fieldReporter interface {
	error
	FieldErrors() map[string][]string
	ServerMessage() string
}

// FromServer maps a failed submit onto the form's field slots. Server field
// names are matched case-insensitively against known (a dotted prefix such
// as "request.Email" is ignored). Anything that cannot be placed ends up in
// General, so a form always has something to show.
func FromServer(err error, known ...string) *Error {
	if err == nil {
		return nil
	}

	var local *Error
	if errors.As(err, &local) {
		return local
	}

	out := &Error{Fields: map[string]string{}}

	var fr fieldReporter
	if !errors.As(err, &fr) {
		out.General = GenericMessage
		return out
	}

	var unplaced []string
	for name, msgs := range fr.FieldErrors() {
		if len(msgs) == 0 {
			continue
		}
		slot, ok := matchField(name, known)
		if !ok {
			unplaced = append(unplaced, msgs[0])
			continue
		}
		if _, seen := out.Fields[slot]; !seen {
			out.Fields[slot] = msgs[0]
		}
	}

	switch {
	case len(out.Fields) == 0 && len(unplaced) > 0:
		out.General = unplaced[0]
	case len(out.Fields) == 0:
		out.General = fr.ServerMessage()
	}
	if len(out.Fields) == 0 && out.General == "" {
		out.General = GenericMessage
	}
	return out
}

func matchField(name string, known []string) (string, bool) {
	name = strings.TrimPrefix(name, "$.")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	for _, k := range known {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}

// FormFields lists the JSON field names of a request DTO, the slots
// FromServer can place messages on.
func FormFields(form any) []string {
	t := reflect.TypeOf(form)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		out = append(out, name)
	}
	return out
}
