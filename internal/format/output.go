package format

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Texter is implemented by values with a human-readable rendering.
type Texter interface {
	Text() string
}

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - yaml
// - text (values implementing Texter; anything else falls back to yaml)
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "yaml":
		return WriteYAML(w, v)
	case "text":
		if t, ok := v.(Texter); ok {
			_, err := fmt.Fprintln(w, t.Text())
			return err
		}
		return WriteYAML(w, v)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteYAML writes v as YAML using its JSON field names, so both formats share one schema.
func WriteYAML(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

type textView struct {
	v      any
	render func() string
}

func (t textView) Text() string                 { return t.render() }
func (t textView) MarshalJSON() ([]byte, error) { return json.Marshal(t.v) }

// WithText attaches a text rendering to v. JSON and YAML output are unchanged.
func WithText(v any, render func() string) any {
	if render == nil {
		return v
	}
	return textView{v: v, render: render}
}
