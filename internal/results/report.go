package results

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Format is a rendering of a Report.
type Format string

const (
	// FormatText is the human readable rendering, one count per line.
	FormatText Format = "text"
	// FormatJSON renders the report as a JSON object.
	FormatJSON Format = "json"
	// FormatYAML renders the report as a YAML document.
	FormatYAML Format = "yaml"
	// FormatTOML renders the report as a TOML document.
	FormatTOML Format = "toml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatTOML}

// String implements pflag.Value.
func (f Format) String() string {
	return string(f)
}

// Type implements pflag.Value.
func (f Format) Type() string {
	return "format"
}

// Set implements pflag.Value.
func (f *Format) Set(s string) error {
	return f.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty value selects FormatText.
func (f *Format) UnmarshalText(text []byte) error {
	s := Format(strings.ToLower(strings.TrimSpace(string(text))))
	if s == "" {
		*f = FormatText
		return nil
	}

	for _, known := range Formats {
		if s == known {
			*f = s
			return nil
		}
	}
	return fmt.Errorf("unknown report format %q, expected one of %v", string(text), Formats)
}

// Write renders the report to w in the given format.
func (r Report) Write(w io.Writer, format Format) error {
	switch format {
	case FormatText, "":
		p := message.NewPrinter(language.English)
		_, err := p.Fprintf(w, "Number of objects before deletion: %d\nNumber of objects after deletion: %d\nNumber of empty users: %d\n",
			r.Original, r.Retained, r.Removed)
		return err
	case FormatJSON:
		return json.NewEncoder(w).Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(r)
	default:
		return fmt.Errorf("unknown report format %q", string(format))
	}
}
