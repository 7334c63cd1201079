package tui

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-formstate/pkg/form"
)

// OutputFormat controls how collected values are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// ContentType reports the media type of the format.
func (f OutputFormat) ContentType() string {
	switch f {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Encode serializes the collected values in format.
func (r Result) Encode(format OutputFormat) ([]byte, error) {
	switch format {
	case OutputFormatFormURLEncoded:
		return []byte(formEncode(r.Values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(r.Values)), nil
	case OutputFormatJSON, "":
		out, err := json.MarshalIndent(r.Values, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode json: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("tui: unknown output format %q", format)
	}
}

func formEncode(values form.Values) string {
	out := url.Values{}
	for id, value := range values {
		if items, ok := value.Items(); ok {
			for _, item := range items {
				out.Add(id, item)
			}
			continue
		}
		out.Set(id, value.String())
	}
	return out.Encode()
}

func prettyPrint(values form.Values) string {
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "%s: %s\n", id, values[id].String())
	}
	return b.String()
}
