package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/temirov/otpcop/internal/audit"
)

// Format identifies a report rendering.
type Format string

// Supported report formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const unsupportedFormatErrorTemplate = "unsupported output format %q (expected one of %s)"

// SupportedFormats lists every format accepted by ParseFormat in presentation order.
func SupportedFormats() []string {
	return []string{string(FormatText), string(FormatJSON), string(FormatYAML)}
}

// ParseFormat normalizes a user supplied format name.
func ParseFormat(rawFormat string) (Format, error) {
	normalized := Format(strings.ToLower(strings.TrimSpace(rawFormat)))
	switch normalized {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return normalized, nil
	default:
		return "", fmt.Errorf(unsupportedFormatErrorTemplate, rawFormat, strings.Join(SupportedFormats(), ", "))
	}
}

// Renderer writes outcomes to a destination.
type Renderer interface {
	Render(writer io.Writer, outcomes []audit.Outcome) error
}

// NewRenderer returns the renderer for the format. Colorize only affects text output.
func NewRenderer(format Format, colorize bool) (Renderer, error) {
	switch format {
	case FormatText, "":
		return NewTextRenderer(colorize), nil
	case FormatJSON:
		return jsonRenderer{}, nil
	case FormatYAML:
		return yamlRenderer{}, nil
	default:
		return nil, fmt.Errorf(unsupportedFormatErrorTemplate, format, strings.Join(SupportedFormats(), ", "))
	}
}
