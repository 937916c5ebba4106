package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/temirov/otpcop/internal/audit"
)

const (
	underlineCharacterConstant = "="
	accountPrefixConstant      = "@"
	emailTemplateConstant      = " (%s)"
	detailsTemplateConstant    = " -- %s"
	failureTemplateConstant    = "error: %s"
	backendSeparatorConstant   = "\n\n"
	lineTerminatorConstant     = "\n"
)

// TextRenderer prints one section per backend: the backend name, an underline,
// a blank line and then one line per flagged account. Failures take the place
// of the account list.
type TextRenderer struct {
	highlight func(text string) string
}

// NewTextRenderer builds a TextRenderer; colorize highlights failures with pterm styles.
func NewTextRenderer(colorize bool) TextRenderer {
	if !colorize {
		return TextRenderer{highlight: func(text string) string { return text }}
	}
	failureStyle := pterm.NewStyle(pterm.FgLightRed, pterm.Bold)
	return TextRenderer{highlight: func(text string) string { return failureStyle.Sprint(text) }}
}

// Render writes outcomes in the order given.
func (renderer TextRenderer) Render(writer io.Writer, outcomes []audit.Outcome) error {
	highlight := renderer.highlight
	if highlight == nil {
		highlight = func(text string) string { return text }
	}

	bufferedWriter := bufio.NewWriter(writer)
	for outcomeIndex, outcome := range outcomes {
		if outcomeIndex > 0 {
			bufferedWriter.WriteString(backendSeparatorConstant)
		}

		backendName := outcome.BackendName()
		bufferedWriter.WriteString(backendName + lineTerminatorConstant)
		bufferedWriter.WriteString(strings.Repeat(underlineCharacterConstant, len([]rune(backendName))) + lineTerminatorConstant)
		bufferedWriter.WriteString(lineTerminatorConstant)

		if outcome.IsFailure() {
			bufferedWriter.WriteString(highlight(fmt.Sprintf(failureTemplateConstant, outcome.Message())) + lineTerminatorConstant)
			continue
		}

		for _, account := range outcome.Accounts() {
			bufferedWriter.WriteString(formatAccount(account) + lineTerminatorConstant)
		}
	}

	return bufferedWriter.Flush()
}

func formatAccount(account audit.FlaggedAccount) string {
	var builder strings.Builder
	builder.WriteString(accountPrefixConstant)
	builder.WriteString(account.Name())
	if email, hasEmail := account.Email(); hasEmail {
		builder.WriteString(fmt.Sprintf(emailTemplateConstant, email))
	}
	if details, hasDetails := account.Details(); hasDetails {
		builder.WriteString(fmt.Sprintf(detailsTemplateConstant, details))
	}
	return builder.String()
}
