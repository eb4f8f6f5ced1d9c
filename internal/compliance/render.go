package compliance

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/m-mizutani/goerr/v2"
)

var (
	passStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50"))
	failStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	blockingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	advisoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// RenderText renders a report for terminals. Colors are dropped when the
// output is not a TTY.
func RenderText(r Report) string {
	var b strings.Builder
	if r.Passed {
		b.WriteString(passStyle.Render("PASS"))
	} else {
		b.WriteString(failStyle.Render("FAIL"))
	}

	blocking := len(r.Blocking())
	advisory := len(r.Violations) - blocking
	if len(r.Violations) > 0 {
		b.WriteString(hintStyle.Render(" (" + plural(blocking, "blocking") + ", " + plural(advisory, "advisory") + ")"))
	}
	b.WriteString("\n")

	for _, v := range r.Violations {
		style := advisoryStyle
		if v.Blocking() {
			style = blockingStyle
		}
		b.WriteString("  " + style.Render(v.String()) + "\n")
	}
	return b.String()
}

// RenderJSON renders a report as indented JSON with a trailing newline.
func RenderJSON(r Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, goerr.Wrap(err, "marshaling report")
	}
	return append(data, '\n'), nil
}

func plural(n int, word string) string {
	return fmt.Sprintf("%d %s", n, word)
}
