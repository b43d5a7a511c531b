package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/lattice/pkg/pipeline"
)

// NewRenderer returns a function that renders markdown using glamour.
// It falls back to the raw markdown when no renderer can be built.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Markdown documents actions as a markdown report, one section per action.
func Markdown(actions []*pipeline.Action) string {
	var sb strings.Builder
	sb.WriteString("# Actions\n")
	for _, a := range actions {
		desc := a.Describe()
		name := desc.Name
		if name == "" {
			name = "(anonymous)"
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", name)
		fmt.Fprintf(&sb, "- Contexts: %d\n- Metas: %d\n", desc.Contexts, desc.Metas)
		for i, group := range desc.Binds {
			fmt.Fprintf(&sb, "- Bind %d: `%s`\n", i, strings.Join(group, " | "))
		}
		for _, in := range desc.Inputs {
			fmt.Fprintf(&sb, "- Input: `%s`\n", in)
		}
		for _, out := range desc.Outputs {
			fmt.Fprintf(&sb, "- Output: `%s`\n", out)
		}

		sb.WriteString("\n| Stage | Context | Meta | Binds | Input | Output |\n")
		sb.WriteString("|-------|---------|------|-------|-------|--------|\n")
		for _, st := range a.Stages() {
			fmt.Fprintf(&sb, "| %s | %d | %d | %d | %d | %d |\n",
				st.Name, st.Contexts, st.Metas, st.Binds, st.Inputs, st.Outputs)
		}
	}
	return sb.String()
}
