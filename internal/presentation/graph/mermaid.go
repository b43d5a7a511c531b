package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/pipeline"
)

// GenerateMermaid produces a Mermaid flowchart of an action's chain.
// It applies semantic styling:
// - Entry: ((Circle))
// - Middleware: [[Subroutine]]
// - Action: [/Parallelogram/]
// Edges entering a stage are labelled with the declarations applied before it
// runs; dotted return edges carry the output schemas applied once it returns.
func GenerateMermaid(desc pipeline.Description, stages []pipeline.Stage) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	entry := "entry"
	name := desc.Name
	if name == "" {
		name = "anonymous"
	}
	sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", entry, escape(name)))

	prev := entry
	for i, st := range stages {
		id := fmt.Sprintf("stage%d_%s", i, sanitizeMermaidID(st.Name))
		opener, closer := "[[", "]]"
		if i == len(stages)-1 && st.Name == pipeline.ActionStage {
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, escape(st.Name), closer))

		if label := fenceLabel(st); label != "" {
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", prev, label, id))
		} else {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, id))
		}
		if st.Outputs > 0 {
			sb.WriteString(fmt.Sprintf("    %s -. \"output x%d\" .-> %s\n", id, st.Outputs, prev))
		}
		prev = id
	}

	return sb.String()
}

func fenceLabel(st pipeline.Stage) string {
	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%s x%d", what, n))
		}
	}
	add(st.Contexts, "context")
	add(st.Metas, "meta")
	add(st.Binds, "binds")
	add(st.Inputs, "input")
	return strings.Join(parts, ", ")
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "#", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
