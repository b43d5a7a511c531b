package schema

import (
	"fmt"
	"strings"
)

// Issue is a single validation problem reported by a schema.
// Path locates the offending value inside the validated one (field names and
// slice indexes); it is empty for problems with the value itself.
type Issue struct {
	Message string `json:"message" yaml:"message"`
	Path    []any  `json:"path,omitempty" yaml:"path,omitempty"`
}

func (i Issue) String() string {
	if len(i.Path) == 0 {
		return i.Message
	}
	parts := make([]string, len(i.Path))
	for n, p := range i.Path {
		parts[n] = fmt.Sprint(p)
	}
	return strings.Join(parts, ".") + ": " + i.Message
}

// prefix returns a copy of issues with segment prepended to every path.
func prefix(segment any, issues []Issue) []Issue {
	out := make([]Issue, len(issues))
	for n, issue := range issues {
		path := make([]any, 0, len(issue.Path)+1)
		path = append(path, segment)
		path = append(path, issue.Path...)
		out[n] = Issue{Message: issue.Message, Path: path}
	}
	return out
}

// IssueError lets Custom validators report issues with explicit paths.
// Any other error returned by a Custom validator becomes a single issue
// carrying err.Error() as its message.
type IssueError struct {
	Issues []Issue
}

func (e *IssueError) Error() string {
	if len(e.Issues) == 1 {
		return e.Issues[0].String()
	}
	msg := fmt.Sprintf("%d validation issues:\n", len(e.Issues))
	for i, issue := range e.Issues {
		msg += fmt.Sprintf("  %d. %s\n", i+1, issue.String())
	}
	return msg
}
