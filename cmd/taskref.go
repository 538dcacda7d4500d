package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/nibzard/todo-go/internal/todo"
)

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ErrTaskNotFound indicates a reference that matches no task.
var ErrTaskNotFound = errors.New("task not found")

// AmbiguousRefError reports an id prefix shared by several tasks.
type AmbiguousRefError struct {
	Ref     string
	Matches []string
}

func (e *AmbiguousRefError) Error() string {
	return fmt.Sprintf("ambiguous task reference %q matches %d tasks: %s",
		e.Ref, len(e.Matches), strings.Join(e.Matches, ", "))
}

// splitTaskRef takes the task reference off the front of args.
func splitTaskRef(args []string) (string, []string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", nil, ErrTaskRefRequired
	}
	return strings.TrimSpace(args[0]), args[1:], nil
}

// ResolveTaskRef finds the task named by ref and returns it with its
// 1-based position in tasks.
//
// Resolution order:
// 1. All digits and within range → list number
// 2. Exact id
// 3. Unique id prefix
func ResolveTaskRef(tasks []todo.Task, ref string) (todo.Task, int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return todo.Task{}, 0, ErrTaskRefRequired
	}

	if isAllDigits(ref) {
		if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(tasks) {
			return tasks[n-1], n, nil
		}
	}

	for i, t := range tasks {
		if t.ID == ref {
			return t, i + 1, nil
		}
	}

	var (
		match    todo.Task
		position int
		matches  []string
	)
	for i, t := range tasks {
		if strings.HasPrefix(t.ID, ref) {
			match, position = t, i+1
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return todo.Task{}, 0, fmt.Errorf("%w: %s", ErrTaskNotFound, ref)
	case 1:
		return match, position, nil
	default:
		return todo.Task{}, 0, &AmbiguousRefError{Ref: ref, Matches: matches}
	}
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
