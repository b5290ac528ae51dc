// Package label rewrites label-form combo programs ("and(#a #b)") into
// positional form ("and(#1 #2)") using a table header, and back for display.
package label

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/evaltable/pkg/token"
)

// UnknownLabelError is returned when a referenced label is not in the header.
type UnknownLabelError struct {
	Label  string
	Offset int // byte offset of the '#' in the program text
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("unknown label %q at offset %d", e.Label, e.Offset)
}

// Translate replaces every "#<label>" whose name equals a header label with
// "#<1-based index>". Matching is by whole token: the label runs from the
// '#' to the next separator. Tokens made only of digits that are not labels
// are left as they are.
func Translate(program string, header []string) (string, error) {
	index := make(map[string]int, len(header))
	for i, l := range header {
		if _, dup := index[l]; !dup {
			index[l] = i + 1
		}
	}

	var out strings.Builder
	out.Grow(len(program))

	err := scan(program, func(name string, offset int) (string, error) {
		if i, ok := index[name]; ok {
			return strconv.Itoa(i), nil
		}
		if name == "" || isDigits(name) {
			return name, nil
		}
		return "", &UnknownLabelError{Label: name, Offset: offset}
	}, &out)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

// Untranslate replaces positional placeholders that fall inside the header
// with their labels. It is meant for display; labels containing separators
// do not survive a second Translate.
func Untranslate(program string, header []string) string {
	var out strings.Builder
	out.Grow(len(program))

	// The callback never fails.
	_ = scan(program, func(name string, _ int) (string, error) {
		if !isDigits(name) {
			return name, nil
		}
		i, err := strconv.Atoi(name)
		if err != nil || i < 1 || i > len(header) || header[i-1] == "" {
			return name, nil
		}
		return header[i-1], nil
	}, &out)
	return out.String()
}

// References returns the label names referenced by program, in order of
// first appearance.
func References(program string) []string {
	var names []string
	seen := make(map[string]bool)
	_ = scan(program, func(name string, _ int) (string, error) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return name, nil
	}, &strings.Builder{})
	return names
}

// scan copies program to out, passing the name following each '#' through
// replace.
func scan(program string, replace func(name string, offset int) (string, error), out *strings.Builder) error {
	for i := 0; i < len(program); {
		c := program[i]
		if c != token.PlaceholderPrefix {
			out.WriteByte(c)
			i++
			continue
		}

		start := i + 1
		end := start
		for end < len(program) && !token.IsSeparator(program[end]) {
			end++
		}
		name, err := replace(program[start:end], i)
		if err != nil {
			return err
		}
		out.WriteByte(token.PlaceholderPrefix)
		out.WriteString(name)
		i = end
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
