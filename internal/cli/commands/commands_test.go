package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEvalCommand(t *testing.T) {
	cmd := NewEvalCommand()

	assert.Equal(t, "eval", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"combo", "combo-file", "output", "format", "display-input", "header", "failure-token"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "c", cmd.Flags().Lookup("combo").Shorthand)
	assert.Equal(t, "stringArray", cmd.Flags().Lookup("combo").Value.Type())
}

func TestNewWatchCommand(t *testing.T) {
	cmd := NewWatchCommand()

	assert.Equal(t, "watch", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	debounce := cmd.Flags().Lookup("debounce")
	if assert.NotNil(t, debounce) {
		assert.Equal(t, "200ms", debounce.DefValue)
	}
	assert.NotNil(t, cmd.Flags().Lookup("combo"))
}

func TestNewInferCommand(t *testing.T) {
	cmd := NewInferCommand()

	assert.Equal(t, "infer", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("markdown"))
}

func TestNewOperatorsCommand(t *testing.T) {
	cmd := NewOperatorsCommand()

	assert.Equal(t, "operators", cmd.Use)
	assert.Contains(t, cmd.Aliases, "ops")
}

func TestNewREPLCommand(t *testing.T) {
	cmd := NewREPLCommand()

	assert.Equal(t, "repl", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("format"))
}

func TestNewRunsCommand(t *testing.T) {
	cmd := NewRunsCommand()

	assert.Equal(t, "runs", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"list", "show"}, names)
}
