// Package prompt reads interactive answers from the terminal.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New("cancelled by user")

// Prompter wraps basic prompting functionality for testability
type Prompter interface {
	Prompt(string) (string, error)
	PasswordPrompt(string) (string, error)
	Close() error
}

// LinerPrompter wraps liner.State to implement Prompter
type LinerPrompter struct {
	*liner.State
}

// NewLinerPrompter creates a new liner-based prompter. Callers must Close it
// to restore the terminal.
func NewLinerPrompter() Prompter {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return &LinerPrompter{State: line}
}

func cancelled(err error) bool {
	return errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF)
}

// TextInput asks for a line of text. liner rejects control characters in
// prompts, so the prompt itself is never coloured.
func TextInput(prompter Prompter, prompt string) (string, error) {
	result, err := prompter.Prompt(prompt + " ")
	if err != nil {
		if cancelled(err) {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("text input failed: %w", err)
	}
	return strings.TrimSpace(result), nil
}

// PasswordInput asks for a secret without echoing it. Terminals liner cannot
// drive fall back to a plain prompt.
func PasswordInput(prompter Prompter, prompt string) (string, error) {
	result, err := prompter.PasswordPrompt(prompt + " ")
	if errors.Is(err, liner.ErrNotTerminalOutput) {
		result, err = prompter.Prompt(prompt + " ")
	}
	if err != nil {
		if cancelled(err) {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("password input failed: %w", err)
	}
	return result, nil
}

// RequiredInput repeats a prompt until the answer is non-blank. read is
// TextInput or PasswordInput.
func RequiredInput(
	prompter Prompter, prompt string, read func(Prompter, string) (string, error),
) (string, error) {
	for {
		result, err := read(prompter, prompt)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(result) != "" {
			return result, nil
		}
		color.Yellow("A value is required.")
	}
}
