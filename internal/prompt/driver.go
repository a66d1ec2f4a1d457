package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted signals the user aborted input (e.g., Ctrl+C).
var ErrAborted = errors.New("prompt: aborted")

// InputConfig configures a single-line text prompt.
type InputConfig struct {
	Message string
	Default string
	Help    string
}

// ConfirmConfig configures a yes/no prompt.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// SelectConfig configures a single-choice prompt.
type SelectConfig struct {
	Message      string
	Options      []string
	DefaultIndex int
	Help         string
}

// Driver abstracts the terminal so collection logic can be tested without a
// real TTY.
type Driver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Password(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	TextArea(ctx context.Context, cfg InputConfig) (string, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out  io.Writer
	opts []survey.AskOpt
}

// NewSurveyDriver returns the interactive terminal driver. Prompts and Info
// messages go to out, or stdout when out is nil.
func NewSurveyDriver(out io.Writer) Driver {
	if out == nil {
		out = os.Stdout
	}
	d := &surveyDriver{out: out}
	if f, ok := out.(terminal.FileWriter); ok {
		d.opts = append(d.opts, survey.WithStdio(os.Stdin, f, os.Stderr))
	}
	return d
}

// surveyAsk runs one survey prompt into a T, mapping Ctrl+C to ErrAborted.
func surveyAsk[T any](ctx context.Context, d *surveyDriver, p survey.Prompt) (T, error) {
	var answer T
	if err := ctx.Err(); err != nil {
		return answer, err
	}
	err := survey.AskOne(p, &answer, d.opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return answer, ErrAborted
	}
	return answer, err
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	return surveyAsk[string](ctx, d, &survey.Input{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default})
}

func (d *surveyDriver) Password(ctx context.Context, cfg InputConfig) (string, error) {
	return surveyAsk[string](ctx, d, &survey.Password{Message: cfg.Message, Help: cfg.Help})
}

func (d *surveyDriver) TextArea(ctx context.Context, cfg InputConfig) (string, error) {
	return surveyAsk[string](ctx, d, &survey.Multiline{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default})
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	return surveyAsk[bool](ctx, d, &survey.Confirm{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default})
}

// Select answers with the chosen index. survey writes an int answer as the
// option index.
func (d *surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	choice := &survey.Select{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help}
	if cfg.DefaultIndex >= 0 && cfg.DefaultIndex < len(cfg.Options) {
		choice.Default = cfg.Options[cfg.DefaultIndex]
	}
	return surveyAsk[int](ctx, d, choice)
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}
