package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// InputConfig describes a free-text prompt. Rules returns the messages of
// every rule an answer breaks, an empty list when the answer is accepted.
type InputConfig struct {
	Message string
	Default string
	Help    string
	Rules   func(answer string) []string
}

// ConfirmConfig describes a yes/no prompt.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// SelectConfig describes a pick from Options. DefaultIndex applies to single
// picks, Defaults to multi picks; both index into Options.
type SelectConfig struct {
	Message      string
	Options      []string
	DefaultIndex int
	Defaults     []int
	Help         string
	PageSize     int
}

// PromptDriver abstracts the terminal so sessions can be tested without one.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns a PromptDriver backed by survey on the process
// terminal.
func NewSurveyDriver() PromptDriver {
	return &surveyDriver{out: os.Stderr}
}

// ask runs one survey prompt unless ctx is already done.
func ask(ctx context.Context, prompt survey.Prompt, answer any, opts ...survey.AskOpt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := survey.AskOne(prompt, answer, opts...); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return ErrAborted
		}
		return err
	}
	return nil
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	var answer string
	var opts []survey.AskOpt
	if cfg.Rules != nil {
		opts = append(opts, survey.WithValidator(rulesValidator(cfg.Rules)))
	}
	prompt := &survey.Input{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}
	if err := ask(ctx, prompt, &answer, opts...); err != nil {
		return "", err
	}
	return answer, nil
}

// rulesValidator lets survey re-prompt in place while an answer breaks a
// rule, showing every broken rule at once.
func rulesValidator(rules func(string) []string) survey.Validator {
	return func(ans any) error {
		text, _ := ans.(string)
		if messages := rules(text); len(messages) > 0 {
			return errors.New(strings.Join(messages, "; "))
		}
		return nil
	}
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	var answer bool
	prompt := &survey.Confirm{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}
	if err := ask(ctx, prompt, &answer); err != nil {
		return false, err
	}
	return answer, nil
}

// Select writes the picked index straight from survey's option answer.
func (d *surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	answer := -1
	prompt := &survey.Select{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help, PageSize: cfg.PageSize}
	if cfg.DefaultIndex > 0 && cfg.DefaultIndex < len(cfg.Options) {
		prompt.Default = cfg.DefaultIndex
	}
	if err := ask(ctx, prompt, &answer); err != nil {
		return -1, err
	}
	return answer, nil
}

func (d *surveyDriver) MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error) {
	var answer []int
	prompt := &survey.MultiSelect{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help, PageSize: cfg.PageSize}
	if defaults := inRange(cfg.Defaults, len(cfg.Options)); len(defaults) > 0 {
		prompt.Default = defaults
	}
	if err := ask(ctx, prompt, &answer); err != nil {
		return nil, err
	}
	return answer, nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

func inRange(indices []int, size int) []int {
	var out []int
	for _, idx := range indices {
		if idx >= 0 && idx < size {
			out = append(out, idx)
		}
	}
	return out
}

// indicesOf returns the positions of options found in values, in option
// order.
func indicesOf(options, values []string) []int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	var out []int
	for i, option := range options {
		if _, ok := seen[option]; ok {
			out = append(out, i)
		}
	}
	return out
}
