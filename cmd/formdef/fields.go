package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func fieldsCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "fields",
		Usage:     "Print the field definitions built from a schema as JSON",
		ArgsUsage: "<schema>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "write to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "compact",
				Usage: "emit JSON without indentation",
			},
		},
		Action: a.runFields,
	}
}

func (a *app) runFields(ctx context.Context, cmd *cli.Command) error {
	req, err := a.request(cmd)
	if err != nil {
		return err
	}
	orch, err := a.orchestrator(cmd)
	if err != nil {
		return err
	}
	built, err := orch.Fields(ctx, req)
	if err != nil {
		return err
	}

	payload, err := encodeJSON(built, cmd.Bool("compact"))
	if err != nil {
		return err
	}
	if out := cmd.String("out"); out != "" {
		if err := os.WriteFile(out, payload, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		a.logger.Info("fields written", zap.String("path", out), zap.Int("fields", len(built)))
		return nil
	}
	_, err = a.stdout.Write(payload)
	return err
}

func encodeJSON(value any, compact bool) ([]byte, error) {
	var (
		payload []byte
		err     error
	)
	if compact {
		payload, err = json.Marshal(value)
	} else {
		payload, err = json.MarshalIndent(value, "", "  ")
	}
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return append(payload, '\n'), nil
}
