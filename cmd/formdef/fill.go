package main

import (
	"context"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdef/pkg/fields"
	"github.com/goliatone/go-formdef/pkg/tui"
)

func fillCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "fill",
		Usage:     "Fill a form interactively and print the values as JSON",
		ArgsUsage: "<schema>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "type-key",
				Usage: "key recording the chosen sub-type on multi-typed array items",
			},
		},
		Action: a.runFill,
	}
}

func (a *app) runFill(ctx context.Context, cmd *cli.Command) error {
	req, err := a.request(cmd)
	if err != nil {
		return err
	}
	orch, err := a.orchestrator(cmd)
	if err != nil {
		return err
	}
	holder, err := orch.Holder(ctx, req)
	if err != nil {
		return err
	}

	typeKey := cmd.String("type-key")
	if typeKey == "" {
		typeKey = a.cfg.Fill.ItemTypeKey
	}
	session := tui.New(
		tui.WithPromptDriver(a.driver),
		tui.WithLogger(a.logger),
		tui.WithItemTypeKey(typeKey),
		tui.WithChangeHook(func(field *fields.FieldDef, old, new any) {
			a.logger.Debug("model value changed",
				zap.String("key", field.Key),
				zap.Any("old", old),
				zap.Any("new", new),
			)
		}),
	)

	values, err := session.Fill(ctx, holder.Fields())
	if err != nil {
		return err
	}
	payload, err := encodeJSON(values, false)
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(payload)
	return err
}
