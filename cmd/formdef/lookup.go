package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
)

// ErrFieldNotFound is returned when lookup names an id the schema does not
// declare.
var ErrFieldNotFound = errors.New("field not found")

func lookupCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "Print a single field definition by id",
		ArgsUsage: "<schema> <id>",
		Action:    a.runLookup,
	}
}

func (a *app) runLookup(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().Get(1)
	if id == "" {
		return errors.New("field id argument required")
	}
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

	field, ok := holder.FieldByID(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, id)
	}
	payload, err := encodeJSON(field, false)
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(payload)
	return err
}
