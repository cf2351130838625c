package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/goliatone/go-formdef/pkg/openapi"
	"github.com/goliatone/go-formdef/pkg/schema"
)

// ErrLintViolations is returned when lint reports at least one violation.
var ErrLintViolations = errors.New("form extension violations found")

func componentsCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "components",
		Usage:     "List the component schemas of an OpenAPI document that can be converted",
		ArgsUsage: "<openapi>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			spec, err := a.parseOpenAPI(ctx, cmd, cmd.Args().First())
			if err != nil {
				return err
			}
			for _, name := range spec.Components() {
				if _, err := fmt.Fprintln(a.stdout, name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func lintCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "Check the x-formdef extensions of OpenAPI documents",
		ArgsUsage: "<openapi>...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return ErrSchemaRequired
			}

			var violations []openapi.Violation
			for _, path := range paths {
				spec, err := a.parseOpenAPI(ctx, cmd, path)
				if err != nil {
					return fmt.Errorf("lint %s: %w", path, err)
				}
				violations = append(violations, spec.Lint(nil)...)
			}
			for _, violation := range violations {
				if _, err := fmt.Fprintln(a.stdout, violation.String()); err != nil {
					return err
				}
			}
			if len(violations) > 0 {
				return fmt.Errorf("%w: %d", ErrLintViolations, len(violations))
			}
			return nil
		},
	}
}

func (a *app) parseOpenAPI(ctx context.Context, cmd *cli.Command, location string) (*openapi.Spec, error) {
	if location == "" {
		return nil, ErrSchemaRequired
	}
	src, err := schema.ParseSource(location)
	if err != nil {
		return nil, err
	}
	doc, err := a.loader(cmd).Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return a.openapi().Parse(ctx, doc)
}
