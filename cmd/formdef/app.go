package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdef/internal/config"
	"github.com/goliatone/go-formdef/internal/loader"
	"github.com/goliatone/go-formdef/pkg/fields"
	"github.com/goliatone/go-formdef/pkg/openapi"
	"github.com/goliatone/go-formdef/pkg/orchestrator"
	"github.com/goliatone/go-formdef/pkg/schema"
	"github.com/goliatone/go-formdef/pkg/tui"
)

// ErrSchemaRequired is returned when a command is run without a schema
// location.
var ErrSchemaRequired = errors.New("schema location argument required")

// app carries the state shared by subcommands once the root Before hook has
// loaded the configuration.
type app struct {
	stdout io.Writer
	stderr io.Writer
	driver tui.PromptDriver

	cfg    *config.Config
	logger *zap.Logger
}

func newApp(stdout, stderr io.Writer, driver tui.PromptDriver) *cli.Command {
	a := &app{stdout: stdout, stderr: stderr, driver: driver}
	return &cli.Command{
		Name:      "formdef",
		Usage:     "Turn model schemas into form field definitions",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML config file (default: .formdef.toml, then the user config dir)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "schema format: auto, json, yaml or openapi",
			},
			&cli.StringFlag{
				Name:  "component",
				Usage: "OpenAPI component schema to convert",
			},
			&cli.StringFlag{
				Name:  "preset",
				Usage: "JSON or YAML file with property patches applied before conversion",
			},
			&cli.BoolFlag{
				Name:  "http",
				Usage: "allow loading schemas from http(s) URLs",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "base URL for relative option endpoints",
			},
		},
		Before: a.setup,
		After: func(ctx context.Context, _ *cli.Command) error {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			fieldsCommand(a),
			lookupCommand(a),
			fillCommand(a),
			componentsCommand(a),
			lintCommand(a),
		},
	}
}

func (a *app) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, used, err := config.Load(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	if base := cmd.String("base-url"); base != "" {
		cfg.Options.BaseURL = base
		if err := cfg.Validate(); err != nil {
			return ctx, err
		}
	}
	a.cfg = cfg

	logger, err := newLogger(cfg, cmd.Bool("debug"), a.stderr)
	if err != nil {
		return ctx, err
	}
	a.logger = logger
	if used != "" {
		a.logger.Debug("config loaded", zap.String("path", used))
	}
	return ctx, nil
}

func (a *app) loader(cmd *cli.Command) schema.Loader {
	options := []loader.Option{loader.WithLogger(a.logger)}
	if a.cfg.Loader.AllowHTTP || cmd.Bool("http") {
		options = append(options, loader.WithHTTP(a.cfg.Timeout()))
	}
	return loader.New(options...)
}

func (a *app) openapi() *openapi.Adapter {
	return openapi.New(openapi.WithLogger(a.logger))
}

func (a *app) orchestrator(cmd *cli.Command) (*orchestrator.Orchestrator, error) {
	registry, err := a.cfg.OptionRegistry(a.logger)
	if err != nil {
		return nil, err
	}
	converter := fields.NewConverter(append(a.cfg.ConverterOptions(), fields.WithLogger(a.logger))...)

	options := []orchestrator.Option{
		orchestrator.WithLogger(a.logger),
		orchestrator.WithLoader(a.loader(cmd)),
		orchestrator.WithConverter(converter),
		orchestrator.WithOpenAPI(a.openapi()),
		orchestrator.WithOptionProviders(registry),
	}
	if path := cmd.String("preset"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read preset: %w", err)
		}
		preset, err := orchestrator.NewPresetTransformer(raw)
		if err != nil {
			return nil, err
		}
		options = append(options, orchestrator.WithSchemaTransformer(preset))
	}
	return orchestrator.New(options...), nil
}

// request builds the orchestrator request from the first positional
// argument and the global flags.
func (a *app) request(cmd *cli.Command) (orchestrator.Request, error) {
	location := cmd.Args().First()
	if location == "" {
		return orchestrator.Request{}, ErrSchemaRequired
	}
	src, err := schema.ParseSource(location)
	if err != nil {
		return orchestrator.Request{}, err
	}

	rawFormat := cmd.String("format")
	if rawFormat == "" {
		rawFormat = a.cfg.Format
	}
	format, err := schema.ParseFormat(rawFormat)
	if err != nil {
		return orchestrator.Request{}, err
	}
	return orchestrator.Request{
		Source:    src,
		Format:    format,
		Component: cmd.String("component"),
	}, nil
}
