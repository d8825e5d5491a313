package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/lychee-technology/schemata"
	"github.com/lychee-technology/schemata/factory"
	"github.com/lychee-technology/schemata/internal"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the names of all registered definitions",
		Flags: commonFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			registry, closeRegistry, err := openRegistry(ctx, c)
			if err != nil {
				return err
			}
			defer closeRegistry()

			for _, name := range registry.ListDefinitions() {
				fmt.Fprintln(os.Stdout, name)
			}
			return nil
		},
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:      "schema",
		Usage:     "Print the generated JSON Schema of a definition",
		ArgsUsage: "<definition>",
		Flags:     commonFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one definition name")
			}
			v, closeRegistry, err := openValidator(ctx, c, c.Args().First())
			if err != nil {
				return err
			}
			defer closeRegistry()

			data, err := v.JSONSchema().MarshalJSON()
			if err != nil {
				return fmt.Errorf("render JSON schema: %w", err)
			}
			_, err = fmt.Fprintln(os.Stdout, string(data))
			return err
		},
	}
}

// validationResult is one line of the validate command's output.
type validationResult struct {
	Index  int            `json:"index"`
	Valid  bool           `json:"valid"`
	Record map[string]any `json:"record,omitempty"`
	Error  any            `json:"error,omitempty"`
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate JSON or newline-delimited JSON documents against a definition",
		ArgsUsage: "<definition> [file|-]",
		Flags: commonFlags(
			&cli.BoolFlag{
				Name:  "json-schema",
				Usage: "Also validate documents against the generated JSON Schema",
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() < 1 || c.Args().Len() > 2 {
				return fmt.Errorf("expected a definition name and an optional input file")
			}
			v, closeRegistry, err := openValidator(ctx, c, c.Args().First())
			if err != nil {
				return err
			}
			defer closeRegistry()

			data, err := readInput(c.Args().Get(1))
			if err != nil {
				return err
			}

			opts := []schemata.ParseOption{}
			if c.Bool("json-schema") {
				opts = append(opts, schemata.WithJSONValidation())
			}

			invalid, err := validateDocuments(ctx, v, data, os.Stdout, opts...)
			if err != nil {
				return err
			}
			if invalid > 0 {
				return cli.Exit(fmt.Sprintf("%d invalid document(s)", invalid), 2)
			}
			return nil
		},
	}
}

// validateDocuments writes one result line per document and returns the number
// of invalid documents.
func validateDocuments(ctx context.Context, v schemata.Validator, data []byte, out io.Writer, opts ...schemata.ParseOption) (int, error) {
	docs, err := internal.NewCodec().DecodeStream(data)
	if err != nil {
		return 0, err
	}

	results := make([]validationResult, len(docs))
	for i := range docs {
		results[i] = validationResult{Index: i, Valid: true}
	}

	records, err := v.ParseMany(ctx, docs, opts...)
	var batchErr *schemata.BatchError
	switch {
	case err == nil:
		for i, rec := range records {
			dumped, err := v.Dump(rec)
			if err != nil {
				return 0, err
			}
			results[i].Record = dumped
		}
	case errors.As(err, &batchErr):
		for _, failure := range batchErr.Failures {
			results[failure.Index].Valid = false
			results[failure.Index].Error = failure.Err
		}
	default:
		return 0, err
	}

	enc := json.NewEncoder(out)
	invalid := 0
	for _, res := range results {
		if !res.Valid {
			invalid++
		}
		if err := enc.Encode(res); err != nil {
			return 0, fmt.Errorf("write result: %w", err)
		}
	}
	zap.S().Debugw("validate completed", "definition", v.Definition().Name, "documents", len(docs), "invalid", invalid)
	return invalid, nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	return data, nil
}

func openRegistry(ctx context.Context, c *cli.Command) (schemata.DefinitionRegistry, func(), error) {
	cfg, err := setup(c)
	if err != nil {
		return nil, nil, err
	}
	return factory.NewRegistryFromConfig(ctx, cfg)
}

func openValidator(ctx context.Context, c *cli.Command, name string) (schemata.Validator, func(), error) {
	cfg, err := setup(c)
	if err != nil {
		return nil, nil, err
	}
	registry, closeRegistry, err := factory.NewRegistryFromConfig(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	v, err := factory.NewValidatorFromRegistry(registry, name, cfg)
	if err != nil {
		closeRegistry()
		return nil, nil, err
	}
	return v, closeRegistry, nil
}
