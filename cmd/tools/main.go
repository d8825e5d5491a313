package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lychee-technology/schemata"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Errorf("failed to set up logger: %w", err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		zap.S().Errorf("schemata-tools: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "schemata-tools",
		Usage: "Inspect definitions and validate documents against them",
		Commands: []*cli.Command{
			listCommand(),
			schemaCommand(),
			validateCommand(),
			initDBCommand(),
		},
	}
}

// commonFlags are accepted by every subcommand.
func commonFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a TOML configuration file",
			Value:   getenvDefault("SCHEMATA_CONFIG", ""),
		},
		&cli.StringFlag{
			Name:    "definition-dir",
			Aliases: []string{"d"},
			Usage:   "Directory containing definition files (overrides registry.definitionDirectory)",
		},
	}
	return append(flags, extra...)
}

// setup loads the configuration named by the common flags and installs the
// configured logger.
func setup(c *cli.Command) (*schemata.Config, error) {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	if dir := c.String("definition-dir"); dir != "" {
		cfg.Registry.DefinitionDirectory = dir
	}
	if err := setupLogger(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}
