// metadoc extracts a JSON or YAML API model from documented JavaScript sources.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/phobologic/metadoc/internal/config"
	"github.com/phobologic/metadoc/internal/diag"
	"github.com/phobologic/metadoc/internal/discover"
	"github.com/phobologic/metadoc/internal/generator"
	"github.com/phobologic/metadoc/internal/output"
	"github.com/phobologic/metadoc/internal/parse"
	"github.com/phobologic/metadoc/internal/tags"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var (
		configFile  string
		verbose     bool
		showVersion bool
	)

	cmd := &cobra.Command{
		Use:   "metadoc [source]",
		Short: "Generate an API model from documented JavaScript sources",
		Long: `metadoc walks a JavaScript source tree, reads its doc comments and the
classes, members and events they describe, and writes the resulting API model
to <output>/api.json (or api.yaml). Use -o - to write to stdout.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				_, _ = fmt.Fprintf(stdout, "metadoc %s\n", version)
				return nil
			}
			if len(args) > 0 && !cmd.Flags().Changed("source") {
				if err := cmd.Flags().Set("source", args[0]); err != nil {
					return err
				}
			}

			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return build(cmd.Context(), cfg, verbose, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringP("source", "s", ".", "source directory to document")
	f.StringP("output", "o", "docs", "output directory, or - for stdout")
	f.StringVar(&configFile, "config", "", "config file (default: "+config.FileName+" in the source root or working directory)")
	f.StringP("format", "f", "json", "output format (json or yaml)")
	f.StringSlice("ignore", nil, "gitignore-style patterns to exclude (repeatable)")
	f.Bool("warnnocode", false, "warn about documented parameters without source code")
	f.Bool("warnskippedevents", false, "warn about event emitters that could not be documented")
	f.BoolVarP(&verbose, "verbose", "v", false, "log silent diagnostics")
	f.BoolVarP(&showVersion, "version", "V", false, "show version and exit")

	cmd.AddCommand(newInitCommand(stdout, stderr))
	return cmd
}

// build runs one documentation build for cfg and writes its document.
func build(ctx context.Context, cfg *config.Config, verbose bool, stdout, stderr io.Writer) error {
	log := diag.NewConsoleLogger(stderr, verbose)
	reporter := diag.New(log, cfg.Policy())

	aliases, err := tags.LoadAliases(cfg.TagAliases)
	if err != nil {
		return err
	}

	files, err := discover.Files(cfg.Source, discover.Options{
		Extensions: cfg.Extensions,
		Ignore:     cfg.Ignore,
		SkipTests:  cfg.SkipTests,
	})
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		log.Warn().Str("source", cfg.Source).Msg("no source files found")
	}

	gen, err := generator.New(generator.Options{
		Root:        cfg.Source,
		Workers:     cfg.Workers,
		MaxFileSize: cfg.MaxFileSize,
		Framework: parse.Options{
			Namespace:        cfg.Framework.Namespace,
			Bus:              cfg.Framework.Bus,
			ExceptionFactory: cfg.Framework.ExceptionFactory,
		},
		Aliases: aliases,
	}, reporter)
	if err != nil {
		return err
	}

	s, err := gen.Run(ctx, files)
	if err != nil {
		return err
	}

	doc := output.Build(s, output.Options{
		Requires: cfg.Include.Requires,
		Globals:  cfg.Include.Globals,
	})
	format := output.Format(cfg.Format)
	if cfg.Output == "-" {
		if err := output.Encode(stdout, doc, format); err != nil {
			return err
		}
	} else {
		p, err := output.Write(cfg.Output, doc, format)
		if err != nil {
			return err
		}
		log.Info().Str("path", p).Msg("wrote API document")
	}

	reporter.Summary(s.Files)
	return nil
}
