package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"locmerge/internal/audit"
	"locmerge/internal/config"
	"locmerge/internal/encoding"
	"locmerge/internal/filewalker"
	"locmerge/internal/folders"
	"locmerge/internal/graph"
	"locmerge/internal/merge"
	"locmerge/internal/parser"
	"locmerge/internal/store"
	"locmerge/internal/textutil"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	if err := NewRootCmd(afero.NewOsFs()).Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree over fs.
func NewRootCmd(fs afero.Fs) *cobra.Command {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:           "locmerge",
		Short:         "Localization file maintenance for game mods",
		Long:          "Normalizes the encoding and folder layout of mod localization files and merges source/target language pairs into a translation table.",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.StringVar(&cfg.SourceExt, "source-ext", cfg.SourceExt, "Source-language file extension")
	pf.StringVar(&cfg.TargetExt, "target-ext", cfg.TargetExt, "Target-language file extension")
	pf.StringVar(&cfg.InputEncoding, "input-encoding", cfg.InputEncoding, "Encoding assumed for files without a BOM")

	rootCmd.AddCommand(detectCmd(fs, cfg))
	rootCmd.AddCommand(normalizeCmd(fs, cfg))
	rootCmd.AddCommand(parseCmd(fs, cfg))
	rootCmd.AddCommand(mergeCmd(fs, cfg))
	rootCmd.AddCommand(foldersCmd(fs, cfg))
	rootCmd.AddCommand(auditCmd(fs, cfg))

	return rootCmd
}

func detectCmd(fs afero.Fs, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <directory>",
		Short: "Report target-language files that are not in canonical UTF-16LE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncodingPass(fs, cfg, args[0], true)
		},
	}
}

func normalizeCmd(fs afero.Fs, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <directory>",
		Short: "Rewrite UTF-8 and GB18030 localization files as UTF-16LE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncodingPass(fs, cfg, args[0], false)
		},
	}
}

func parseCmd(fs afero.Fs, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "Print the canonical form of a localization file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := parser.ParseFile(fs, args[0], cfg.InputEncoding)
			if err != nil {
				return err
			}
			log.Debug().Int("sections", len(doc.Sections())).Int("entries", doc.Len()).Msg("Parsed file")
			_, err = fmt.Fprint(cmd.OutOrStdout(), doc.String())
			return err
		},
	}
}

func mergeCmd(fs afero.Fs, cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <source-dir> <target-dir> <output>",
		Short: "Merge source/target file pairs into a sorted translation table",
		Long: `Pairs every source-language file under <source-dir> with the target-language
file sharing its relative path under <target-dir>, matches values by section and
key, and writes one "<source> -> <target>" line per distinct source value.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			anyScript, _ := cmd.Flags().GetBool("any-script")
			publishPG, _ := cmd.Flags().GetBool("publish-pg")
			publishGraph, _ := cmd.Flags().GetBool("publish-graph")
			return runMerge(fs, cfg, mergeOptions{
				sourceDir:    args[0],
				targetDir:    args[1],
				output:       args[2],
				format:       format,
				anyScript:    anyScript,
				publishPG:    publishPG,
				publishGraph: publishGraph,
			})
		},
	}

	cmd.Flags().String("format", merge.FormatText, "Output format: text, tsv or json")
	cmd.Flags().StringVar(&cfg.DedupPolicy, "policy", cfg.DedupPolicy, "Duplicate source policy: first or last")
	cmd.Flags().Bool("any-script", false, "Accept any non-empty target value instead of requiring Han characters")
	cmd.Flags().Bool("publish-pg", false, "Upsert the table into PostgreSQL (DATABASE_URL)")
	cmd.Flags().Bool("publish-graph", false, "Merge the table into Neo4j (NEO4J_URI)")
	cmd.Flags().IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Rows per publish batch")

	return cmd
}

func foldersCmd(fs afero.Fs, cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folders <directory>",
		Short: "Make every mod folder contain only its Localization directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			report, err := folders.NewNormalizer(fs, cfg.LocalizationDir).Normalize(ctx, args[0])
			if err != nil {
				return err
			}
			for _, r := range report.With(folders.Failed) {
				log.Error().Err(r.Err).Str("folder", r.Name).Msg("Folder left unfixed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.LocalizationDir, "dir-name", cfg.LocalizationDir, "Name of the localization directory")
	return cmd
}

func auditCmd(fs afero.Fs, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "audit <directory>",
		Short: "Check target-language files for canonical encoding and translated text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			auditor := audit.NewAuditor(fs, encoding.NewChardetDetector(), cfg.TargetExt, cfg.InputEncoding, textutil.ContainsChinese)
			report, err := auditor.Audit(ctx, args[0])
			if err != nil {
				return err
			}
			for _, folder := range report.Untranslated {
				log.Warn().Str("folder", folder).Msg("No translated text in any target file")
			}
			return nil
		},
	}
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// runEncodingPass handles the `detect` and `normalize` commands.
func runEncodingPass(fs afero.Fs, cfg *config.Config, root string, dryRun bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	files, err := filewalker.NewWalker(fs).Find(root, cfg.SourceExt, cfg.TargetExt)
	if err != nil {
		return fmt.Errorf("walk input directory: %w", err)
	}

	normalizer := encoding.NewNormalizer(fs, encoding.NewChardetDetector())
	_, err = normalizer.NormalizeAll(ctx, files, dryRun)
	return err
}

type mergeOptions struct {
	sourceDir    string
	targetDir    string
	output       string
	format       string
	anyScript    bool
	publishPG    bool
	publishGraph bool
}

// runMerge handles the `merge` command.
func runMerge(fs afero.Fs, cfg *config.Config, opts mergeOptions) error {
	ctx, cancel := setupContext()
	defer cancel()

	policy, err := merge.ParsePolicy(cfg.DedupPolicy)
	if err != nil {
		return err
	}

	valid := merge.DefaultPredicate
	if opts.anyScript {
		valid = textutil.NonEmpty
	}

	pairs, _, err := filewalker.NewWalker(fs).Pairs(opts.sourceDir, opts.targetDir, cfg.SourceExt, cfg.TargetExt)
	if err != nil {
		return fmt.Errorf("pair localization files: %w", err)
	}

	load := func(path string) (*parser.Document, error) {
		return parser.ParseFile(fs, path, cfg.InputEncoding)
	}
	result, err := merge.Fold(ctx, pairs, load, valid, policy)
	if err != nil {
		return err
	}

	entries := result.Table.Entries()
	if err := merge.WriteFile(fs, opts.output, opts.format, entries); err != nil {
		return err
	}

	if opts.publishPG {
		if err := publishPostgres(ctx, cfg, entries); err != nil {
			return err
		}
	}
	if opts.publishGraph {
		if err := publishGraph(ctx, cfg, entries); err != nil {
			return err
		}
	}

	return nil
}

func publishPostgres(ctx context.Context, cfg *config.Config, entries []merge.Entry) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("--publish-pg requires DATABASE_URL")
	}

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	tm := store.NewTranslationMemory(pool, cfg.BatchSize)
	if err := tm.EnsureSchema(ctx); err != nil {
		return err
	}
	_, err = tm.Publish(ctx, entries)
	return err
}

func publishGraph(ctx context.Context, cfg *config.Config, entries []merge.Entry) error {
	if cfg.Neo4jURI == "" {
		return fmt.Errorf("--publish-graph requires NEO4J_URI")
	}

	driver, err := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	glossary := graph.NewGlossary(driver, cfg.BatchSize)
	if err := glossary.EnsureSchema(ctx); err != nil {
		return err
	}
	_, err = glossary.Publish(ctx, entries)
	return err
}
