// Command catalog-import governs one or more catalog CSV documents and
// replaces the stored catalog with the accepted products.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/xenking/kart-catalog/internal/app"
	"github.com/xenking/kart-catalog/internal/bulk"
	"github.com/xenking/kart-catalog/internal/catalog"
	"github.com/xenking/kart-catalog/internal/domain/auth"
	"github.com/xenking/kart-catalog/internal/governance"
	"github.com/xenking/kart-catalog/internal/storage/postgres"
)

func main() {
	lg, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newApp(lg).RunContext(ctx, os.Args); err != nil {
		lg.Error("catalog import failed", zap.Error(err))
		cancel()
		os.Exit(1)
	}
}

func newApp(lg *zap.Logger) *cli.App {
	return &cli.App{
		Name:  "catalog-import",
		Usage: "Govern catalog CSV documents and publish the accepted products",
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Govern FILES (.csv or .csv.gz) and replace the stored catalog",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "database-url",
						Usage:   "PostgreSQL connection URL",
						EnvVars: []string{"CATALOG_DATABASE_URL", "DATABASE_URL"},
					},
					&cli.BoolFlag{Name: "dry-run", Usage: "Validate only, never write"},
					&cli.BoolFlag{Name: "json", Usage: "Print the report as JSON"},
					&cli.IntFlag{Name: "parallelism", Usage: "Documents governed at once (0 = GOMAXPROCS)"},
					&cli.StringFlag{Name: "currency", Value: "INR", Usage: "ISO currency of imported prices"},
					&cli.StringFlag{Name: "default-status", Value: "proposed", Usage: "Status of rows without a Status column"},
					&cli.StringSliceFlag{
						Name:  "passthrough",
						Value: cli.NewStringSlice(governance.DefaultPassthrough...),
						Usage: "Columns copied into product metadata",
					},
					&cli.StringFlag{Name: "taxonomy-file", Usage: "Category tree YAML"},
					&cli.StringFlag{Name: "attributes-file", Usage: "Attribute dictionary YAML"},
				},
				Action: func(c *cli.Context) error {
					return runImport(c, lg)
				},
			},
			{
				Name:      "hash-key",
				Usage:     "Print the HMAC hash of an operator API key for CATALOG_AUTH_IMPORTKEYS",
				ArgsUsage: "KEY",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "pepper",
						Usage:    "HMAC pepper configured on the server",
						EnvVars:  []string{"CATALOG_AUTH_PEPPER"},
						Required: true,
					},
					&cli.StringFlag{Name: "name", Value: "operator", Usage: "Key name"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("exactly one KEY argument is required", 2)
					}
					_, err := fmt.Fprintf(c.App.Writer, "%s:%s\n", c.String("name"), auth.Hash([]byte(c.String("pepper")), c.Args().First()))
					return err
				},
			},
		},
	}
}

func runImport(c *cli.Context, lg *zap.Logger) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return cli.Exit("at least one FILE is required", 2)
	}
	dryRun := c.Bool("dry-run")
	databaseURL := c.String("database-url")
	if !dryRun && databaseURL == "" {
		return cli.Exit("database URL is required unless --dry-run is set", 2)
	}

	vocab, err := app.LoadVocabulary(app.VocabConfig{
		TaxonomyFile:   c.String("taxonomy-file"),
		AttributesFile: c.String("attributes-file"),
	})
	if err != nil {
		return err
	}
	pipeline, err := app.NewPipeline(vocab, app.ImportConfig{
		Currency:      c.String("currency"),
		DefaultStatus: c.String("default-status"),
		Passthrough:   c.StringSlice("passthrough"),
		MaxTitle:      governance.DefaultMaxTitle,
		MaxDesc:       governance.DefaultMaxDescription,
	})
	if err != nil {
		return err
	}

	gov := bulk.NewGovernor(pipeline,
		bulk.WithLogger(lg),
		bulk.WithParallelism(c.Int("parallelism")),
	)
	res, err := gov.GovernFiles(c.Context, paths)
	if err != nil {
		return err
	}

	out := &importOutput{Result: res}
	if !dryRun {
		if out.Import, err = commit(c.Context, lg, pipeline, databaseURL, res.Merged); err != nil {
			return err
		}
	}

	if err := printReport(c.App.Writer, out, c.Bool("json")); err != nil {
		return errors.Wrap(err, "print report")
	}
	if !res.Merged.Success() {
		return cli.Exit("no rows accepted", 1)
	}
	return nil
}

// commit replaces the stored catalog with the merged report.
func commit(
	ctx context.Context,
	lg *zap.Logger,
	pipeline *governance.Pipeline,
	databaseURL string,
	report *governance.Report,
) (*catalog.ImportResult, error) {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return nil, errors.Wrap(err, "run migrations")
	}

	// Imports never search, so the service runs without an engine.
	svc, err := catalog.NewService(pipeline, nil, postgres.NewProductRepository(pool),
		catalog.WithLogger(lg.Named("catalog")),
		catalog.WithImportRuns(postgres.NewImportRunRepository(pool)),
	)
	if err != nil {
		return nil, err
	}
	return svc.CommitReport(ctx, report)
}

type importOutput struct {
	Result *bulk.Result
	Import *catalog.ImportResult
}

func printReport(w io.Writer, out *importOutput, asJSON bool) error {
	merged := out.Result.Merged
	if asJSON {
		e := jx.GetEncoder()
		defer jx.PutEncoder(e)
		e.SetIdent(2)

		e.Obj(func(e *jx.Encoder) {
			e.Field("success", func(e *jx.Encoder) { e.Bool(merged.Success()) })
			e.Field("count", func(e *jx.Encoder) { e.Int(merged.Accepted()) })
			e.Field("rejected", func(e *jx.Encoder) { e.Int(merged.Rejected()) })
			e.Field("duplicates", func(e *jx.Encoder) { e.Int(out.Result.Duplicates) })
			e.Field("errors", func(e *jx.Encoder) { encodeStrings(e, merged.ErrorStrings()) })
			e.Field("warnings", func(e *jx.Encoder) { encodeStrings(e, merged.WarningStrings()) })
			if out.Import != nil {
				e.Field("committed", func(e *jx.Encoder) { e.Bool(out.Import.Committed) })
				e.Field("version", func(e *jx.Encoder) { e.Str(out.Import.Version) })
				e.Field("run_id", func(e *jx.Encoder) { e.Str(out.Import.RunID) })
			}
		})
		_, err := fmt.Fprintln(w, e.String())
		return err
	}

	for _, msg := range merged.ErrorStrings() {
		fmt.Fprintln(w, "error:", msg)
	}
	for _, msg := range merged.WarningStrings() {
		fmt.Fprintln(w, "warning:", msg)
	}
	for _, d := range out.Result.Documents {
		fmt.Fprintf(w, "%s: %d accepted, %d rejected\n", d.Path, d.Report.Accepted(), d.Report.Rejected())
	}
	fmt.Fprintf(w, "total: %d accepted, %d rejected, %d cross-file duplicates\n",
		merged.Accepted(), merged.Rejected(), out.Result.Duplicates)
	if out.Import != nil && out.Import.Committed {
		fmt.Fprintf(w, "committed catalog version %s\n", out.Import.Version)
	}
	return nil
}

func encodeStrings(e *jx.Encoder, values []string) {
	e.Arr(func(e *jx.Encoder) {
		for _, v := range values {
			e.Str(v)
		}
	})
}
