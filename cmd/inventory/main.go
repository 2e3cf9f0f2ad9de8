package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ariefcatur/go-backoffice/internal/apperr"
	"github.com/ariefcatur/go-backoffice/internal/catalog"
	"github.com/ariefcatur/go-backoffice/internal/config"
	"github.com/ariefcatur/go-backoffice/internal/inventory"
	kafkax "github.com/ariefcatur/go-backoffice/internal/kafka"
	"github.com/ariefcatur/go-backoffice/internal/logger"
	"github.com/ariefcatur/go-backoffice/internal/notify"
	"github.com/ariefcatur/go-backoffice/internal/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type app struct {
	cfg config.Config
	log *slog.Logger
	db  *pgxpool.Pool
	pub *kafkax.Producer
}

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: config.Load()}
	a.cfg.ServiceName += "-inventory"
	a.log = logger.New(a.cfg.AppEnv, a.cfg.LogLevel)

	root := &cobra.Command{
		Use:           "inventory",
		Short:         "Export and import the product catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			db, err := postgres.Connect(cmd.Context(), a.cfg.PostgresDSN, a.cfg.PGMaxConns)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			a.db = db
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
	}
	root.AddCommand(a.exportCmd(), a.importCmd(), a.migrateCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		a.log.Error("inventory", "err", err)
		a.close()
		os.Exit(1)
	}
}

func (a *app) close() {
	if a.pub != nil {
		a.pub.Close()
		a.pub.WaitClosed()
		a.pub = nil
	}
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}

func (a *app) reconciler(ctx context.Context, events bool) *inventory.Reconciler {
	r := &inventory.Reconciler{
		Catalog:     &catalog.Repo{DB: a.db},
		Notifier:    notify.LogNotifier{Log: a.log},
		ServiceName: a.cfg.ServiceName,
	}
	if events {
		a.pub = kafkax.NewProducer(a.cfg.KafkaBrokers, kafkax.TopicDocuments, 16, a.log)
		a.pub.Start(ctx)
		r.Events = a.pub
	}
	return r
}

func (a *app) exportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every product with its sizes to a JSON or CSV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := inventory.Format(format)
			if out != "" && !cmd.Flags().Changed("format") {
				if ff, err := inventory.FormatOf(out); err == nil {
					f = ff
				}
			}

			var buf bytes.Buffer
			if err := a.reconciler(cmd.Context(), false).Export(cmd.Context(), f, &buf); err != nil {
				return err
			}
			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}
			_, err := w.Write(buf.Bytes())
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", string(inventory.FormatJSON), "json or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var noEvents bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a JSON or CSV inventory file into the catalog by product code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			sum, err := a.reconciler(cmd.Context(), !noEvents).Import(cmd.Context(), filepath.Base(args[0]), data)
			var pbe *apperr.PartialBatchError
			if err != nil && !errors.As(err, &pbe) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created=%d updated=%d failed=%d\n", sum.Created, sum.Updated, sum.Failed)
			for _, e := range sum.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), "  "+e)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&noEvents, "no-events", false, "do not publish the import event to kafka")
	return cmd
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := postgres.Migrate(cmd.Context(), a.db); err != nil {
				return err
			}
			a.log.Info("schema applied")
			return nil
		},
	}
}
