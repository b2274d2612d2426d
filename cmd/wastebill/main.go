package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/wastebill/internal/billingmodel"
	"github.com/railzwaylabs/wastebill/internal/clock"
	"github.com/railzwaylabs/wastebill/internal/collection"
	"github.com/railzwaylabs/wastebill/internal/config"
	"github.com/railzwaylabs/wastebill/internal/events"
	"github.com/railzwaylabs/wastebill/internal/invoice"
	invoicedomain "github.com/railzwaylabs/wastebill/internal/invoice/domain"
	"github.com/railzwaylabs/wastebill/internal/migration"
	"github.com/railzwaylabs/wastebill/internal/observability"
	"github.com/railzwaylabs/wastebill/internal/payment"
	"github.com/railzwaylabs/wastebill/internal/redis"
	"github.com/railzwaylabs/wastebill/internal/resident"
	"github.com/railzwaylabs/wastebill/internal/scheduler"
	"github.com/railzwaylabs/wastebill/internal/server"
	"github.com/railzwaylabs/wastebill/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wastebill",
		Short:         "Waste collection billing service",
		Version:       readVersionFromEnv(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newServeCmd(), newInvoiceCmd(), newDispatchCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and record the schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate()
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, payment webhook and billing scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			runServe()
			return nil
		},
	}
}

func newInvoiceCmd() *cobra.Command {
	invoiceCmd := &cobra.Command{
		Use:   "invoice",
		Short: "Invoice maintenance commands",
	}

	var asOf string
	run := &cobra.Command{
		Use:   "run",
		Short: "Generate previous-month invoices for every resident",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoiceBatch(cmd.Context(), asOf)
		},
	}
	run.Flags().StringVar(&asOf, "as-of", "", "bill as if today were this date (YYYY-MM-DD)")
	invoiceCmd.AddCommand(run)
	return invoiceCmd
}

func newDispatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Relay invoice events from the outbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			runDispatch()
			return nil
		},
	}
}

// baseModules wires the process infrastructure. Serve replicas generate ids on
// snowflake_node; every other command runs on the batch node so it can run
// alongside them.
func baseModules(batch bool) fx.Option {
	register := registerSnowflake
	if batch {
		register = registerBatchSnowflake
	}
	return fx.Options(
		config.Module,
		observability.Module,
		fx.Provide(register),
		db.Module,
	)
}

func billingModules() fx.Option {
	return fx.Options(
		clock.Module,
		redis.Module,
		events.Module,
		resident.Module,
		billingmodel.Module,
		collection.Module,
		invoice.Module,
		payment.Module,
	)
}

func runMigrate() error {
	app := fx.New(
		baseModules(true),
		migration.Module,
	)
	if err := app.Err(); err != nil {
		return fmt.Errorf("migrate failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("migrate failed: %w", err)
	}
	_ = app.Stop(context.Background())
	return nil
}

func runServe() {
	app := fx.New(
		baseModules(false),
		migration.GateModule,
		billingModules(),
		scheduler.Module,
		server.Module,
		fx.Invoke(startScheduler),
	)
	app.Run()
}

func runInvoiceBatch(parent context.Context, asOf string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx := parent
	if asOf != "" {
		day, err := time.Parse(time.DateOnly, asOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of: %w", err)
		}
		ctx = clock.WithTime(ctx, day)
	}

	var svc invoicedomain.Service
	app := fx.New(
		baseModules(true),
		migration.GateModule,
		billingModules(),
		fx.Populate(&svc),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() { _ = app.Stop(context.Background()) }()

	result, err := svc.GenerateForAll(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d residents failed to invoice for %s", len(result.Failed), result.PeriodKey)
	}
	return nil
}

func runDispatch() {
	app := fx.New(
		baseModules(true),
		migration.GateModule,
		events.Module,
		fx.Invoke(startDispatcher),
	)
	app.Run()
}

func registerSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeID)
}

func registerBatchSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.BatchNodeID())
}

func readVersionFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("APP_VERSION")); v != "" {
		return v
	}
	return "dev"
}

func startScheduler(lc fx.Lifecycle, s *scheduler.Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

// startDispatcher relays outbox events and logs each one. Consumers that need
// the events in-process read Dispatcher.Stream instead.
func startDispatcher(lc fx.Lifecycle, d *events.Dispatcher, cfg config.Config, log *zap.Logger) {
	log = log.Named("dispatch")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go d.Run(ctx, cfg.Scheduler.DispatchInterval)
			go func() {
				defer close(done)
				for ev := range d.Stream() {
					log.Info("event relayed",
						zap.String("event_id", ev.ID.String()),
						zap.String("event_type", ev.Type),
						zap.String("aggregate_id", ev.AggregateID.String()),
						zap.Time("occurred_at", ev.OccurredAt),
						zap.Any("payload", ev.Payload))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
