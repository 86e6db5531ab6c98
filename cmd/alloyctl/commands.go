package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-alloy/internal/alloy"
	"github.com/mind-engage/mindengage-alloy/internal/config"
	"github.com/mind-engage/mindengage-alloy/internal/db"
	"github.com/mind-engage/mindengage-alloy/internal/logging"
	"github.com/mind-engage/mindengage-alloy/internal/monitor"
	"github.com/mind-engage/mindengage-alloy/internal/process"
	"github.com/mind-engage/mindengage-alloy/internal/seed"
	syncx "github.com/mind-engage/mindengage-alloy/internal/sync"
)

type cli struct {
	cfg config.Config
}

func newRootCmd(cfg config.Config) *cobra.Command {
	c := &cli{cfg: cfg}
	root := &cobra.Command{
		Use:           "alloyctl",
		Short:         "Score, screen and seed alloy production data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&c.cfg.DBDriver, "db-driver", cfg.DBDriver, "Database driver (sqlite, postgres)")
	pf.StringVar(&c.cfg.DBDSN, "db-dsn", cfg.DBDSN, "Database DSN")
	pf.StringVar(&c.cfg.ReferenceDataPath, "reference", cfg.ReferenceDataPath, "Grade/catalog YAML file (built-in tables when empty)")
	pf.StringVar(&c.cfg.DefaultGrade, "default-grade", cfg.DefaultGrade, "Grade used when none is given")

	root.AddCommand(
		c.seedCmd(),
		c.scoreCmd(),
		c.recommendCmd(),
		c.analyzeCmd(),
		c.eventsCmd(),
		c.referenceCmd(),
	)
	return root
}

func (c *cli) reference() (alloy.Reference, error) {
	return alloy.LoadReference(c.cfg.ReferenceDataPath)
}

func (c *cli) openDB(ctx context.Context) (*sql.DB, error) {
	return db.Open(ctx, db.Driver(c.cfg.DBDriver), c.cfg.DBDSN)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseComposition reads "Cr=17.5" style arguments.
func parseComposition(args []string) (alloy.Composition, error) {
	comp := alloy.Composition{}
	for _, a := range args {
		el, val, ok := strings.Cut(a, "=")
		el = strings.TrimSpace(el)
		if !ok || el == "" {
			return nil, fmt.Errorf("expected Element=percent, got %q", a)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", el, err)
		}
		comp[el] = v
	}
	return comp, nil
}

func (c *cli) seedCmd() *cobra.Command {
	var seedValue uint64
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with sample production data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dbh, err := c.openDB(ctx)
			if err != nil {
				return err
			}
			defer dbh.Close()
			store := process.NewSQLStore(dbh, c.cfg.DBDriver)
			sum, err := seed.Run(ctx, store, seed.NewRand(seedValue), time.Now())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sum)
		},
	}
	cmd.Flags().Uint64Var(&seedValue, "seed", seed.DefaultSeed, "Random seed")
	return cmd
}

func (c *cli) scoreCmd() *cobra.Command {
	var grade string
	cmd := &cobra.Command{
		Use:   "score El=pct...",
		Short: "Score a composition against a grade",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := parseComposition(args)
			if err != nil {
				return err
			}
			ref, err := c.reference()
			if err != nil {
				return err
			}
			svc := monitor.New(process.NewMemoryStore(), ref, monitor.WithDefaultGrade(c.cfg.DefaultGrade))
			res, err := svc.ScoreComposition(cmd.Context(), comp, grade)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&grade, "grade", "", "Grade code (default grade when empty)")
	return cmd
}

func (c *cli) recommendCmd() *cobra.Command {
	var target, current []string
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest material additions that move current toward target",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := parseComposition(target)
			if err != nil {
				return fmt.Errorf("target: %w", err)
			}
			cur, err := parseComposition(current)
			if err != nil {
				return fmt.Errorf("current: %w", err)
			}
			ref, err := c.reference()
			if err != nil {
				return err
			}
			svc := monitor.New(process.NewMemoryStore(), ref, monitor.WithCostPerKg(c.cfg.CostPerKg))
			rep, err := svc.Recommend(cmd.Context(), t, cur)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().StringSliceVar(&target, "target", nil, "Target composition, e.g. Cr=18,Ni=10")
	cmd.Flags().StringSliceVar(&current, "current", nil, "Current composition, e.g. Cr=16.5,Ni=9.8")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("current")
	return cmd
}

func (c *cli) analyzeCmd() *cobra.Command {
	var q monitor.Query
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run quality analysis over recent process data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dbh, err := c.openDB(ctx)
			if err != nil {
				return err
			}
			defer dbh.Close()
			ref, err := c.reference()
			if err != nil {
				return err
			}
			log, err := logging.New(c.cfg.LogLevel, c.cfg.LogJSON)
			if err != nil {
				return err
			}
			svc := monitor.New(process.NewSQLStore(dbh, c.cfg.DBDriver), ref,
				monitor.WithJournal(syncx.NewEventRepo(dbh)),
				monitor.WithDefaultGrade(c.cfg.DefaultGrade),
				monitor.WithLogger(log),
			)
			rep, err := svc.QualityAnalysis(ctx, q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().IntVar(&q.Hours, "hours", monitor.DefaultHours, "Analysis window in hours")
	cmd.Flags().StringVar(&q.FurnaceID, "furnace", "", "Restrict to one furnace")
	cmd.Flags().StringVar(&q.Grade, "grade", "", "Grade to score against")
	return cmd
}

func (c *cli) eventsCmd() *cobra.Command {
	var typ string
	var limit int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List journaled domain events, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dbh, err := c.openDB(ctx)
			if err != nil {
				return err
			}
			defer dbh.Close()
			list, err := syncx.NewEventRepo(dbh).List(ctx, typ, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "Event type, e.g. anomaly.detected")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum events to print")
	return cmd
}

func (c *cli) referenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reference",
		Short: "Print the active grade tables and addition catalog as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, err := c.reference()
			if err != nil {
				return err
			}
			b, err := alloy.EncodeReference(ref)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}
