package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/locvowork/offer_funnel/internal/bootstrap"
	"github.com/locvowork/offer_funnel/internal/domain"
	"github.com/locvowork/offer_funnel/internal/funnel"
	"github.com/locvowork/offer_funnel/internal/logger"
	"github.com/locvowork/offer_funnel/internal/service"
	"github.com/spf13/cobra"
)

// runFlags are shared by every subcommand.
type runFlags struct {
	workbook string
	roster   string
	stream   bool
	workers  int
	logs     io.Writer
}

func newRootCmd() *cobra.Command {
	flags := &runFlags{}

	root := &cobra.Command{
		Use:   "funnel",
		Short: "Reconcile salesperson offer ledgers",
		Long: `Reads a sales funnel workbook (one sheet per salesperson), extracts the
canonical offers, checks them against each sheet's "Total Offers" cell and
builds the reference-deduplicated ledger rollups.

Available subcommands:
  extract - write offers as JSON and print the reconciliation
  ledger  - print the ledger report per salesperson, zone and in total
  load    - run and store the results in the configured sinks`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			flags.logs = cmd.ErrOrStderr()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.workbook, "workbook", "w", "", "path to the .xlsx workbook")
	pf.StringVarP(&flags.roster, "roster", "r", "", "roster YAML (defaults to ROSTER_FILE)")
	pf.BoolVar(&flags.stream, "stream", false, "decode the workbook with the streaming reader")
	pf.IntVar(&flags.workers, "workers", 0, "sheets processed concurrently (defaults to SHEET_WORKERS)")
	_ = root.MarkPersistentFlagRequired("workbook")

	root.AddCommand(newExtractCmd(flags), newLedgerCmd(flags), newLoadCmd(flags))
	return root
}

// execute loads settings, runs the workbook and hands the result to fn.
func (f *runFlags) execute(ctx context.Context, sinks bool, fn func(*service.FunnelService, domain.RunResult) error) error {
	roster, err := bootstrap.LoadSettings(ctx, f.roster)
	if err != nil {
		return err
	}
	// stdout carries command output
	if f.logs != nil {
		logger.SetOutput(f.logs)
	}
	opts := bootstrap.FunnelOptions(roster)
	if f.workers > 0 {
		opts.Workers = f.workers
	}

	var svcSinks service.Sinks
	if sinks {
		s, _, closeSinks, err := bootstrap.ConnectSinks(ctx)
		defer closeSinks()
		if err != nil {
			return err
		}
		svcSinks = s
	}

	svc := service.NewFunnelService(roster.SalesPeople, opts, svcSinks)
	result, err := svc.RunFile(ctx, f.workbook, f.stream)
	if err != nil {
		return err
	}
	return fn(svc, result)
}

func newExtractCmd(flags *runFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract offers to JSON and print the reconciliation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.execute(cmd.Context(), false, func(_ *service.FunnelService, result domain.RunResult) error {
				if err := writeOffers(out, cmd.OutOrStdout(), result.Offers); err != nil {
					return err
				}
				return funnel.WriteReconciliation(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "offers.json", `offer JSON destination ("-" for stdout)`)
	return cmd
}

func newLedgerCmd(flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ledger",
		Short: "Print the deduplicated ledger report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.execute(cmd.Context(), false, func(_ *service.FunnelService, result domain.RunResult) error {
				return funnel.WriteLedgerReport(cmd.OutOrStdout(), result.Report)
			})
		},
	}
}

func newLoadCmd(flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Run the workbook and store the results in every configured sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.execute(cmd.Context(), true, func(svc *service.FunnelService, result domain.RunResult) error {
				if err := svc.Load(cmd.Context(), result); err != nil {
					return err
				}
				logger.InfoLog(cmd.Context(), "run %s stored: %d offers", result.RunID, len(result.Offers))
				fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d offers stored\n", result.RunID, len(result.Offers))
				return nil
			})
		},
	}
}

// writeOffers writes the offers as a JSON array to path, or to stdout when
// path is "-".
func writeOffers(path string, stdout io.Writer, offers []domain.Offer) error {
	data, err := json.MarshalIndent(offers, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode offers: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
