package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/warp/amortization-engine/amortization"
	"github.com/warp/amortization-engine/depreciation"
	"github.com/warp/amortization-engine/factory"
	"github.com/warp/amortization-engine/generic"
)

// ─── root ───────────────────────────────────────────────────────────────────

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "amortctl",
		Short: "Offline amortization and depreciation calculator",
		Long: `amortctl runs the installment schedule generator, the depreciation
calculator and the settlement check locally. Nothing is persisted.
Amounts are decimal strings; dates are YYYY-MM-DD.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().Bool("json", false, "Print JSON instead of a table")

	root.AddCommand(newPreviewCmd())
	root.AddCommand(newDepreciateCmd())
	root.AddCommand(newProjectCmd())
	root.AddCommand(newSettleCmd())
	return root
}

// ─── preview ────────────────────────────────────────────────────────────────

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Generate the default installment plan",
		Long: `Split a contract total into equal monthly installments. Cents that
don't divide evenly go to the first installment; due dates that fall past
the end of a month land on its last day.`,
		Args: cobra.NoArgs,
		RunE: runPreview,
	}
	cmd.Flags().String("total", "", "Contract total (required)")
	cmd.Flags().Int("count", 0, "Number of installments (required)")
	cmd.Flags().String("start", "", "First due date (default today)")
	_ = cmd.MarkFlagRequired("total")
	_ = cmd.MarkFlagRequired("count")
	return cmd
}

func runPreview(cmd *cobra.Command, args []string) error {
	total, err := moneyFlag(cmd, "total")
	if err != nil {
		return err
	}
	count, _ := cmd.Flags().GetInt("count")
	start, err := dateFlag(cmd, "start")
	if err != nil {
		return err
	}

	rows, err := amortization.Generate(total, count, start)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON(cmd) {
		return writeJSON(out, factory.NewFactory().InstallmentsToJSON(rows))
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDUE DATE\tAMOUNT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", r.SequenceIndex, r.DueDate, factory.FormatMoney(r.Amount))
	}
	rec := amortization.Reconcile(total, rows)
	fmt.Fprintf(tw, "\tTOTAL\t%s\n", factory.FormatMoney(rec.TotalAllocated))
	return tw.Flush()
}

// ─── depreciate / project ───────────────────────────────────────────────────

func addAssetFlags(cmd *cobra.Command) {
	cmd.Flags().String("initial", "", "Acquisition cost (required)")
	cmd.Flags().String("residual", "0", "Residual (salvage) value")
	cmd.Flags().String("acquired", "", "Acquisition date (required)")
	cmd.Flags().Int("life", 0, "Useful life in months (required)")
	cmd.Flags().String("method", string(depreciation.MethodLinear),
		"LINEAR, SUM_OF_YEARS, DECLINING_BALANCE or UNITS_OF_PRODUCTION")
	cmd.Flags().String("usage-total", "", "Estimated lifetime usage (UNITS_OF_PRODUCTION)")
	cmd.Flags().String("usage-current", "", "Usage so far (UNITS_OF_PRODUCTION)")
	_ = cmd.MarkFlagRequired("initial")
	_ = cmd.MarkFlagRequired("acquired")
	_ = cmd.MarkFlagRequired("life")
}

// assetFromFlags goes through the factory so the CLI validates exactly
// like the API does.
func assetFromFlags(cmd *cobra.Command) (depreciation.Asset, error) {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	life, _ := cmd.Flags().GetInt("life")
	aj := factory.AssetJSON{
		Name:             "cli",
		InitialValue:     get("initial"),
		ResidualValue:    get("residual"),
		AcquisitionDate:  get("acquired"),
		UsefulLifeMonths: life,
		Method:           get("method"),
	}
	if v := get("usage-total"); v != "" {
		aj.UsageTotalEstimated = &v
	}
	if v := get("usage-current"); v != "" {
		aj.UsageCurrent = &v
	}
	return factory.NewFactory().AssetFromJSON(aj)
}

func newDepreciateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "depreciate",
		Short: "Compute depreciation metrics of an asset at a date",
		Args:  cobra.NoArgs,
		RunE:  runDepreciate,
	}
	addAssetFlags(cmd)
	cmd.Flags().String("as-of", "", "Evaluation date (default today)")
	return cmd
}

func runDepreciate(cmd *cobra.Command, args []string) error {
	asset, err := assetFromFlags(cmd)
	if err != nil {
		return err
	}
	asOf, err := dateFlag(cmd, "as-of")
	if err != nil {
		return err
	}
	m, err := depreciation.ComputeMetrics(asset, asOf)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON(cmd) {
		return writeJSON(out, map[string]any{
			"method":                   asset.Method,
			"as_of":                    m.AsOf.String(),
			"current_value":            factory.FormatMoney(m.CurrentValue),
			"accumulated_depreciation": factory.FormatMoney(m.AccumulatedDepreciation),
			"progress_percent":         factory.FormatMoney(m.ProgressPercent),
			"months_passed":            m.MonthsPassed,
			"months_remaining":         m.MonthsRemaining,
		})
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Method:\t%s\n", asset.Method)
	fmt.Fprintf(tw, "As of:\t%s\n", m.AsOf)
	fmt.Fprintf(tw, "Current value:\t%s\n", factory.FormatMoney(m.CurrentValue))
	fmt.Fprintf(tw, "Accumulated:\t%s\n", factory.FormatMoney(m.AccumulatedDepreciation))
	fmt.Fprintf(tw, "Progress:\t%s%%\n", factory.FormatMoney(m.ProgressPercent))
	fmt.Fprintf(tw, "Months:\t%d passed, %d remaining\n", m.MonthsPassed, m.MonthsRemaining)
	return tw.Flush()
}

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Print the year-by-year depreciation schedule of an asset",
		Args:  cobra.NoArgs,
		RunE:  runProject,
	}
	addAssetFlags(cmd)
	return cmd
}

func runProject(cmd *cobra.Command, args []string) error {
	asset, err := assetFromFlags(cmd)
	if err != nil {
		return err
	}
	rows, err := depreciation.ProjectSchedule(asset)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON(cmd) {
		type row struct {
			Year         int    `json:"year"`
			Start        string `json:"start"`
			End          string `json:"end"`
			Depreciation string `json:"depreciation"`
			ClosingValue string `json:"closing_value"`
		}
		js := make([]row, len(rows))
		for i, r := range rows {
			js[i] = row{r.Year, r.Period.Start.String(), r.Period.End.String(),
				factory.FormatMoney(r.Depreciation), factory.FormatMoney(r.ClosingValue)}
		}
		return writeJSON(out, js)
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "YEAR\tFROM\tTO\tOPENING\tDEPRECIATION\tCLOSING")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.Year, r.Period.Start, r.Period.End,
			factory.FormatMoney(r.OpeningValue), factory.FormatMoney(r.Depreciation), factory.FormatMoney(r.ClosingValue))
	}
	return tw.Flush()
}

// ─── settle ─────────────────────────────────────────────────────────────────

func newSettleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Dry-run an installment settlement against a balance",
		Long: `Check whether an installment of --base plus --interest minus --discount
can be paid from an account holding --balance. A rejection prints the
reason and exits non-zero.`,
		Args: cobra.NoArgs,
		RunE: runSettle,
	}
	cmd.Flags().String("base", "", "Installment amount (required)")
	cmd.Flags().String("interest", "0", "Late interest to add")
	cmd.Flags().String("discount", "0", "Discount to subtract")
	cmd.Flags().String("balance", "", "Account balance (required)")
	_ = cmd.MarkFlagRequired("base")
	_ = cmd.MarkFlagRequired("balance")
	return cmd
}

func runSettle(cmd *cobra.Command, args []string) error {
	req := amortization.SettlementRequest{PayDate: generic.Today()}
	var err error
	if req.BaseAmount, err = moneyFlag(cmd, "base"); err != nil {
		return err
	}
	if req.Interest, err = moneyFlag(cmd, "interest"); err != nil {
		return err
	}
	if req.Discount, err = moneyFlag(cmd, "discount"); err != nil {
		return err
	}
	balance, err := moneyFlag(cmd, "balance")
	if err != nil {
		return err
	}

	res := amortization.Settle(req, balance)
	out := cmd.OutOrStdout()
	if asJSON(cmd) {
		if err := writeJSON(out, map[string]any{
			"success":          res.Success,
			"reason":           res.Reason,
			"effective_amount": factory.FormatMoney(res.EffectiveAmount),
			"debit_amount":     factory.FormatMoney(res.DebitAmount),
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "Effective amount: %s\n", factory.FormatMoney(res.EffectiveAmount))
		if res.Success {
			fmt.Fprintf(out, "OK: debit %s, balance after %s\n",
				factory.FormatMoney(res.DebitAmount), factory.FormatMoney(balance.Sub(res.DebitAmount)))
		}
	}
	return res.Err()
}

// ─── helpers ────────────────────────────────────────────────────────────────

func asJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func moneyFlag(cmd *cobra.Command, name string) (decimal.Decimal, error) {
	s, _ := cmd.Flags().GetString(name)
	d, err := generic.ParseMoney(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %q is not an amount", name, s)
	}
	return d, nil
}

// dateFlag parses a YYYY-MM-DD flag, defaulting to today when unset.
func dateFlag(cmd *cobra.Command, name string) (generic.TimePoint, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return generic.Today(), nil
	}
	tp, err := generic.ParseDate(s)
	if err != nil {
		return generic.TimePoint{}, fmt.Errorf("--%s: %q is not a YYYY-MM-DD date", name, s)
	}
	return tp, nil
}
