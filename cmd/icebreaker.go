package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/coldreach/internal/cost"
	"github.com/sells-group/coldreach/internal/dispatch"
	"github.com/sells-group/coldreach/internal/icebreaker"
	"github.com/sells-group/coldreach/internal/model"
)

var icebreakerCmd = &cobra.Command{
	Use:   "icebreaker",
	Short: "Generate icebreakers without dispatching",
}

// -- icebreaker test --

var icebreakerTestCount int

var icebreakerTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Generate icebreakers for built-in sample leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		gen, err := buildGenerator(ctx, false, nil)
		if err != nil {
			return err
		}

		n := min(max(icebreakerTestCount, 0), len(sampleLeads))
		fmt.Fprintf(os.Stdout, "Testing icebreaker generation with %d samples...\n", n)
		for i, lead := range sampleLeads[:n] {
			printTestResult(os.Stdout, i+1, lead, gen.Generate(ctx, lead))
		}
		return nil
	},
}

func printTestResult(w io.Writer, n int, lead model.Lead, res model.IcebreakerResult) {
	fmt.Fprintf(w, "\nTest %d: %s\n", n, lead.CompanyName)
	fmt.Fprintf(w, "Result: %s\n", res.Text)
	fmt.Fprintf(w, "Provider: %s (%s)\n", res.Provider, res.Status)
	if res.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", res.Error)
	}
}

// -- icebreaker batch --

var (
	icebreakerBatchSource      sourceFlags
	icebreakerBatchConcurrency int
)

// batchLine is one JSON result of `icebreaker batch`.
type batchLine struct {
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	model.IcebreakerResult
}

var icebreakerBatchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Pre-generate icebreakers for a lead list concurrently",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		stream, err := icebreakerBatchSource.openLeads(ctx)
		if err != nil {
			return err
		}
		leads, err := dispatch.Drain(ctx, stream)
		if err != nil {
			return eris.Wrap(err, "icebreaker batch: read leads")
		}

		usage := cost.NewTracker(cost.NewCalculator(cost.DefaultRates()))
		gen, err := buildGenerator(ctx, false, usage)
		if err != nil {
			return err
		}

		concurrency := icebreakerBatchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Icebreaker.BatchConcurrency
		}
		results := gen.GenerateBatch(ctx, leads, icebreaker.BatchOptions{
			Concurrency: concurrency,
			RPS:         cfg.Icebreaker.BatchRPS,
		})
		logSpend("icebreaker spend", usage.Summary())
		return writeBatchResults(os.Stdout, leads, results)
	},
}

func writeBatchResults(w io.Writer, leads []model.Lead, results []model.IcebreakerResult) error {
	lines := make([]batchLine, len(leads))
	for i, l := range leads {
		lines[i] = batchLine{Email: l.Email, CompanyName: l.CompanyName, IcebreakerResult: results[i]}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(lines)
}

func init() {
	icebreakerTestCmd.Flags().IntVar(&icebreakerTestCount, "count", 3, "number of sample leads")

	icebreakerBatchSource.register(icebreakerBatchCmd.Flags())
	icebreakerBatchCmd.Flags().IntVar(&icebreakerBatchConcurrency, "concurrency", 0, "max concurrent generations (default icebreaker.batch_concurrency)")

	icebreakerCmd.AddCommand(icebreakerTestCmd)
	icebreakerCmd.AddCommand(icebreakerBatchCmd)
	rootCmd.AddCommand(icebreakerCmd)
}
