package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/fusion/internal/envconfig"
	"github.com/born-ml/fusion/internal/fusion"
	"github.com/born-ml/fusion/internal/groupfile"
	"github.com/born-ml/fusion/internal/logutil"
	"github.com/born-ml/fusion/internal/parallel"
)

type groupResult struct {
	name string
	plan *fusion.LaunchPlan
	err  error
}

func newPlanCmd() *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan FILE",
		Short: "Plan the inputs of the fusion groups described in FILE",
		Args:  cobra.ExactArgs(1),
		RunE:  PlanHandler,
	}

	planCmd.Flags().Bool("inplace", envconfig.FusionInplace(), "Allow outputs to reuse input buffers")
	planCmd.Flags().Uint("workers", envconfig.PlanWorkers(), "Maximum number of groups planned at once")
	return planCmd
}

// PlanHandler plans every group of a group file and prints one table per group.
// A group whose inputs cannot be resolved is reported as unfused.
func PlanHandler(cmd *cobra.Command, args []string) error {
	logger := logutil.NewLogger(cmd.ErrOrStderr(), envconfig.LogLevel())
	slog.SetDefault(logger)

	file, err := groupfile.LoadFile(args[0])
	if err != nil {
		return err
	}

	settings := file.Settings.Apply(fusion.SettingsFromEnv())
	if cmd.Flags().Changed("inplace") {
		if settings.Inplace, err = cmd.Flags().GetBool("inplace"); err != nil {
			return err
		}
	}

	cfg := parallel.DefaultConfig()
	if cmd.Flags().Changed("workers") {
		workers, err := cmd.Flags().GetUint("workers")
		if err != nil {
			return err
		}
		cfg.NumWorkers = max(int(workers), 1) //nolint:gosec // G115: worker counts are small.
		cfg.Enabled = cfg.NumWorkers > 1
	}
	logger.Debug("plan config", "env", envconfig.Values(), "workers", cfg.NumWorkers)

	results := make([]groupResult, len(file.Groups))
	err = parallel.ForEach(cmd.Context(), len(file.Groups), cfg, func(_ context.Context, i int) error {
		g := &file.Groups[i]
		results[i].name = g.Name

		fctx, trace, err := g.Build(settings)
		if err != nil {
			return fmt.Errorf("group %s: %w", g.Name, err)
		}

		results[i].plan, results[i].err = trace.PlanInputs(fctx)
		if results[i].err != nil {
			logger.Warn("fusion group falls back to unfused execution", "group", g.Name, "error", results[i].err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		renderResult(w, r)
	}
	return nil
}

func renderResult(w io.Writer, r groupResult) {
	if r.err != nil {
		fmt.Fprintf(w, "group %s: not fused: %v\n", r.name, r.err)
		return
	}

	plan := r.plan
	reference := "none"
	if plan.ReferenceInput != nil {
		reference = plan.ReferenceInput.String()
	}
	fmt.Fprintf(w, "group %s: rank %d, reference %s\n", r.name, plan.Rank, reference)

	inplace := make(map[int]bool, len(plan.PotentialInplaces))
	for _, p := range plan.PotentialInplaces {
		inplace[p.InputPos] = true
	}

	var data [][]string
	for pos, in := range plan.HandleInputs {
		reuse := "-"
		if inplace[pos] {
			reuse = "yes"
		}
		data = append(data, []string{
			strconv.Itoa(pos),
			in.RelativeID.String(),
			in.GlobalID.String(),
			formatInts(in.GlobalShape),
			formatInts(in.Handle.Strides),
			in.Precision.String(),
			reuse,
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"POS", "RELATIVE", "GLOBAL", "SHAPE", "STRIDES", "PRECISION", "INPLACE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

func formatInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
