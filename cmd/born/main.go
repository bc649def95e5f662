// Package main provides the born command, which plans the inputs of fusion
// groups described in YAML and prints the resulting launch plans.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/born-ml/fusion/internal/envconfig"
)

const version = "v0.1.0-dev"

func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-26s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

func newCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "born",
		Short:         "Fusion input planner",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Print(cmd.UsageString())
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("born version %s\n", version)
		},
	}

	planCmd := newPlanCmd()

	envVars := envconfig.AsMap()
	appendEnvDocs(planCmd, []envconfig.EnvVar{
		envVars["BORN_DEBUG"],
		envVars["BORN_FUSION_INPLACE"],
		envVars["BORN_FUSION_BROADCAST"],
		envVars["BORN_FUSION_VECTORIZATION"],
		envVars["BORN_PLAN_WORKERS"],
	})

	rootCmd.AddCommand(planCmd, versionCmd)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newCLI().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
