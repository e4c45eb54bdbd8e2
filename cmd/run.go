package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/weftworks/weft/internal/config"
	"github.com/weftworks/weft/internal/run"
)

var (
	runInput    string
	runFile     string
	runMaxSteps int
)

// runCmd executes a workflow synchronously and prints a summary
var runCmd = &cobra.Command{
	Use:   "run [workflow]",
	Short: "Execute a workflow and print the result",
	Long: `Compile and execute the named workflow (or a definition file given
with --file) against the provided input, printing the final output and
an execution summary. The run and its trace are persisted for later
inspection.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if runMaxSteps > 0 {
			cfg.Engine.MaxSteps = runMaxSteps
		}

		def, err := loadDefinition(cfg, args, runFile)
		if err != nil {
			return err
		}

		service, cleanup, err := initService(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		rec, err := service.RunDefinition(cmd.Context(), def, runInput)
		if err != nil {
			return err
		}

		fmt.Printf("run:      %s\n", rec.ID)
		fmt.Printf("workflow: %s\n", rec.Workflow)
		fmt.Printf("status:   %s\n", rec.Status)
		fmt.Printf("steps:    %d\n", len(rec.Trace))
		if rec.Error != "" {
			fmt.Printf("error:    %s\n", rec.Error)
		}
		if rec.FinalOutput != "" {
			fmt.Printf("output:\n%s\n", rec.FinalOutput)
		}

		if rec.Status != string(run.StatusSucceeded) {
			return fmt.Errorf("run finished with status %s", rec.Status)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "initial input available to prompts as {{input}}")
	runCmd.Flags().StringVar(&runFile, "file", "", "workflow definition file (instead of a stored workflow name)")
	runCmd.Flags().IntVar(&runMaxSteps, "max-steps", 0, "step limit (0 derives it from the graph size)")

	_ = viper.BindPFlag("engine.max_steps", runCmd.Flags().Lookup("max-steps"))

	rootCmd.AddCommand(runCmd)
}
