package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weftworks/weft/internal/config"
	"github.com/weftworks/weft/internal/storage"
	"github.com/weftworks/weft/internal/workflow"
)

var validateFile string

// validateCmd compiles a workflow and reports its defects
var validateCmd = &cobra.Command{
	Use:   "validate [workflow]",
	Short: "Compile a workflow definition and report defects",
	Long: `Compile the named workflow (or a definition file given with --file)
and print every validation defect, or confirm the workflow is sound.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		def, err := loadDefinition(cfg, args, validateFile)
		if err != nil {
			return err
		}

		g, err := def.ToGraph()
		if err != nil {
			return err
		}

		_, defects := workflow.Compile(g)
		if len(defects) == 0 {
			fmt.Printf("workflow %q is valid\n", def.Name)
			return nil
		}

		fmt.Printf("workflow %q has %d defect(s):\n", def.Name, len(defects))
		for _, d := range defects {
			fmt.Printf("  - %s\n", d)
		}
		return fmt.Errorf("validation failed")
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateFile, "file", "", "workflow definition file (instead of a stored workflow name)")
	rootCmd.AddCommand(validateCmd)
}

func loadDefinition(cfg *config.Config, args []string, file string) (*storage.Definition, error) {
	if file != "" {
		return storage.LoadFile(file)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("a workflow name or --file is required")
	}
	return storage.NewWorkflowStore(cfg.Storage.WorkflowsDir).Load(args[0])
}
