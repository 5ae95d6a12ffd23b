package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atendo/atendo/pkg/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flow.json>",
	Short: "Check a flow definition for authoring mistakes",
	Long:  `Decodes an exported flow JSON file and reports dangling edges, unreachable triggers and unlabeled choices.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(args[0]); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	graph, err := schema.Decode(data)
	if err != nil {
		return fmt.Errorf("invalid flow definition: %w", err)
	}

	warnings := schema.Lint(graph)
	if len(warnings) == 0 {
		fmt.Printf("Flow %q is valid! ✅\n", graph.Name)
		return nil
	}

	fmt.Printf("Flow %q has %d warning(s):\n", graph.Name, len(warnings))
	for _, w := range warnings {
		fmt.Println("- " + w.String())
	}
	// Warnings degrade gracefully at runtime, so they are not fatal.
	return nil
}
