package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atendo/atendo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of atendo",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("atendo version %s\n", atendo.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
