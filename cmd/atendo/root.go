package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "atendo",
	Short: "Atendo is a flow engine for customer support bots",
	Long:  `Atendo interprets conversation flows authored in a visual editor and serves them to messaging channels like WhatsApp and Instagram.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the configuration file (YAML)")
}
