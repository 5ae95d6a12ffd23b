package main

import (
	"encoding/json"
	"fmt"
	"os"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/atendo/atendo/internal/config"
	"github.com/atendo/atendo/pkg/adapters/redis"
	"github.com/atendo/atendo/pkg/ports"
)

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "Inspect persisted conversations",
	Long:  `List, inspect and remove conversation contexts from the configured context store. Only the redis driver has out-of-process state to inspect.`,
}

var conversationsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List known conversations",
	Run: func(cmd *cobra.Command, args []string) {
		store, cleanup := getContextStore(cmd)
		defer cleanup()

		ids, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing conversations: %v\n", err)
			os.Exit(1)
		}
		if len(ids) == 0 {
			fmt.Println("No conversations found.")
			return
		}
		for _, id := range ids {
			fmt.Println("- " + id)
		}
	},
}

var conversationsInspectCmd = &cobra.Command{
	Use:   "inspect <conversation-id>",
	Short: "Print a conversation's context",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, cleanup := getContextStore(cmd)
		defer cleanup()

		conv, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading conversation %q: %v\n", args[0], err)
			os.Exit(1)
		}
		data, err := json.MarshalIndent(conv, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling context: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}

var conversationsRmCmd = &cobra.Command{
	Use:   "rm <conversation-id>",
	Short: "Delete a conversation's context",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, cleanup := getContextStore(cmd)
		defer cleanup()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			fmt.Printf("Error deleting conversation %q: %v\n", args[0], err)
			os.Exit(1)
		}
		fmt.Println("Deleted.")
	},
}

func init() {
	conversationsCmd.AddCommand(conversationsLsCmd, conversationsInspectCmd, conversationsRmCmd)
	rootCmd.AddCommand(conversationsCmd)
}

func getContextStore(cmd *cobra.Command) (ports.ContextStore, func()) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.ContextStore.Driver != "redis" {
		fmt.Println("The configured context store is in-memory; there is nothing to inspect out of process.")
		os.Exit(1)
	}

	client := backend.NewClient(&backend.Options{
		Addr:     cfg.ContextStore.Redis.Addr,
		Password: cfg.ContextStore.Redis.Password,
		DB:       cfg.ContextStore.Redis.DB,
	})
	store := redis.NewFromClient(client,
		redis.WithPrefix(cfg.ContextStore.Redis.Prefix),
		redis.WithTTL(cfg.ContextStore.Redis.TTL),
	)
	return store, func() { _ = client.Close() }
}
