package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/atendo/atendo"
	"github.com/atendo/atendo/pkg/schema"
)

var chatCmd = &cobra.Command{
	Use:   "chat <flow.json>",
	Short: "Simulate a conversation in the terminal",
	Long:  `Loads a flow definition into an in-memory engine and runs an interactive conversation, the way a WhatsApp user would see it.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runChat(cmd, args[0]); err != nil {
			fmt.Printf("Chat error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("plain", false, "Disable markdown rendering")
}

func runChat(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	graph, err := schema.Decode(data)
	if err != nil {
		return fmt.Errorf("invalid flow definition: %w", err)
	}

	eng := atendo.New()
	ctx := cmd.Context()
	if err := eng.Flows().Save(ctx, graph); err != nil {
		return err
	}
	if err := eng.Flows().Activate(ctx, graph.ID); err != nil {
		return err
	}

	render := func(s string) string { return s }
	if plain, _ := cmd.Flags().GetBool("plain"); !plain {
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle()); err == nil {
			render = func(s string) string {
				out, err := r.Render(s)
				if err != nil {
					return s
				}
				return strings.TrimRight(out, "\n")
			}
		}
	}

	fmt.Printf("Simulating flow %q. Type a message, or /quit to exit.\n\n", graph.Name)

	scanner := bufio.NewScanner(os.Stdin)
	const conversationID = "chat:local"
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" {
			return nil
		}

		res, err := eng.HandleMessage(ctx, conversationID, text)
		if err != nil {
			return err
		}

		switch {
		case res.TransferToHuman:
			fmt.Println(render(res.Reply))
			fmt.Printf("\n[transferred to department %q, conversation parked]\n", res.Department)
		case res.EndConversation:
			fmt.Println(render(res.Reply))
			fmt.Println("\n[conversation ended, next message starts over]")
		case res.Silent():
			fmt.Println("[no reply: trigger keywords did not match]")
		default:
			fmt.Println(render(res.Reply))
		}
	}
}
