// Command webhook-setup manages the bot's push-notification target
// out-of-band: it sets, deletes, and inspects the Telegram webhook.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison001/NexusBot/internal/telegram"
)

var (
	token     string
	url       string
	secret    string
	botClient *telegram.Client
)

func execute() error {
	root := &cobra.Command{
		Use:   "webhook-setup",
		Short: "Manage the Telegram bot webhook",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("BOT_TOKEN")
			}
			if token == "" {
				return errors.New("bot token required (--token or BOT_TOKEN)")
			}

			client, err := telegram.NewClient(token)
			if err != nil {
				return err
			}
			botClient = client
			return nil
		},
	}

	root.PersistentFlags().StringVar(&token, "token", "", "bot token (or set BOT_TOKEN)")

	root.AddCommand(setCmd(), deleteCmd(), infoCmd())
	return root.Execute()
}

func setCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Register the webhook URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				url = os.Getenv("WEBHOOK_URL")
			}
			if url == "" {
				return errors.New("webhook URL required (--url or WEBHOOK_URL)")
			}
			if !strings.HasPrefix(url, "https://") {
				return errors.New("webhook URL must use HTTPS")
			}
			if secret == "" {
				secret = os.Getenv("WEBHOOK_SECRET_TOKEN")
			}

			if err := botClient.SetWebhook(url, secret); err != nil {
				return err
			}
			if secret != "" {
				fmt.Printf("Webhook set: %s (with secret token)\n", url)
			} else {
				fmt.Printf("Webhook set: %s (no secret token)\n", url)
			}

			return printInfo()
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "webhook URL (or set WEBHOOK_URL)")
	cmd.Flags().StringVar(&secret, "secret", "", "secret token for webhook verification")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook (switch back to polling mode)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := botClient.DeleteWebhook(); err != nil {
				return err
			}
			fmt.Println("Webhook deleted, bot switched to polling mode")
			return nil
		},
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the current webhook state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printInfo()
		},
	}
}

func printInfo() error {
	info, err := botClient.WebhookInfo()
	if err != nil {
		return err
	}

	fmt.Println("Current webhook information:")
	fmt.Printf("URL: %s\n", orDefault(info.URL, "not set"))
	fmt.Printf("Pending updates: %d\n", info.PendingUpdateCount)
	if info.LastErrorDate != 0 {
		fmt.Printf("Last error date: %s\n", time.Unix(int64(info.LastErrorDate), 0).Format(time.RFC3339))
		fmt.Printf("Last error message: %s\n", orDefault(info.LastErrorMessage, "none"))
	} else {
		fmt.Println("Last error: none")
	}
	fmt.Printf("Max connections: %d\n", info.MaxConnections)
	return nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
