package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SetWebhook registers url as the push-notification target. When
// secretToken is non-empty Telegram echoes it back in the
// X-Telegram-Bot-Api-Secret-Token header of every delivery.
func (c *Client) SetWebhook(url, secretToken string) error {
	params := tgbotapi.Params{"url": url}
	if secretToken != "" {
		params["secret_token"] = secretToken
	}
	if _, err := c.api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	return nil
}

// DeleteWebhook removes the registered push-notification target.
func (c *Client) DeleteWebhook() error {
	if _, err := c.api.MakeRequest("deleteWebhook", nil); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}

// WebhookInfo returns the currently registered webhook state.
func (c *Client) WebhookInfo() (tgbotapi.WebhookInfo, error) {
	info, err := c.api.GetWebhookInfo()
	if err != nil {
		return tgbotapi.WebhookInfo{}, fmt.Errorf("failed to query webhook info: %w", err)
	}
	return info, nil
}
