// Package telegram implements the outbound bot capability on top of the
// Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/harrison001/NexusBot/internal/domain"
)

// Client wraps the Bot API client and a download HTTP client. It
// implements domain.BotAPI.
type Client struct {
	api        *tgbotapi.BotAPI
	downloader *http.Client
}

// NewClient authenticates against the Bot API with the given token.
func NewClient(token string) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate bot: %w", err)
	}
	return &Client{
		api:        api,
		downloader: &http.Client{},
	}, nil
}

// Username returns the authenticated bot's username.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// FetchFile resolves a file reference and opens its content. The download
// is bound by ctx; the caller owns closing the returned reader.
func (c *Client) FetchFile(ctx context.Context, fileID string) (string, io.ReadCloser, error) {
	file, err := c.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve file %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(c.api.Token), nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.downloader.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return "", nil, fmt.Errorf("file download returned status %d", resp.StatusCode)
	}

	return file.FilePath, resp.Body, nil
}

// SendMessage sends a text reply, attaching an inline keyboard when
// actions are given (one button per row).
func (c *Client) SendMessage(_ context.Context, chatID int64, text string, actions []domain.InlineAction) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(actions) > 0 {
		msg.ReplyMarkup = keyboard(actions)
	}
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}

// SendDocument uploads the file at filePath as a document.
func (c *Client) SendDocument(_ context.Context, chatID int64, filePath, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(filePath))
	doc.Caption = caption
	if _, err := c.api.Send(doc); err != nil {
		return fmt.Errorf("failed to send document to chat %d: %w", chatID, err)
	}
	return nil
}

// EditMessageText replaces the text of a previously sent message.
func (c *Client) EditMessageText(_ context.Context, chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := c.api.Send(edit); err != nil {
		return fmt.Errorf("failed to edit message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

// AnswerCallback acknowledges a button press.
func (c *Client) AnswerCallback(_ context.Context, callbackID string) error {
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("failed to answer callback %s: %w", callbackID, err)
	}
	return nil
}

func keyboard(actions []domain.InlineAction) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.Label, a.Data),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
