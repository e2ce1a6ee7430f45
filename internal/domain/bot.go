package domain

import (
	"context"
	"io"
)

// InlineAction is one button offered under a bot reply. Data is the opaque
// value echoed back in the button-press update.
type InlineAction struct {
	Label string
	Data  string
}

// Callback data values understood by the dispatcher.
const (
	ActionGeneratePDF = "generate_pdf"
	ActionClearImages = "clear_images"
)

// BotAPI is the outbound capability consumed by the core: fetching
// attachment bytes and delivering replies. Implemented by the telegram
// adapter; mocked in tests.
type BotAPI interface {
	// FetchFile resolves a file reference and opens its content for
	// reading. remotePath is the provider-side storage path (its extension
	// hints at the attachment format). The caller owns closing data.
	FetchFile(ctx context.Context, fileID string) (remotePath string, data io.ReadCloser, err error)

	// SendMessage sends a text reply, optionally with inline action buttons.
	SendMessage(ctx context.Context, chatID int64, text string, actions []InlineAction) error

	// SendDocument uploads the file at filePath as a document with a caption.
	SendDocument(ctx context.Context, chatID int64, filePath, caption string) error

	// EditMessageText replaces the text of a previously sent message.
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string) error

	// AnswerCallback acknowledges a button press so the client stops
	// showing a progress indicator.
	AnswerCallback(ctx context.Context, callbackID string) error
}
