// Package bot routes parsed Telegram updates to command, media, and
// button-press handlers. Every route touches exactly one session, the one
// owned by the sending user, and converts all failures into user-facing
// replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"

	"github.com/harrison001/NexusBot/internal/domain"
	"github.com/harrison001/NexusBot/internal/media"
	"github.com/harrison001/NexusBot/internal/pdf"
	"github.com/harrison001/NexusBot/internal/session"
)

// Dispatcher is the stateless update router.
type Dispatcher struct {
	bot       domain.BotAPI
	store     *session.Store
	pipeline  *media.Pipeline
	assembler *pdf.Assembler
	formats   *media.Formats
	clock     clockwork.Clock
	maxImages int
}

// NewDispatcher creates an update dispatcher.
func NewDispatcher(api domain.BotAPI, store *session.Store, pipeline *media.Pipeline, assembler *pdf.Assembler, formats *media.Formats, clock clockwork.Clock, maxImages int) *Dispatcher {
	return &Dispatcher{
		bot:       api,
		store:     store,
		pipeline:  pipeline,
		assembler: assembler,
		formats:   formats,
		clock:     clock,
		maxImages: maxImages,
	}
}

// Dispatch routes one update. Errors never escape: they are reported to
// the user and logged.
func (d *Dispatcher) Dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		d.handleCallback(ctx, update.CallbackQuery)
	case update.Message == nil:
		// Edited messages, channel posts and other update kinds are not
		// part of the bot's surface.
	case update.Message.IsCommand():
		d.handleCommand(ctx, update.Message)
	case len(update.Message.Photo) > 0:
		d.handlePhoto(ctx, update.Message)
	case update.Message.Document != nil:
		d.handleDocument(ctx, update.Message)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		d.reply(ctx, chatID, msgWelcome(d.formats.Describe()))
	case "help":
		d.reply(ctx, chatID, msgHelp)
	case "clear":
		if err := d.store.Clear(msg.From.ID); err != nil {
			slog.Error("Failed to clear session", "user_id", msg.From.ID, "error", err)
			d.reply(ctx, chatID, msgProcessingError)
			return
		}
		d.reply(ctx, chatID, msgCleared)
	}
}

func (d *Dispatcher) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	// Telegram sends several resolutions; the last entry is the largest.
	photo := msg.Photo[len(msg.Photo)-1]
	d.ingest(ctx, msg, media.Attachment{
		Kind:   media.KindPhoto,
		FileID: photo.FileID,
	})
}

func (d *Dispatcher) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	d.ingest(ctx, msg, media.Attachment{
		Kind:     media.KindDocument,
		FileID:   msg.Document.FileID,
		FileName: msg.Document.FileName,
	})
}

func (d *Dispatcher) ingest(ctx context.Context, msg *tgbotapi.Message, att media.Attachment) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	sess, err := d.store.GetOrCreate(userID)
	if err != nil {
		slog.Error("Failed to create session", "user_id", userID, "error", err)
		d.reply(ctx, chatID, msgProcessingError)
		return
	}

	count, err := d.pipeline.Ingest(ctx, sess, att)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnsupportedFormat):
			d.reply(ctx, chatID, msgUnsupportedFormat(d.formats.Describe()))
		case errors.Is(err, domain.ErrMissingFileName):
			d.reply(ctx, chatID, msgUnknownFileType)
		case errors.Is(err, domain.ErrSessionFull):
			d.reply(ctx, chatID, msgSessionFull(d.maxImages))
		default:
			slog.Error("Failed to ingest attachment", "user_id", userID, "error", err)
			d.reply(ctx, chatID, msgProcessingError)
		}
		return
	}

	if err := d.bot.SendMessage(ctx, chatID, msgImageReceived(count), actionButtons()); err != nil {
		slog.Error("Failed to send ingest confirmation", "user_id", userID, "error", err)
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if err := d.bot.AnswerCallback(ctx, query.ID); err != nil {
		slog.Warn("Failed to answer callback", "callback_id", query.ID, "error", err)
	}

	userID := query.From.ID
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	switch query.Data {
	case domain.ActionGeneratePDF:
		d.generatePDF(ctx, userID, chatID, messageID)
	case domain.ActionClearImages:
		if err := d.store.Clear(userID); err != nil {
			slog.Error("Failed to clear session", "user_id", userID, "error", err)
			d.edit(ctx, chatID, messageID, msgProcessingError)
			return
		}
		d.edit(ctx, chatID, messageID, msgClearedButton)
	}
}

// generatePDF assembles the session's snapshot into a PDF and delivers it.
// On any failure the session is left untouched so the user can retry
// without re-uploading.
func (d *Dispatcher) generatePDF(ctx context.Context, userID, chatID int64, messageID int) {
	sess, err := d.store.GetOrCreate(userID)
	if err != nil {
		slog.Error("Failed to create session", "user_id", userID, "error", err)
		d.edit(ctx, chatID, messageID, msgGenerateFailed)
		return
	}

	snapshot := sess.Images()
	if len(snapshot) == 0 {
		d.edit(ctx, chatID, messageID, msgNoImages)
		return
	}

	d.edit(ctx, chatID, messageID, msgGenerating)

	name := fmt.Sprintf("images_to_pdf_%s.pdf", d.clock.Now().Format("20060102_150405"))
	outputPath := filepath.Join(sess.ScratchDir(), name)

	pages, err := d.assembler.Assemble(snapshot, outputPath)
	if err != nil {
		slog.Error("Failed to assemble PDF", "user_id", userID, "inputs", len(snapshot), "error", err)
		d.edit(ctx, chatID, messageID, msgGenerateFailed)
		return
	}

	if err := d.bot.SendDocument(ctx, chatID, outputPath, msgPDFCaption(pages)); err != nil {
		slog.Error("Failed to send PDF", "user_id", userID, "error", err)
		d.edit(ctx, chatID, messageID, msgSendFailed)
		return
	}

	if err := d.store.Clear(userID); err != nil {
		slog.Error("Failed to clear session after delivery", "user_id", userID, "error", err)
	}
	d.edit(ctx, chatID, messageID, msgPDFSent)
}

func (d *Dispatcher) reply(ctx context.Context, chatID int64, text string) {
	if err := d.bot.SendMessage(ctx, chatID, text, nil); err != nil {
		slog.Error("Failed to send reply", "chat_id", chatID, "error", err)
	}
}

func (d *Dispatcher) edit(ctx context.Context, chatID int64, messageID int, text string) {
	if err := d.bot.EditMessageText(ctx, chatID, messageID, text); err != nil {
		slog.Error("Failed to edit message", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}

func actionButtons() []domain.InlineAction {
	return []domain.InlineAction{
		{Label: labelGeneratePDF, Data: domain.ActionGeneratePDF},
		{Label: labelClearImages, Data: domain.ActionClearImages},
	}
}
