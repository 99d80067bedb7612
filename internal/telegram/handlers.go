package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/batalabs/botd/internal/pdf"
	"github.com/batalabs/botd/internal/provider"
	"github.com/batalabs/botd/internal/stylize"
)

// inlineTextLimit is the largest extraction result delivered as an inline
// message; anything longer goes out as a text attachment.
const inlineTextLimit = 3000

// broadcastParallelism bounds concurrent broadcast deliveries.
const broadcastParallelism = 8

// adminReplyPrefix tags relayed admin answers so users can tell them from
// AI chat output.
const adminReplyPrefix = "Reply from the admin:\n\n"

// broadcastTag marks fan-out messages.
const broadcastTag = "[Admin broadcast]"

// ---------------------------------------------------------------------------
// Photo: collection and stylization
// ---------------------------------------------------------------------------

func (a *Adapter) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	// Telegram orders variants ascending; take the highest resolution.
	variant := msg.Photo[len(msg.Photo)-1]

	dir, err := a.sessions.UserDir(userID)
	if err != nil {
		a.log.Warn().Err(err).Int64("user_id", userID).Msg("telegram: user dir")
		a.send(tgbotapi.NewMessage(chatID, "Could not store your photo. "+sanitizeError(err)))
		return
	}

	idx := a.sessions.NextImageIndex(userID)
	rawPath := filepath.Join(dir, fmt.Sprintf("img_%d.jpg", idx))
	if err := a.downloadFile(ctx, variant.FileID, rawPath); err != nil {
		a.log.Warn().Err(err).Int64("user_id", userID).Msg("telegram: photo download")
		a.send(tgbotapi.NewMessage(chatID, "Could not download your photo. "+sanitizeError(err)))
		return
	}

	// Consuming the token clears it whatever happens next; /style must be
	// reissued for another attempt.
	if style, ok := a.sessions.TakeStyle(userID); ok {
		a.stylizePhoto(ctx, msg, style, rawPath, idx)
		return
	}

	a.sessions.AppendImage(userID, rawPath)
	a.send(tgbotapi.NewMessage(chatID, "Photo saved. Send more, then /pdf to bundle them into a PDF."))
}

func (a *Adapter) stylizePhoto(ctx context.Context, msg *tgbotapi.Message, style, rawPath string, idx int) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	a.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Photo received, applying the %s style...", style)))

	data, err := os.ReadFile(rawPath)
	if err != nil {
		a.log.Warn().Err(err).Int64("user_id", userID).Msg("telegram: reading photo for stylize")
		a.send(tgbotapi.NewMessage(chatID, "Stylization failed. "+sanitizeError(err)))
		return
	}

	styleCtx, cancel := context.WithTimeout(ctx, stylize.RequestTimeout)
	defer cancel()
	out, err := a.stylizer.Stylize(styleCtx, data, style)
	if err != nil {
		a.log.Warn().Err(err).Str("style", style).Int64("user_id", userID).Msg("telegram: stylize failed")
		a.send(tgbotapi.NewMessage(chatID, "Stylization failed. Send /style to try again."))
		return
	}

	stylPath := filepath.Join(filepath.Dir(rawPath), fmt.Sprintf("styl_%d.jpg", idx))
	if err := os.WriteFile(stylPath, out, 0o600); err != nil {
		a.log.Warn().Err(err).Int64("user_id", userID).Msg("telegram: writing stylized photo")
		a.send(tgbotapi.NewMessage(chatID, "Stylization failed. "+sanitizeError(err)))
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "styled.jpg", Bytes: out})
	photo.Caption = fmt.Sprintf("Stylized: %s", style)
	if _, err := a.bot.Send(photo); err != nil {
		a.log.Warn().Err(err).Int64("user_id", userID).Msg("telegram: sending stylized photo")
		a.send(tgbotapi.NewMessage(chatID, "Could not deliver the stylized photo. "+sanitizeError(err)))
		return
	}

	// The stylized result joins the PDF collection, as a stored photo would.
	a.sessions.AppendImage(userID, stylPath)
}

// ---------------------------------------------------------------------------
// Document: PDF text extraction
// ---------------------------------------------------------------------------

func (a *Adapter) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	doc := msg.Document
	if doc.MimeType != "application/pdf" {
		a.send(tgbotapi.NewMessage(chatID, "Please send a PDF document."))
		return
	}

	dir, err := a.sessions.UserDir(userID)
	if err != nil {
		a.log.Warn().Err(err).Int64("user_id", userID).Msg("telegram: user dir")
		a.send(tgbotapi.NewMessage(chatID, "Could not store your document. "+sanitizeError(err)))
		return
	}

	pdfPath := filepath.Join(dir, "incoming.pdf")
	if err := a.downloadFile(ctx, doc.FileID, pdfPath); err != nil {
		a.log.Warn().Err(err).Int64("user_id", userID).Msg("telegram: document download")
		a.send(tgbotapi.NewMessage(chatID, "Could not download your document. "+sanitizeError(err)))
		return
	}

	text, err := pdf.ExtractText(pdfPath)
	if err != nil {
		a.log.Warn().Err(err).Int64("user_id", userID).Msg("telegram: pdf extraction")
		a.send(tgbotapi.NewMessage(chatID, "Could not read that PDF. "+sanitizeError(err)))
		return
	}

	if !deliverInline(text) {
		txtPath := filepath.Join(dir, "extracted.txt")
		if err := os.WriteFile(txtPath, []byte(text), 0o600); err != nil {
			a.log.Warn().Err(err).Int64("user_id", userID).Msg("telegram: writing extracted text")
			a.send(tgbotapi.NewMessage(chatID, "Could not deliver the extracted text. "+sanitizeError(err)))
			return
		}
		a.send(tgbotapi.NewDocument(chatID, tgbotapi.FilePath(txtPath)))
		return
	}

	a.send(tgbotapi.NewMessage(chatID, text))
}

// deliverInline reports whether an extraction result fits in an inline
// message; longer results go out as extracted.txt.
func deliverInline(text string) bool {
	return len(text) <= inlineTextLimit
}

// ---------------------------------------------------------------------------
// Chat: default AI path
// ---------------------------------------------------------------------------

func (a *Adapter) handleChat(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if _, err := a.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		a.log.Debug().Err(err).Msg("telegram: chat action")
	}

	chatCtx, cancel := context.WithTimeout(ctx, provider.RequestTimeout)
	defer cancel()

	// Fallback and error strings are content; they go to the user as-is.
	reply := a.completer.Complete(chatCtx, strings.TrimSpace(msg.Text))
	if reply == "" {
		reply = "(No response)"
	}
	a.send(tgbotapi.NewMessage(chatID, reply))
}

// ---------------------------------------------------------------------------
// Admin relay
// ---------------------------------------------------------------------------

// formatAdminForward builds the structured notice delivered to the admin.
func formatAdminForward(displayName string, userID int64, username, body string) string {
	handle := "-"
	if username != "" {
		handle = "@" + username
	}
	return fmt.Sprintf("Message to admin\n\nFrom: %s (id: %d)\nUsername: %s\n\n%s",
		displayName, userID, handle, body)
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}

// handleAdminForward delivers the user's pending message to the admin and
// records the relay entry the admin's reply will be routed by. On transport
// failure the awaiting flag stays set so the user can retry.
func (a *Adapter) handleAdminForward(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	notice := formatAdminForward(displayName(msg.From), userID, msg.From.UserName, msg.Text)
	sent, err := a.bot.Send(tgbotapi.NewMessage(a.cfg.AdminID, notice))
	if err != nil {
		a.log.Warn().Err(err).Int64("user_id", userID).Msg("telegram: admin forward failed")
		a.send(tgbotapi.NewMessage(chatID, "Could not reach the admin right now. Please try again."))
		return
	}

	a.relay.Record(sent.MessageID, userID)
	a.sessions.SetAwaitingAdmin(userID, false)
	a.send(tgbotapi.NewMessage(chatID, "Your message was sent to the admin."))
}

// handleAdminReply relays the admin's reply (text or photo) back to the user
// the replied-to forward originated from. A reply to anything not in the
// relay map is a dead end: nothing is sent to anyone.
func (a *Adapter) handleAdminReply(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	target, ok := a.relay.Lookup(msg.ReplyToMessage.MessageID)
	if !ok {
		a.send(tgbotapi.NewMessage(chatID, "No matching user for that message."))
		return
	}

	var out tgbotapi.Chattable
	switch {
	case len(msg.Photo) > 0:
		photo := tgbotapi.NewPhoto(target, tgbotapi.FileID(msg.Photo[len(msg.Photo)-1].FileID))
		photo.Caption = msg.Caption
		if photo.Caption == "" {
			photo.Caption = "Reply from the admin"
		}
		out = photo
	case strings.TrimSpace(msg.Text) != "":
		out = tgbotapi.NewMessage(target, adminReplyPrefix+msg.Text)
	default:
		a.send(tgbotapi.NewMessage(chatID, "Send text or a photo as your reply."))
		return
	}

	if _, err := a.bot.Send(out); err != nil {
		a.log.Warn().Err(err).Int64("target", target).Msg("telegram: admin reply delivery failed")
		a.send(tgbotapi.NewMessage(chatID, "Could not deliver your reply. "+sanitizeError(err)))
		return
	}
	a.send(tgbotapi.NewMessage(chatID, "Reply delivered."))
}

// ---------------------------------------------------------------------------
// Broadcast
// ---------------------------------------------------------------------------

// handleBroadcast fans the replied-to message out to every known user.
// Partial failure is success: unreachable users are skipped and only the
// delivered count is reported.
func (a *Adapter) handleBroadcast(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.From.ID != a.cfg.AdminID {
		a.send(tgbotapi.NewMessage(chatID, "This command is admin-only."))
		return
	}
	if msg.ReplyToMessage == nil {
		a.send(tgbotapi.NewMessage(chatID, "Reply to the message you want to broadcast and send /broadcast."))
		return
	}

	ids := a.known.IDs()
	if len(ids) == 0 {
		a.send(tgbotapi.NewMessage(chatID, "No known users to broadcast to."))
		return
	}

	src := msg.ReplyToMessage
	var build func(id int64) tgbotapi.Chattable
	switch {
	case strings.TrimSpace(src.Text) != "":
		build = func(id int64) tgbotapi.Chattable {
			return tgbotapi.NewMessage(id, broadcastTag+"\n\n"+src.Text)
		}
	case len(src.Photo) > 0:
		fileID := src.Photo[len(src.Photo)-1].FileID
		build = func(id int64) tgbotapi.Chattable {
			photo := tgbotapi.NewPhoto(id, tgbotapi.FileID(fileID))
			photo.Caption = broadcastTag
			return photo
		}
	default:
		a.send(tgbotapi.NewMessage(chatID, "Only text and photo broadcasts are supported."))
		return
	}

	delivered := fanOut(ids, func(id int64) error {
		_, err := a.bot.Send(build(id))
		return err
	})
	a.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Broadcast delivered to %d user(s).", delivered)))
}

// fanOut runs send for every id as independent tasks and returns the number
// of successful deliveries. Individual failures are swallowed.
func fanOut(ids []int64, send func(int64) error) int {
	var delivered atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(broadcastParallelism)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := send(id); err == nil {
				delivered.Add(1)
			}
			return nil
		})
	}
	// Workers never return errors; Wait just joins them.
	_ = g.Wait()
	return int(delivered.Load())
}
