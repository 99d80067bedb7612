package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/batalabs/botd/internal/pdf"
	"github.com/batalabs/botd/internal/stylize"
)

const startText = `Hi! I'm an AI bot powered by OpenRouter.

Available commands:
/chat - talk to the AI (just send text)
/style <disney|pixar|anime> - the next photo you send gets stylized
/pdf - send photos, then /pdf bundles them into one PDF
/readpdf - send a PDF and I'll extract its text
/clear - reset your session and temp files
/contact_admin - send a message to the admin`

// startKeyboard mirrors the command menu as a reply keyboard.
func startKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/chat"),
			tgbotapi.NewKeyboardButton("/style"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/pdf"),
			tgbotapi.NewKeyboardButton("/readpdf"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/contact_admin"),
			tgbotapi.NewKeyboardButton("/help"),
		),
	)
}

// normalizeCommand lowercases the command token and strips an @botname
// suffix ("/start@mybot" -> "/start").
func normalizeCommand(token string) string {
	cmd := strings.ToLower(token)
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	return cmd
}

func (a *Adapter) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	parts := strings.Fields(msg.Text)
	if len(parts) == 0 {
		return
	}
	cmd := normalizeCommand(parts[0])

	switch cmd {
	case "/start":
		reply := tgbotapi.NewMessage(chatID, startText)
		reply.ReplyMarkup = startKeyboard()
		a.send(reply)

	case "/help":
		a.send(tgbotapi.NewMessage(chatID, "Help: /start shows the menu. Use /contact_admin to reach the admin."))

	case "/chat":
		a.send(tgbotapi.NewMessage(chatID, "Send me some text and I'll answer through OpenRouter."))

	case "/pdf":
		a.handleExport(msg)

	case "/readpdf":
		a.send(tgbotapi.NewMessage(chatID, "Send me a PDF and I'll extract its text."))

	case "/style":
		style, reply := parseStyleArg(parts)
		if style == "" {
			a.send(tgbotapi.NewMessage(chatID, reply))
			return
		}
		a.sessions.SetStyle(userID, style)
		a.send(tgbotapi.NewMessage(chatID, reply))

	case "/clear":
		if err := a.sessions.Clear(userID); err != nil {
			a.log.Warn().Err(err).Int64("user_id", userID).Msg("telegram: clearing session")
			a.send(tgbotapi.NewMessage(chatID, "Clear failed. "+sanitizeError(err)))
			return
		}
		a.send(tgbotapi.NewMessage(chatID, "Your session has been cleared."))

	case "/contact_admin":
		a.sessions.SetAwaitingAdmin(userID, true)
		a.send(tgbotapi.NewMessage(chatID, "Write the message you want to send to the admin:"))

	case "/broadcast":
		a.handleBroadcast(msg)

	default:
		a.send(tgbotapi.NewMessage(chatID, "Unknown command. Try /help for available commands."))
	}
}

// parseStyleArg validates the /style argument. It returns the accepted
// style token and the reply text; style is empty when the argument is
// missing or unrecognized.
func parseStyleArg(parts []string) (style, reply string) {
	if len(parts) < 2 {
		return "", "Usage: /style <disney|pixar|anime>"
	}
	arg := strings.ToLower(parts[1])
	if !stylize.ValidStyle(arg) {
		return "", "Only disney, pixar or anime are supported."
	}
	return arg, fmt.Sprintf("Style set to %s. Now send me a photo.", arg)
}

// handleExport converts the user's collected images into a single PDF. The
// collection is only emptied after the document was delivered.
func (a *Adapter) handleExport(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	images := a.sessions.Images(userID)
	if len(images) == 0 {
		a.send(tgbotapi.NewMessage(chatID, "No images collected yet. Send me some photos first."))
		return
	}

	data, err := pdf.Export(images)
	if err != nil {
		a.log.Warn().Err(err).Int64("user_id", userID).Msg("telegram: pdf export failed")
		a.send(tgbotapi.NewMessage(chatID, "PDF export failed. "+sanitizeError(err)))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "images.pdf", Bytes: data})
	if _, err := a.bot.Send(doc); err != nil {
		a.log.Warn().Err(err).Int64("user_id", userID).Msg("telegram: sending pdf failed")
		a.send(tgbotapi.NewMessage(chatID, "Could not deliver the PDF. "+sanitizeError(err)))
		return
	}

	// Files on disk stay until /clear; only the collection empties.
	a.sessions.ResetImages(userID)
}
