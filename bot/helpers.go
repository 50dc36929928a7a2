package bot

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"aprspass/entity"
	"aprspass/lib/sl"
)

func (t *TgBot) plainResponse(chatId int64, text string) {
	if text == "" {
		t.log.With("id", chatId).Debug("empty message")
		return
	}

	_, err := t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending message", sl.Err(err))
		_, err = t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{})
		if err != nil {
			t.log.With(slog.Int64("id", chatId)).Error("sending safe message", sl.Err(err))
		}
	}
}

func Sanitize(input string) string {
	reservedChars := "\\_{}#+-.!|()[]=*"
	sanitized := ""
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			sanitized += "\\" + string(char)
		} else {
			sanitized += string(char)
		}
	}
	return sanitized
}

func (t *TgBot) requireAdmin(chatId int64) bool {
	return t.adminByChat(chatId) != nil
}

func (t *TgBot) adminByChat(chatId int64) *entity.Admin {
	t.mu.RLock()
	defer t.mu.RUnlock()
	admin, ok := t.admins[chatId]
	if !ok {
		return nil
	}
	return admin
}

func (t *TgBot) notifyAdmins(msg string) {
	t.mu.RLock()
	chatIds := make([]int64, 0, len(t.admins))
	for id := range t.admins {
		chatIds = append(chatIds, id)
	}
	t.mu.RUnlock()

	for _, id := range chatIds {
		t.plainResponse(id, msg)
	}
}

// reportError logs the error and sends a neutral message to the chat.
func (t *TgBot) reportError(chatId int64, command string, err error) {
	t.log.Error("bot command failed",
		slog.String("command", command),
		slog.Int64("chat_id", chatId),
		sl.Err(err),
	)
	t.plainResponse(chatId, fmt.Sprintf("Command `%s` failed: `%s`", Sanitize(command), Sanitize(err.Error())))
}
