package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"aprspass/entity"
	"aprspass/lib/clock"
)

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id

	// pick up admins added to the store after the bot started
	t.loadAdmins()

	admin := t.adminByChat(chatId)
	if admin == nil {
		t.plainResponse(chatId, "This bot serves APRS\\-IS passcode administrators only\\.")
		return nil
	}
	t.plainResponse(chatId, fmt.Sprintf(
		"Hello %s\\! You will receive new passcode request alerts here\\. See /help\\.",
		Sanitize(admin.Username),
	))
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireAdmin(chatId) {
		return nil
	}
	t.plainResponse(chatId, Sanitize(`Commands:
/pending - list requests waiting for a decision
/approve <callsign> - approve and mail the passcode
/deny <callsign> - deny and mail the refusal
/help - this message`))
	return nil
}

func (t *TgBot) pending(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.requireAdmin(chatId) {
		return nil
	}
	if t.core == nil {
		t.plainResponse(chatId, "Request service not connected\\.")
		return nil
	}

	requests, err := t.core.PendingRequests(context.Background())
	if err != nil {
		t.reportError(chatId, "/pending", err)
		return nil
	}
	if len(requests) == 0 {
		t.plainResponse(chatId, "No pending requests\\.")
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Pending requests \\(%d\\):\n", len(requests)))
	for _, req := range requests {
		sb.WriteString(Sanitize(fmt.Sprintf(
			"%s - %s (%s, %s ago)\n",
			req.Callsign, req.FullName, req.Email, clock.Age(req.SubmittedAt),
		)))
	}
	t.plainResponse(chatId, sb.String())
	return nil
}

func (t *TgBot) approve(_ *tgbotapi.Bot, ctx *ext.Context) error {
	return t.decide(ctx, "/approve", func(c context.Context, callsign, actor string) (*entity.PasscodeRequest, error) {
		return t.core.ApproveByCallsign(c, callsign, actor)
	})
}

func (t *TgBot) deny(_ *tgbotapi.Bot, ctx *ext.Context) error {
	return t.decide(ctx, "/deny", func(c context.Context, callsign, actor string) (*entity.PasscodeRequest, error) {
		return t.core.DenyByCallsign(c, callsign, actor)
	})
}

func (t *TgBot) decide(ctx *ext.Context, command string, op func(context.Context, string, string) (*entity.PasscodeRequest, error)) error {
	chatId := ctx.EffectiveUser.Id
	admin := t.adminByChat(chatId)
	if admin == nil {
		return nil
	}
	if t.core == nil {
		t.plainResponse(chatId, "Request service not connected\\.")
		return nil
	}

	args := strings.Fields(ctx.EffectiveMessage.Text)
	if len(args) < 2 {
		t.plainResponse(chatId, Sanitize(fmt.Sprintf("Usage: %s <callsign>", command)))
		return nil
	}
	callsign := args[1]

	req, err := op(context.Background(), callsign, admin.Username)
	switch {
	case errors.Is(err, entity.ErrInvalidCallsign):
		t.plainResponse(chatId, Sanitize(fmt.Sprintf("%s is not a valid callsign.", callsign)))
	case errors.Is(err, entity.ErrNotFound):
		t.plainResponse(chatId, Sanitize(fmt.Sprintf("No request found for %s.", strings.ToUpper(callsign))))
	case errors.Is(err, entity.ErrDecisionFinal):
		t.plainResponse(chatId, Sanitize(fmt.Sprintf("Request for %s is already decided.", strings.ToUpper(callsign))))
	case errors.Is(err, entity.ErrDeliveryFailed):
		t.plainResponse(chatId, Sanitize(fmt.Sprintf(
			"Decision for %s saved, but the notification mail failed. Use resend once mail is back.",
			strings.ToUpper(callsign),
		)))
	case err != nil:
		t.reportError(chatId, command, err)
	default:
		t.plainResponse(chatId, Sanitize(fmt.Sprintf("Request for %s is now %s.", req.Callsign, req.Status)))
		t.notifyAdmins(Sanitize(fmt.Sprintf("%s %s by %s", req.Callsign, req.Status, admin.Username)))
	}
	return nil
}
