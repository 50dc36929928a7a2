package logger

import (
	"context"
	"fmt"
	"log/slog"
)

// Alerter is the subset of the Telegram bot the handler needs.
type Alerter interface {
	SendAlert(msg string)
}

// TelegramHandler is a slog.Handler that mirrors records at or above
// minLevel to the admin Telegram chats, on top of a wrapped handler.
type TelegramHandler struct {
	handler  slog.Handler
	alerts   Alerter
	minLevel slog.Level
	attrs    []slog.Attr
}

func NewTelegramHandler(handler slog.Handler, alerts Alerter, minLevel slog.Level) *TelegramHandler {
	return &TelegramHandler{
		handler:  handler,
		alerts:   alerts,
		minLevel: minLevel,
	}
}

func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	if err := h.handler.Handle(ctx, record); err != nil {
		return err
	}
	if record.Level < h.minLevel || h.alerts == nil {
		return nil
	}

	msg := fmt.Sprintf("%s %s", record.Level.String(), record.Message)
	for _, attr := range h.attrs {
		msg += fmt.Sprintf("\n%s: %v", attr.Key, attr.Value)
	}
	record.Attrs(func(attr slog.Attr) bool {
		msg += fmt.Sprintf("\n%s: %v", attr.Key, attr.Value)
		return true
	})
	h.alerts.SendAlert(msg)
	return nil
}

func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	newAttrs = append(newAttrs, h.attrs...)
	newAttrs = append(newAttrs, attrs...)

	return &TelegramHandler{
		handler:  h.handler.WithAttrs(attrs),
		alerts:   h.alerts,
		minLevel: h.minLevel,
		attrs:    newAttrs,
	}
}

func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	return &TelegramHandler{
		handler:  h.handler.WithGroup(name),
		alerts:   h.alerts,
		minLevel: h.minLevel,
		attrs:    h.attrs,
	}
}
