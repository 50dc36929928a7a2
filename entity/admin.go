package entity

import (
	"net/http"

	"aprspass/lib/validate"
)

// Admin is an administrator identity: authenticates API calls by token
// and, when TelegramId is set, receives new-request alerts and may decide
// requests from the Telegram chat.
type Admin struct {
	Username        string `json:"username" bson:"username" validate:"required"`
	Name            string `json:"name" bson:"name" validate:"omitempty"`
	Email           string `json:"email" bson:"email" validate:"omitempty"`
	Token           string `json:"token" bson:"token" validate:"required,min=1"`
	TelegramId      int64  `json:"telegram_id" bson:"telegram_id" validate:"omitempty"`
	TelegramEnabled bool   `json:"telegram_enabled" bson:"telegram_enabled" validate:"omitempty"`
}

func (a *Admin) Bind(_ *http.Request) error {
	return validate.Struct(a)
}
