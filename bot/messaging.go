package bot

import (
	"fmt"

	"aprspass/entity"
)

// NewRequestAlert pushes a freshly submitted request to every admin chat.
// Invoked by the core after a pending record is persisted; best-effort.
func (t *TgBot) NewRequestAlert(req *entity.PasscodeRequest) {
	msg := Sanitize(fmt.Sprintf(
		"New passcode request: %s\n%s (%s, %s)\n%s",
		req.Callsign, req.FullName, req.Email, req.Locator, req.QRZURL(),
	))
	if req.Comment != "" {
		msg += "\n" + Sanitize(req.Comment)
	}
	msg += Sanitize(fmt.Sprintf("\nDecide with /approve %s or /deny %s", req.Callsign, req.Callsign))
	t.notifyAdmins(msg)
}

// SendAlert forwards a plain text message to all admin chats. Used by the
// log handler for warn and error records.
func (t *TgBot) SendAlert(msg string) {
	t.notifyAdmins(Sanitize(msg))
}
