package mailer

import (
	"fmt"
	"strings"
	"text/template"

	"aprspass/entity"
)

const (
	subjectSubmission = "APRS-IS Passcode Request: %s"
	subjectApproval   = "APRS-IS Passcode Approved!"
	subjectDenial     = "APRS-IS Passcode Denied!"
)

var submissionBody = template.Must(template.New("submission").Parse(
	`{{.FullName}} ({{.Email}}, {{.Locator}}) requested a passcode for {{.Callsign}}:
{{.Comment}}
`))

var approvalBody = template.Must(template.New("approval").Parse(
	`Dear {{.FullName}},

Your APRS-IS passcode for {{.Callsign}} is {{.Passcode}}.

This passcode is valid for use with any SSID (1..15 or none).

Please write down the passcode or keep this message in a safe
place in case you need to re-enter the passcode later.
`))

var denialBody = template.Must(template.New("denial").Parse(
	`{{.FullName}},

Your APRS-IS passcode request for {{.Callsign}} was denied.
`))

func renderBody(tpl *template.Template, req *entity.PasscodeRequest) (string, error) {
	var sb strings.Builder
	if err := tpl.Execute(&sb, req); err != nil {
		return "", fmt.Errorf("render %s body: %w", tpl.Name(), err)
	}
	return sb.String(), nil
}
