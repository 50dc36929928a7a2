// Package mailer delivers the three outbound notifications over SMTP:
// the submission alert to the admin list, and the approval and denial
// notices to the requester.
package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"aprspass/entity"
	"aprspass/internal/config"
	"aprspass/lib/sl"
)

type Mailer struct {
	conf config.SmtpConfig
	log  *slog.Logger
}

func New(conf config.SmtpConfig, log *slog.Logger) *Mailer {
	return &Mailer{
		conf: conf,
		log:  log.With(sl.Module("mailer")),
	}
}

// SubmissionAlert goes to the configured admin addresses with the
// requester set as Reply-To, so an admin can answer directly.
func (m *Mailer) SubmissionAlert(req *entity.PasscodeRequest) error {
	if len(m.conf.Notify) == 0 {
		return fmt.Errorf("no notify addresses configured")
	}
	body, err := renderBody(submissionBody, req)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf(subjectSubmission, req.Callsign)
	return m.send(m.conf.Notify, req.Email, subject, body)
}

func (m *Mailer) ApprovalNotice(req *entity.PasscodeRequest) error {
	body, err := renderBody(approvalBody, req)
	if err != nil {
		return err
	}
	return m.send([]string{req.Email}, "", subjectApproval, body)
}

func (m *Mailer) DenialNotice(req *entity.PasscodeRequest) error {
	body, err := renderBody(denialBody, req)
	if err != nil {
		return err
	}
	return m.send([]string{req.Email}, "", subjectDenial, body)
}

func (m *Mailer) send(to []string, replyTo, subject, body string) error {
	msg := m.message(to, replyTo, subject, body)

	var auth smtp.Auth
	if m.conf.User != "" {
		auth = smtp.PlainAuth("", m.conf.User, m.conf.Password, m.conf.Host)
	}
	addr := m.conf.Host + ":" + m.conf.Port

	err := smtp.SendMail(addr, auth, m.conf.From, to, msg)
	if err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	m.log.Debug("mail sent",
		slog.String("subject", subject),
		slog.Int("recipients", len(to)),
	)
	return nil
}

func (m *Mailer) message(to []string, replyTo, subject, body string) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + m.conf.From + "\r\n")
	sb.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	if replyTo != "" {
		sb.WriteString("Reply-To: " + replyTo + "\r\n")
	}
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}
