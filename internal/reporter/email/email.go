// Package email sends the post-run notification: a summary of newly
// created tracker tickets, with scan artifacts attached.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/rs/zerolog"

	"github.com/dkazakov/scan-reporting/internal/model"
	"github.com/dkazakov/scan-reporting/internal/reporter"
)

// defaultSubject is used when the configuration does not set one.
const defaultSubject = "Security scan results"

// tableStyle renders the ticket table with visible borders in plain mail
// clients.
const tableStyle = `table, th, td {
  border: 1px solid black;
  border-collapse: collapse;
  padding: 0px 5px;
}`

// submitFunc delivers a composed message. Tests substitute a capture.
type submitFunc func(addr string, a sasl.Client, from string, to []string, r io.Reader) error

// Sender composes and submits notification emails over SMTP.
type Sender struct {
	cfg    *model.EmailConfig
	log    zerolog.Logger
	submit submitFunc
}

// New validates the configuration and builds the sender. Host, sender
// address, and at least one recipient are required; a zero port defaults
// to the submission port 587.
func New(cfg *model.EmailConfig, log zerolog.Logger) (*Sender, error) {
	if cfg == nil {
		return nil, &reporter.ConfigError{
			Reporter: reporter.TypeEmail,
			Message:  "reporter is not configured",
		}
	}
	if cfg.Host == "" {
		return nil, &reporter.ConfigError{Reporter: reporter.TypeEmail, Field: "host"}
	}
	if cfg.From == "" {
		return nil, &reporter.ConfigError{Reporter: reporter.TypeEmail, Field: "from"}
	}
	if len(cfg.Recipients) == 0 {
		return nil, &reporter.ConfigError{Reporter: reporter.TypeEmail, Field: "recipients"}
	}
	return &Sender{
		cfg:    cfg,
		log:    log.With().Str("reporter", string(reporter.TypeEmail)).Logger(),
		submit: smtp.SendMail,
	}, nil
}

// Notify sends the notification email. When the tracker path ran, the
// body lists the newly created tickets, or notes that none were found;
// otherwise it points at the attached results.
func (s *Sender) Notify(
	ctx context.Context,
	newTickets []model.TicketRecord,
	trackerUsed bool,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := s.compose(htmlBody(newTickets, trackerUsed))
	if err != nil {
		return err
	}

	port := s.cfg.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, port)

	var auth sasl.Client
	if s.cfg.Username != "" {
		auth = sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)
	}

	if err := s.submit(addr, auth, s.cfg.From, s.cfg.Recipients, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("sending notification via %s: %w", addr, err)
	}
	s.log.Info().Int("recipients", len(s.cfg.Recipients)).
		Int("tickets", len(newTickets)).Msg("notification sent")
	return nil
}

// htmlBody builds the notification document: a bordered table of new
// tickets with the key linked to the tracker.
func htmlBody(newTickets []model.TicketRecord, trackerUsed bool) string {
	var body string
	switch {
	case !trackerUsed:
		body = "<p>Please see the results attached.</p>"
	case len(newTickets) == 0:
		body = "<p>No new security issues found.</p>"
	default:
		var rows bytes.Buffer
		for _, ticket := range newTickets {
			fmt.Fprintf(&rows,
				"<tr><td>%s</td><td><a href=%q>%s</a></td><td>%s</td></tr>\n",
				html.EscapeString(ticket.Priority),
				ticket.URL,
				html.EscapeString(ticket.ID),
				html.EscapeString(ticket.Summary),
			)
		}
		body = fmt.Sprintf(`<p>Here&rsquo;s the list of security issues found:</p>
<table>
<tr><th>PRIORITY</th><th>KEY</th><th>SUMMARY</th></tr>
%s</table>`, rows.String())
	}
	return fmt.Sprintf(
		"<html><head><style>%s</style></head><body>%s</body></html>",
		tableStyle, body,
	)
}

// compose builds the MIME message: an inline HTML part plus the
// configured file attachments.
func (s *Sender) compose(body string) ([]byte, error) {
	subject := s.cfg.Subject
	if subject == "" {
		subject = defaultSubject
	}

	from := []*mail.Address{{Address: s.cfg.From}}
	to := make([]*mail.Address, 0, len(s.cfg.Recipients))
	for _, recipient := range s.cfg.Recipients {
		to = append(to, &mail.Address{Address: recipient})
	}

	var header mail.Header
	header.SetDate(time.Now())
	header.SetAddressList("From", from)
	header.SetAddressList("To", to)
	header.SetSubject(subject)

	var buf bytes.Buffer
	writer, err := mail.CreateWriter(&buf, header)
	if err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	var inline mail.InlineHeader
	inline.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	part, err := writer.CreateSingleInline(inline)
	if err != nil {
		return nil, fmt.Errorf("creating message body: %w", err)
	}
	if _, err := io.WriteString(part, body); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := part.Close(); err != nil {
		return nil, fmt.Errorf("finishing message body: %w", err)
	}

	for _, path := range s.cfg.Attachments {
		if err := attach(writer, path); err != nil {
			// A missing artifact should not swallow the notification.
			s.log.Warn().Err(err).Str("path", path).Msg("skipping attachment")
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finishing message: %w", err)
	}
	return buf.Bytes(), nil
}

func attach(writer *mail.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading attachment: %w", err)
	}

	var header mail.AttachmentHeader
	header.SetFilename(filepath.Base(path))
	part, err := writer.CreateAttachment(header)
	if err != nil {
		return fmt.Errorf("creating attachment part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		part.Close()
		return fmt.Errorf("writing attachment: %w", err)
	}
	return part.Close()
}
