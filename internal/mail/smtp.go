package mail

import (
	"bytes"
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig — настройки SMTP-транспорта.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// SMTPTransport отправляет письма через SMTP (wneessen/go-mail).
type SMTPTransport struct {
	cfg SMTPConfig
}

var _ Transport = (*SMTPTransport)(nil)

// NewSMTPTransport создаёт SMTP-транспорт.
func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	m, err := BuildMIME(msg)
	if err != nil {
		return err
	}

	opts := []gomail.Option{gomail.WithPort(t.cfg.Port)}
	if t.cfg.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(t.cfg.User),
			gomail.WithPassword(t.cfg.Password),
		)
	}

	client, err := gomail.NewClient(t.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("mail: smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mail: send to %s: %w", msg.To, err)
	}
	return nil
}

// BuildMIME собирает MIME-сообщение: текст основным телом, HTML
// альтернативой, inline-вложения с Content-ID, остальные — обычные.
func BuildMIME(msg *Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("mail: from %q: %w", msg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("mail: to %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}

	for _, a := range msg.Attachments {
		opts := []gomail.FileOption{
			gomail.WithFileContentType(gomail.ContentType(a.MimeType)),
		}
		if a.Inline {
			opts = append(opts, gomail.WithFileContentID(a.ContentID))
			if err := m.EmbedReader(a.Filename, bytes.NewReader(a.Data), opts...); err != nil {
				return nil, fmt.Errorf("mail: embed %q: %w", a.Filename, err)
			}
			continue
		}
		if err := m.AttachReader(a.Filename, bytes.NewReader(a.Data), opts...); err != nil {
			return nil, fmt.Errorf("mail: attach %q: %w", a.Filename, err)
		}
	}
	return m, nil
}
