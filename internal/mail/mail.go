// Package mail — исходящий почтовый транспорт. Сборка MIME-письма
// (текст + HTML-альтернатива + вложения) и отправка по SMTP; провайдеры
// взаимозаменяемы через интерфейс Transport.
package mail

import "context"

// Attachment — одно бинарное вложение письма. Inline-вложения
// встраиваются в тело и адресуются из HTML по cid:ContentID;
// остальные идут обычными вложениями.
type Attachment struct {
	ContentID string
	Filename  string
	MimeType  string
	Data      []byte
	Inline    bool
}

// Message — готовое к отправке письмо.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string // основное текстовое тело
	HTML    string // HTML-альтернатива
	Attachments []Attachment
}

// Transport отправляет письмо. Ошибка любой природы (auth, сеть,
// отклонённый получатель) — это ошибка транспорта целиком.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}
