package delivery

import (
	"TimeCapsule/internal/model"
	"fmt"
	"html"
	"path"
	"strings"

	"github.com/google/uuid"
)

// AttachmentRef — ссылка рендерера на бинарное содержимое, которое ещё
// предстоит достать из blob-хранилища. Для inline-вложений ContentID
// уже вписан в HTML как cid:.
type AttachmentRef struct {
	ContentID string
	Item      model.CapsuleItem
	Inline    bool
}

// RenderedContent — две параллельные версии письма плюс ссылки на вложения.
type RenderedContent struct {
	HTML string
	Text string
	Refs []AttachmentRef
}

// Renderer собирает тело письма из элементов капсулы в порядке позиций.
type Renderer struct {
	siteURL string
	newCID  func() string
}

// NewRenderer создаёт рендерер. siteURL уходит в ссылки на просмотр
// капсулы и на видеофайлы.
func NewRenderer(siteURL string) *Renderer {
	return &Renderer{
		siteURL: strings.TrimSuffix(siteURL, "/"),
		newCID:  uuid.NewString,
	}
}

// Render строит HTML и текстовую версии письма. Перед рендерингом каждый
// элемент проверяется на инвариант нагрузки: расхождение — ошибка
// целостности данных, письмо не собирается даже частично.
func (r *Renderer) Render(c *model.Capsule) (*RenderedContent, error) {
	for i := range c.Items {
		if err := c.Items[i].Validate(); err != nil {
			return nil, fmt.Errorf("render capsule %s: %w", c.ID, err)
		}
	}

	var htmlB, textB strings.Builder
	out := &RenderedContent{}

	htmlB.WriteString("<h1>" + html.EscapeString(c.Title) + "</h1>\n")
	textB.WriteString(c.Title + "\n\n")

	if c.Body != "" {
		htmlB.WriteString("<p>" + html.EscapeString(c.Body) + "</p>\n")
		textB.WriteString(c.Body + "\n\n")
	}

	// Items идут в порядке position (репозиторий отдаёт их отсортированными).
	for i := range c.Items {
		r.renderItem(&c.Items[i], &htmlB, &textB, out)
	}

	viewURL := r.siteURL + "/capsules/view/" + c.ViewToken
	htmlB.WriteString("<p><a href=\"" + html.EscapeString(viewURL) + "\">Open this capsule in your browser</a></p>\n")
	textB.WriteString("Open this capsule in your browser: " + viewURL + "\n")

	out.HTML = htmlB.String()
	out.Text = textB.String()
	return out, nil
}

func (r *Renderer) renderItem(it *model.CapsuleItem, htmlB, textB *strings.Builder, out *RenderedContent) {
	switch it.Kind {
	case model.ItemKindText:
		htmlB.WriteString("<p>" + html.EscapeString(it.Text) + "</p>\n")
		textB.WriteString(it.Text + "\n")

	case model.ItemKindImage, model.ItemKindGIF:
		cid := r.newCID()
		name := path.Base(it.FileKey)
		htmlB.WriteString("<img src=\"cid:" + cid + "\" alt=\"" + html.EscapeString(name) + "\">\n")
		textB.WriteString("[attached image: " + name + "]\n")
		out.Refs = append(out.Refs, AttachmentRef{ContentID: cid, Item: *it, Inline: true})

	case model.ItemKindVideo:
		videoURL := r.siteURL + "/media/" + it.FileKey
		htmlB.WriteString("<p><a href=\"" + html.EscapeString(videoURL) + "\">Watch the video</a></p>\n")
		if it.ThumbKey != "" {
			cid := r.newCID()
			htmlB.WriteString("<img src=\"cid:" + cid + "\" alt=\"video preview\">\n")
			out.Refs = append(out.Refs, AttachmentRef{ContentID: cid, Item: *it, Inline: true})
		}
		textB.WriteString("[video: " + videoURL + "]\n")

	case model.ItemKindAudio:
		// Аудио не встраивается в тело — идёт обычным вложением.
		name := path.Base(it.FileKey)
		htmlB.WriteString("<p>[attached audio: " + html.EscapeString(name) + "]</p>\n")
		textB.WriteString("[attached audio: " + name + "]\n")
		out.Refs = append(out.Refs, AttachmentRef{Item: *it, Inline: false})

	case model.ItemKindMusicLink:
		// URL уходит в атрибут href: кавычка в необработанном URL
		// разорвала бы атрибут.
		htmlB.WriteString("<p><a href=\"" + html.EscapeString(it.URL) + "\">Listen to the track</a></p>\n")
		textB.WriteString("Listen: " + it.URL + "\n")
	}
}
