package handlers

import (
	"TimeCapsule/internal/config"
	"TimeCapsule/internal/middleware"
	"TimeCapsule/internal/model"
	"TimeCapsule/internal/service"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Предел на одну загрузку файла элемента.
const maxUploadBytes = 64 << 20

// CapsuleHandler обрабатывает CRUD капсул и загрузку элементов.
type CapsuleHandler struct {
	Capsules *service.CapsuleService
	Logger   *zap.SugaredLogger
	Config   *config.Config
}

func NewCapsuleHandler(capsules *service.CapsuleService, logger *zap.SugaredLogger, cfg *config.Config) *CapsuleHandler {
	return &CapsuleHandler{Capsules: capsules, Logger: logger, Config: cfg}
}

type createCapsuleRequest struct {
	Title         string    `json:"title"`
	Body          string    `json:"body,omitempty"`
	DeliverOn     time.Time `json:"deliver_on"`
	DeliveryEmail string    `json:"delivery_email,omitempty"`
}

type capsuleItemResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Text       string    `json:"text,omitempty"`
	URL        string    `json:"url,omitempty"`
	MimeType   string    `json:"mime_type,omitempty"`
	Size       int64     `json:"size_in_bytes,omitempty"`
	Position   int       `json:"position"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type capsuleResponse struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Body          string                `json:"body,omitempty"`
	DeliveryEmail string                `json:"delivery_email"`
	DeliverOn     time.Time             `json:"deliver_on"`
	DeliveredAt   *time.Time            `json:"delivered_at,omitempty"`
	Status        string                `json:"status"`
	ViewToken     string                `json:"view_token,omitempty"`
	Items         []capsuleItemResponse `json:"items,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

func toCapsuleResponse(c *model.Capsule, withToken bool) capsuleResponse {
	resp := capsuleResponse{
		ID:            c.ID,
		Title:         c.Title,
		Body:          c.Body,
		DeliveryEmail: c.DeliveryEmail,
		DeliverOn:     c.DeliverOn,
		DeliveredAt:   c.DeliveredAt,
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
	}
	if withToken {
		resp.ViewToken = c.ViewToken
	}
	for i := range c.Items {
		it := &c.Items[i]
		resp.Items = append(resp.Items, capsuleItemResponse{
			ID:         it.ID,
			Kind:       string(it.Kind),
			Text:       it.Text,
			URL:        it.URL,
			MimeType:   it.MimeType,
			Size:       it.SizeInBytes,
			Position:   it.Position,
			UploadedAt: it.UploadedAt,
		})
	}
	return resp
}

func (h *CapsuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createCapsuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	c, err := h.Capsules.Create(r.Context(), uid, service.CreateCapsuleInput{
		Title:         req.Title,
		Body:          req.Body,
		DeliverOn:     req.DeliverOn,
		DeliveryEmail: req.DeliveryEmail,
	})
	if errors.Is(err, service.ErrDeliverOnPast) || errors.Is(err, service.ErrInvalidItem) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.Logger.Errorw("capsule create failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toCapsuleResponse(c, true))
}

func (h *CapsuleHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	cs, err := h.Capsules.List(r.Context(), uid)
	if err != nil {
		h.Logger.Errorw("capsule list failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	resp := make([]capsuleResponse, 0, len(cs))
	for i := range cs {
		resp = append(resp, toCapsuleResponse(&cs[i], false))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CapsuleHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	c, err := h.Capsules.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if errors.Is(err, service.ErrCapsuleNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Errorw("capsule get failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toCapsuleResponse(c, true))
}

// View — просмотр капсулы по токену из письма, аутентификация не нужна.
func (h *CapsuleHandler) View(w http.ResponseWriter, r *http.Request) {
	c, err := h.Capsules.GetByViewToken(r.Context(), chi.URLParam(r, "token"))
	if errors.Is(err, service.ErrCapsuleNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Errorw("capsule view failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toCapsuleResponse(c, false))
}

func (h *CapsuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	err := h.Capsules.Delete(r.Context(), uid, chi.URLParam(r, "id"))
	if errors.Is(err, service.ErrCapsuleNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Errorw("capsule delete failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem принимает multipart/form-data: kind + text | url | file (+thumb).
func (h *CapsuleHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	in := service.AddItemInput{
		Kind:     model.ItemKind(r.FormValue("kind")),
		Text:     r.FormValue("text"),
		URL:      r.FormValue("url"),
		Position: -1,
	}
	if p := r.FormValue("position"); p != "" {
		pos, err := strconv.Atoi(p)
		if err != nil || pos < 0 {
			http.Error(w, "bad position", http.StatusBadRequest)
			return
		}
		in.Position = pos
	}

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	if f, fh, err := formFile(r, "file"); err == nil {
		closers = append(closers, f)
		in.File = f
		in.Filename = fh.Filename
	}
	if f, fh, err := formFile(r, "thumb"); err == nil {
		closers = append(closers, f)
		in.Thumb = f
		in.ThumbName = fh.Filename
	}

	it, err := h.Capsules.AddItem(r.Context(), uid, chi.URLParam(r, "id"), in)
	switch {
	case errors.Is(err, service.ErrCapsuleNotFound):
		http.Error(w, "not found", http.StatusNotFound)
		return
	case errors.Is(err, service.ErrCapsuleSealed), errors.Is(err, service.ErrPositionTaken):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, service.ErrInvalidItem):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.Logger.Errorw("capsule item add failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, capsuleItemResponse{
		ID:         it.ID,
		Kind:       string(it.Kind),
		Text:       it.Text,
		URL:        it.URL,
		MimeType:   it.MimeType,
		Size:       it.SizeInBytes,
		Position:   it.Position,
		UploadedAt: it.UploadedAt,
	})
}

func (h *CapsuleHandler) Logs(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	logs, err := h.Capsules.Logs(r.Context(), uid, chi.URLParam(r, "id"))
	if errors.Is(err, service.ErrCapsuleNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Errorw("capsule logs failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	type logResponse struct {
		ID          string    `json:"id"`
		AttemptedAt time.Time `json:"attempted_at"`
		Result      string    `json:"result"`
	}
	resp := make([]logResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, logResponse{ID: l.ID, AttemptedAt: l.AttemptedAt, Result: string(l.Result)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	f, fh, err := r.FormFile(field)
	if err != nil {
		return nil, nil, err
	}
	return f, fh, nil
}
