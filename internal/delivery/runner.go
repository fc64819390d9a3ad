package delivery

import (
	"TimeCapsule/internal/blobstore"
	"TimeCapsule/internal/mail"
	"TimeCapsule/internal/model"
	"TimeCapsule/internal/repo"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Outcome — явный результат обработки одной капсулы за прогон.
type Outcome struct {
	CapsuleID string
	Result    model.DeliveryResult
	Reason    string // integrity | resolution | transport; пуст при успехе
	Err       error
}

// Runner — батч-пайплайн доставки: выбирает созревшие капсулы, для каждой
// собирает и отправляет письмо, фиксирует исход. Капсулы независимы:
// падение одной не прерывает прогон.
type Runner struct {
	capsules  repo.CapsuleRepository
	renderer  *Renderer
	resolver  *Resolver
	transport mail.Transport
	log       *zap.SugaredLogger

	from        string
	maxAttempts int // порог неудачных попыток, 0 — без порога

	now func() time.Time // подменяется в тестах
}

// NewRunner собирает раннер доставки.
func NewRunner(
	capsules repo.CapsuleRepository,
	renderer *Renderer,
	resolver *Resolver,
	transport mail.Transport,
	from string,
	maxAttempts int,
	log *zap.SugaredLogger,
) *Runner {
	return &Runner{
		capsules:    capsules,
		renderer:    renderer,
		resolver:    resolver,
		transport:   transport,
		log:         log,
		from:        from,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// RunDue обрабатывает все капсулы с deliver_on <= now в статусе pending.
// Ошибка возвращается только если не удалась запись статуса или журнала —
// молча потерять строку журнала после реальной отправки нельзя, поэтому
// такой сбой фатален для всего прогона.
func (r *Runner) RunDue(ctx context.Context) ([]Outcome, error) {
	now := r.now()
	capsules, err := r.capsules.FindDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("delivery: select due capsules: %w", err)
	}
	if len(capsules) == 0 {
		return nil, nil
	}
	r.log.Infow("delivery run started", "due", len(capsules), "now", now)

	outcomes := make([]Outcome, 0, len(capsules))
	for i := range capsules {
		// best-effort отмена: начатые капсулы дорабатывают, новые не берём
		if ctx.Err() != nil {
			return outcomes, ctx.Err()
		}

		c := &capsules[i]
		sendErr := r.deliverOne(ctx, c)
		if sendErr == nil {
			deliveredAt := r.now()
			if err := r.capsules.MarkDelivered(ctx, c.ID, deliveredAt); err != nil {
				return outcomes, fmt.Errorf("delivery: record delivery of capsule %s: %w", c.ID, err)
			}
			r.log.Infow("capsule delivered", "capsule_id", c.ID, "to", c.DeliveryEmail)
			outcomes = append(outcomes, Outcome{CapsuleID: c.ID, Result: model.DeliveryResultSent})
			continue
		}

		reason := classify(sendErr)
		r.log.Errorw("capsule delivery failed",
			"capsule_id", c.ID,
			"reason", reason,
			"error", sendErr,
		)
		if err := r.capsules.AppendDeliveryLog(ctx, c.ID, model.DeliveryResultFailed, r.now()); err != nil {
			return outcomes, fmt.Errorf("delivery: record failed attempt for capsule %s: %w", c.ID, err)
		}
		r.giveUpIfExhausted(ctx, c.ID)
		outcomes = append(outcomes, Outcome{
			CapsuleID: c.ID,
			Result:    model.DeliveryResultFailed,
			Reason:    reason,
			Err:       sendErr,
		})
	}
	return outcomes, nil
}

// deliverOne собирает и отправляет письмо одной капсулы.
//
// Отправка происходит вне транзакции фиксации статуса: отозвать письмо
// нельзя. Падение между отправкой и MarkDelivered означает повторную
// отправку в следующем прогоне — осознанный at-least-once, не баг.
func (r *Runner) deliverOne(ctx context.Context, c *model.Capsule) error {
	content, err := r.renderer.Render(c)
	if err != nil {
		return err
	}
	atts, err := r.resolver.Resolve(ctx, content.Refs)
	if err != nil {
		return err
	}

	msg := &mail.Message{
		From:        r.from,
		To:          c.DeliveryEmail,
		Subject:     Subject(c),
		Text:        content.Text,
		HTML:        content.HTML,
		Attachments: atts,
	}
	return r.transport.Send(ctx, msg)
}

// giveUpIfExhausted переводит капсулу в failed после maxAttempts неудач,
// чтобы заведомо недоставляемая капсула не выбиралась вечно. Сбои здесь
// только логируются: строка журнала уже записана.
func (r *Runner) giveUpIfExhausted(ctx context.Context, capsuleID string) {
	if r.maxAttempts <= 0 {
		return
	}
	n, err := r.capsules.CountFailedAttempts(ctx, capsuleID)
	if err != nil {
		r.log.Warnw("failed to count delivery attempts", "capsule_id", capsuleID, "error", err)
		return
	}
	if n < int64(r.maxAttempts) {
		return
	}
	if err := r.capsules.MarkFailed(ctx, capsuleID); err != nil && !errors.Is(err, repo.ErrCapsuleNotPending) {
		r.log.Warnw("failed to mark capsule failed", "capsule_id", capsuleID, "error", err)
		return
	}
	r.log.Infow("capsule gave up after max attempts", "capsule_id", capsuleID, "attempts", n)
}

// Subject — тема письма капсулы.
func Subject(c *model.Capsule) string {
	return fmt.Sprintf("Your time capsule from %s has arrived: %s",
		c.CreatedAt.Format("January 2 2006"), c.Title)
}

// classify относит ошибку доставки к таксономии: целостность данных,
// разрешение блоба или транспорт.
func classify(err error) string {
	switch {
	case errors.Is(err, model.ErrPayloadMismatch):
		return "integrity"
	case errors.Is(err, blobstore.ErrNotFound):
		return "resolution"
	default:
		return "transport"
	}
}
