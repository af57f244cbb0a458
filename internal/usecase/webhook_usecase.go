package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/monitoring"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type WebhookOutcome string

const (
	OutcomeReconciled       WebhookOutcome = "reconciled"
	OutcomeAlreadyProcessed WebhookOutcome = "already_processed"
	OutcomeAbandoned        WebhookOutcome = "abandoned"
	OutcomeAwaitingPayment  WebhookOutcome = "awaiting_payment"
	OutcomeIgnored          WebhookOutcome = "ignored"
)

type WebhookResult struct {
	Outcome   WebhookOutcome `json:"outcome"`
	SessionID string         `json:"session_id,omitempty"`
	OrderIDs  []int64        `json:"order_ids,omitempty"`
}

// WebhookUsecaseは署名済みの決済イベントだけを信頼して注文を確定する。
// 同じイベントが何度届いても注文は一度しか作らない。
type WebhookUsecase struct {
	verifier         EventVerifier
	tx               repo.TransactionManager
	pending          repo.PendingCheckoutRepository
	anomalies        repo.CheckoutAnomalyRepository
	reconcileTimeout time.Duration
	clock            Clock
	log              zerolog.Logger
}

func NewWebhookUsecase(
	verifier EventVerifier,
	tx repo.TransactionManager,
	pending repo.PendingCheckoutRepository,
	anomalies repo.CheckoutAnomalyRepository,
	reconcileTimeout time.Duration,
	clock Clock,
	logger zerolog.Logger,
) *WebhookUsecase {
	if clock == nil {
		clock = SystemClock()
	}
	return &WebhookUsecase{
		verifier:         verifier,
		tx:               tx,
		pending:          pending,
		anomalies:        anomalies,
		reconcileTimeout: reconcileTimeout,
		clock:            clock,
		log:              logger.With().Str("usecase", "webhook").Logger(),
	}
}

func (u *WebhookUsecase) Handle(ctx context.Context, payload []byte, signature string) (WebhookResult, error) {
	ev, err := u.verifier.Verify(payload, signature)
	if err != nil {
		//DBには触らない
		u.log.Warn().Err(err).
			Str("security_event", "webhook_signature_rejected").
			Int("payload_bytes", len(payload)).
			Msg("webhook signature verification failed")
		monitoring.RecordWebhook("invalid_signature")
		return WebhookResult{}, wrapHTTPError(http.StatusBadRequest, ErrInvalidSignature)
	}

	res, err := u.dispatch(ctx, ev)
	if err != nil {
		monitoring.RecordWebhook("error")
		return WebhookResult{}, err
	}
	monitoring.RecordWebhook(string(res.Outcome))
	return res, nil
}

func (u *WebhookUsecase) dispatch(ctx context.Context, ev PaymentEvent) (WebhookResult, error) {
	log := u.log.With().
		Str("event_id", ev.ID).
		Str("event_type", ev.Type).
		Str("session_id", ev.SessionID).
		Logger()

	isSessionEvent := strings.HasPrefix(ev.Type, "checkout.session.")
	if isSessionEvent && ev.SessionID == "" {
		log.Warn().Msg("session event without session id, ignored")
		return WebhookResult{Outcome: OutcomeIgnored}, nil
	}

	switch ev.Type {
	case EventSessionCompleted:
		switch ev.PaymentStatus {
		case PaymentStatusPaid, PaymentStatusNoPaymentRequired:
			return u.reconcile(ctx, ev, log)
		case PaymentStatusUnpaid:
			//非同期決済の結果イベントを待つ
			log.Info().Msg("session completed but unpaid, waiting for async payment")
			return WebhookResult{Outcome: OutcomeAwaitingPayment, SessionID: ev.SessionID}, nil
		default:
			log.Warn().Str("payment_status", ev.PaymentStatus).Msg("unknown payment status, ignored")
			return WebhookResult{Outcome: OutcomeIgnored, SessionID: ev.SessionID}, nil
		}
	case EventSessionAsyncPaymentOK:
		return u.reconcile(ctx, ev, log)
	case EventSessionExpired, EventSessionAsyncPaymentFailed:
		return u.abandon(ctx, ev, log)
	default:
		log.Debug().Msg("unhandled event type, acknowledged")
		return WebhookResult{Outcome: OutcomeIgnored, SessionID: ev.SessionID}, nil
	}
}

// PendingCheckoutを行ロックして注文に変換する。
// 見つからなければ処理済み扱い（再送 or 同時実行の負け側）。
func (u *WebhookUsecase) reconcile(ctx context.Context, ev PaymentEvent, log zerolog.Logger) (WebhookResult, error) {
	rctx, cancel := context.WithTimeout(ctx, u.reconcileTimeout)
	defer cancel()

	var (
		pc       model.PendingCheckout
		found    bool
		orderIDs []int64
	)

	err := u.tx.WithinTx(rctx, func(r repo.TxRepos) error {
		found = false
		orderIDs = nil

		p, err := r.PendingCheckouts().FindForUpdate(rctx, ev.SessionID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("lock pending checkout: %w", err)
		}
		pc = p
		found = true

		//カート明細1件につき注文1件
		for _, line := range p.Lines {
			orderID, err := r.Orders().Create(rctx, model.Order{
				UserID:           p.UserID,
				TotalPrice:       line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity)),
				Status:           model.OrderStatusCompleted,
				PaymentSessionID: p.SessionID,
			})
			if err != nil {
				return fmt.Errorf("create order: %w", err)
			}
			items := []model.OrderItem{{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.UnitPrice,
			}}
			if err := r.OrderItems().CreateBulk(rctx, orderID, items); err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
			orderIDs = append(orderIDs, orderID)
		}

		//購入した数量だけカートから引く（後から追加・買い足した分は残す）
		purchased := make([]repo.PurchasedLine, 0, len(p.Lines))
		for _, line := range p.Lines {
			purchased = append(purchased, repo.PurchasedLine{CartItemID: line.CartItemID, Quantity: line.Quantity})
		}
		if err := r.CartItems().ConsumeForUser(rctx, p.UserID, purchased); err != nil {
			return fmt.Errorf("consume cart items: %w", err)
		}

		if p.DiscountCode != "" {
			err := r.DiscountCodes().IncrementUsedCount(rctx, p.DiscountCode)
			if errors.Is(err, repo.ErrNotFound) {
				log.Warn().Str("discount_code", p.DiscountCode).Msg("discount code removed before payment confirmed")
			} else if err != nil {
				return fmt.Errorf("increment discount usage: %w", err)
			}
		}

		if _, err := r.PendingCheckouts().Delete(rctx, p.SessionID); err != nil {
			return fmt.Errorf("delete pending checkout: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("reconciliation rolled back")
		monitoring.RecordReconciliationError()
		return WebhookResult{}, wrapHTTPError(http.StatusInternalServerError, ErrReconciliation)
	}

	if !found {
		log.Info().Msg("no pending checkout, already processed")
		return WebhookResult{Outcome: OutcomeAlreadyProcessed, SessionID: ev.SessionID}, nil
	}

	monitoring.RecordOrdersCreated(len(orderIDs))
	log.Info().
		Int64("user_id", pc.UserID).
		Ints64("order_ids", orderIDs).
		Msg("checkout reconciled")

	u.checkTotal(ctx, ev, pc, log)

	return WebhookResult{Outcome: OutcomeReconciled, SessionID: ev.SessionID, OrderIDs: orderIDs}, nil
}

// コミット後の確認。ずれていてもwebhookは成功扱い。
func (u *WebhookUsecase) checkTotal(ctx context.Context, ev PaymentEvent, pc model.PendingCheckout, log zerolog.Logger) {
	expected := toMinor(pc.Total)
	if ev.AmountTotal == expected {
		return
	}

	log.Warn().
		Int64("provider_amount_total", ev.AmountTotal).
		Int64("recorded_total", expected).
		Msg("provider amount differs from recorded total")

	anomaly := model.CheckoutAnomaly{
		Kind:      model.AnomalyTotalMismatch,
		SessionID: pc.SessionID,
		UserID:    pc.UserID,
		Detail:    fmt.Sprintf("provider=%d recorded=%d currency=%s", ev.AmountTotal, expected, pc.Currency),
		CreatedAt: u.clock.Now(),
	}
	if err := u.anomalies.Create(context.WithoutCancel(ctx), anomaly); err != nil {
		log.Error().Err(err).Msg("failed to record total mismatch")
		return
	}
	monitoring.RecordAnomaly(string(model.AnomalyTotalMismatch))
}

// 期限切れ/決済失敗。カートはそのまま残す。
func (u *WebhookUsecase) abandon(ctx context.Context, ev PaymentEvent, log zerolog.Logger) (WebhookResult, error) {
	deleted, err := u.pending.Delete(ctx, ev.SessionID)
	if err != nil {
		log.Error().Err(err).Msg("failed to delete abandoned pending checkout")
		return WebhookResult{}, wrapHTTPError(http.StatusInternalServerError, ErrReconciliation)
	}
	log.Info().Bool("deleted", deleted).Msg("checkout abandoned")
	return WebhookResult{Outcome: OutcomeAbandoned, SessionID: ev.SessionID}, nil
}
