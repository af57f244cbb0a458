package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/monitoring"
	repo "storefront/internal/repository"

	"github.com/rs/zerolog"
)

type CheckoutConfig struct {
	Currency        string
	SuccessURL      string
	CancelURL       string
	ProviderTimeout time.Duration
}

type CheckoutInput struct {
	DiscountCode string
}

type CheckoutOutput struct {
	URL       string `json:"url"`
	SessionID string `json:"-"`
}

// CheckoutUsecaseはカートから決済セッションを作り、
// webhookが参照するPendingCheckoutを保存してからURLを返す。
type CheckoutUsecase struct {
	builder   *CartSnapshotBuilder
	pending   repo.PendingCheckoutRepository
	anomalies repo.CheckoutAnomalyRepository
	provider  PaymentProvider
	ids       IDGenerator
	clock     Clock
	cfg       CheckoutConfig
	log       zerolog.Logger
}

func NewCheckoutUsecase(
	builder *CartSnapshotBuilder,
	pending repo.PendingCheckoutRepository,
	anomalies repo.CheckoutAnomalyRepository,
	provider PaymentProvider,
	ids IDGenerator,
	clock Clock,
	cfg CheckoutConfig,
	logger zerolog.Logger,
) *CheckoutUsecase {
	if ids == nil {
		ids = UUIDGenerator()
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &CheckoutUsecase{
		builder:   builder,
		pending:   pending,
		anomalies: anomalies,
		provider:  provider,
		ids:       ids,
		clock:     clock,
		cfg:       cfg,
		log:       logger.With().Str("usecase", "checkout").Logger(),
	}
}

func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (CheckoutOutput, error) {
	snap, err := u.builder.Build(ctx, userID, in.DiscountCode)
	if err != nil {
		monitoring.RecordCheckout("rejected")
		return CheckoutOutput{}, err
	}

	//参照番号はそのままプロバイダの冪等キーになる
	ref := u.ids.NewID()
	cartItemIDs := model.JoinIDs(snap.CartItemIDs())

	req := SessionRequest{
		Reference:     ref,
		Currency:      u.cfg.Currency,
		SuccessURL:    u.cfg.SuccessURL,
		CancelURL:     u.cfg.CancelURL,
		CustomerEmail: snap.CustomerEmail,
		Lines:         make([]SessionLineItem, 0, len(snap.Lines)),
		Metadata: map[string]string{
			"userId":      strconv.FormatInt(userID, 10),
			"cartItemIds": cartItemIDs,
		},
	}
	for _, l := range snap.Lines {
		req.Lines = append(req.Lines, SessionLineItem{
			Name:        l.Title,
			Description: l.Description,
			UnitAmount:  snap.UnitMinor(l),
			Quantity:    l.Quantity,
		})
	}
	//割引は単価に配らず注文全体の値引きとして渡す
	if d := snap.DiscountMinor(); d > 0 {
		req.Discount = d
		req.DiscountName = discountName(snap)
	}

	pctx, cancel := context.WithTimeout(ctx, u.cfg.ProviderTimeout)
	sess, err := u.provider.CreateSession(pctx, req)
	cancel()
	if err == nil && (sess.ID == "" || sess.URL == "") {
		err = fmt.Errorf("provider returned incomplete session")
	}
	if err != nil {
		u.log.Error().Err(err).
			Int64("user_id", userID).
			Str("reference", ref).
			Msg("failed to create payment session")
		monitoring.RecordCheckout("provider_error")
		return CheckoutOutput{}, wrapHTTPError(http.StatusBadGateway, ErrPaymentProvider)
	}

	pc := model.PendingCheckout{
		SessionID:    sess.ID,
		Reference:    ref,
		UserID:       userID,
		CartItemIDs:  cartItemIDs,
		DiscountCode: snap.DiscountCode,
		Total:        snap.Total,
		Currency:     u.cfg.Currency,
		Lines:        make([]model.PendingCheckoutLine, 0, len(snap.Lines)),
		CreatedAt:    snap.CapturedAt,
	}
	for i, l := range snap.Lines {
		pc.Lines = append(pc.Lines, model.PendingCheckoutLine{
			SessionID:  sess.ID,
			Position:   i,
			CartItemID: l.CartItemID,
			ProductID:  l.ProductID,
			Title:      l.Title,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
		})
	}

	//URLを返す前に必ず保存する（webhookが先に来ても見つかるように）
	if err := u.pending.Create(ctx, pc); err != nil {
		u.compensate(ctx, userID, sess.ID, err)
		monitoring.RecordCheckout("persist_error")
		return CheckoutOutput{}, wrapHTTPError(http.StatusInternalServerError, ErrPendingCheckoutPersist)
	}

	u.log.Info().
		Int64("user_id", userID).
		Str("session_id", sess.ID).
		Str("reference", ref).
		Str("total", snap.Total.StringFixed(2)).
		Msg("checkout session created")
	monitoring.RecordCheckout("created")

	return CheckoutOutput{URL: sess.URL, SessionID: sess.ID}, nil
}

// 保存に失敗したセッションを失効させる。失効もできなければ異常として記録する。
// リクエストがキャンセル済みでも実行する。
func (u *CheckoutUsecase) compensate(ctx context.Context, userID int64, sessionID string, persistErr error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.cfg.ProviderTimeout)
	defer cancel()

	expireErr := u.provider.ExpireSession(cctx, sessionID)
	if expireErr == nil {
		u.log.Error().Err(persistErr).
			Int64("user_id", userID).
			Str("session_id", sessionID).
			Msg("failed to save pending checkout, provider session expired")
		return
	}

	u.log.Error().Err(persistErr).
		AnErr("expire_error", expireErr).
		Int64("user_id", userID).
		Str("session_id", sessionID).
		Msg("failed to save pending checkout, provider session left open")

	anomaly := model.CheckoutAnomaly{
		Kind:      model.AnomalyOrphanedSession,
		SessionID: sessionID,
		UserID:    userID,
		Detail:    fmt.Sprintf("persist: %v; expire: %v", persistErr, expireErr),
		CreatedAt: u.clock.Now(),
	}
	if err := u.anomalies.Create(cctx, anomaly); err != nil {
		u.log.Error().Err(err).
			Str("session_id", sessionID).
			Msg("failed to record orphaned session")
		return
	}
	monitoring.RecordAnomaly(string(model.AnomalyOrphanedSession))
}

// 決済画面に出る値引き名
func discountName(snap CartSnapshot) string {
	parts := make([]string, 0, 2)
	if snap.DiscountCode != "" {
		parts = append(parts, snap.DiscountCode)
	}
	if snap.RoleDiscount.IsPositive() {
		parts = append(parts, "member discount")
	}
	if len(parts) == 0 {
		return "discount"
	}
	return strings.Join(parts, " + ")
}
