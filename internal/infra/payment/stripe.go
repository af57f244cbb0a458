package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"storefront/internal/usecase"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Stripe Checkoutでセッションを作る/失効させる
type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeProvider{api: sc}
}

// 接続先を差し替える（テストやstripe-mock向け）
func NewStripeProviderWithBackend(secretKey string, backend stripe.Backend) *StripeProvider {
	sc := &client.API{}
	sc.Init(secretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return &StripeProvider{api: sc}
}

func (p *StripeProvider) CreateSession(ctx context.Context, req usecase.SessionRequest) (usecase.ProviderSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		ClientReferenceID:  stripe.String(req.Reference),
		LineItems:          make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Lines)),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	for _, l := range req.Lines {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(l.Name),
		}
		// 空のdescriptionはStripeが拒否する
		if strings.TrimSpace(l.Description) != "" {
			product.Description = stripe.String(l.Description)
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(l.UnitAmount),
			},
			Quantity: stripe.Int64(l.Quantity),
		})
	}

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	//値引きは1回限りのクーポンにして合計から引く（0円ならno_payment_requiredになる）
	var couponID string
	if req.Discount > 0 {
		id, err := p.createCoupon(ctx, req)
		if err != nil {
			return usecase.ProviderSession{}, err
		}
		couponID = id
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(couponID)},
		}
	}

	params.Context = ctx
	params.SetIdempotencyKey(req.Reference)

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		if couponID != "" {
			p.deleteCoupon(couponID)
		}
		return usecase.ProviderSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return usecase.ProviderSession{ID: s.ID, URL: s.URL}, nil
}

// クーポン名の上限
const couponNameMax = 40

func (p *StripeProvider) createCoupon(ctx context.Context, req usecase.SessionRequest) (string, error) {
	params := &stripe.CouponParams{
		AmountOff:      stripe.Int64(req.Discount),
		Currency:       stripe.String(req.Currency),
		Duration:       stripe.String(string(stripe.CouponDurationOnce)),
		MaxRedemptions: stripe.Int64(1),
	}
	if name := truncateRunes(strings.TrimSpace(req.DiscountName), couponNameMax); name != "" {
		params.Name = stripe.String(name)
	}
	params.AddMetadata("reference", req.Reference)
	params.Context = ctx
	params.SetIdempotencyKey(req.Reference + ":coupon")

	c, err := p.api.Coupons.New(params)
	if err != nil {
		return "", fmt.Errorf("create coupon: %w", err)
	}
	return c.ID, nil
}

// 失敗しても使われないクーポンが残るだけなので結果は見ない
func (p *StripeProvider) deleteCoupon(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	params := &stripe.CouponParams{}
	params.Context = ctx
	_, _ = p.api.Coupons.Del(id, params)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (p *StripeProvider) ExpireSession(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx

	if _, err := p.api.CheckoutSessions.Expire(sessionID, params); err != nil {
		return fmt.Errorf("expire checkout session %s: %w", sessionID, err)
	}
	return nil
}

// Stripe-Signatureヘッダを検証してイベントに変換する
type StripeVerifier struct {
	secret string
}

func NewStripeVerifier(webhookSecret string) *StripeVerifier {
	return &StripeVerifier{secret: webhookSecret}
}

func (v *StripeVerifier) Verify(payload []byte, signature string) (usecase.PaymentEvent, error) {
	// ダッシュボード側のAPIバージョンに引きずられないようにする
	ev, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return usecase.PaymentEvent{}, err
	}

	out := usecase.PaymentEvent{
		ID:   ev.ID,
		Type: string(ev.Type),
	}
	if !strings.HasPrefix(out.Type, "checkout.session.") || ev.Data == nil {
		return out, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
		return usecase.PaymentEvent{}, fmt.Errorf("decode checkout session: %w", err)
	}
	out.SessionID = s.ID
	out.PaymentStatus = string(s.PaymentStatus)
	out.AmountTotal = s.AmountTotal
	out.Metadata = s.Metadata
	return out, nil
}
