package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 管理者向け。自動で片付かなかった決済の確認用。
type AnomalyUsecase struct {
	anomalies repo.CheckoutAnomalyRepository
}

func NewAnomalyUsecase(anomalies repo.CheckoutAnomalyRepository) *AnomalyUsecase {
	return &AnomalyUsecase{anomalies: anomalies}
}

// クエリ文字列そのまま（空は未指定）
type AnomalyListInput struct {
	Kind      string
	SessionID string
	From      string
	To        string
	Limit     int
	Offset    int
}

func (u *AnomalyUsecase) List(ctx context.Context, in AnomalyListInput) ([]model.CheckoutAnomaly, error) {
	if in.Limit < 0 || in.Limit > 200 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}

	f := repo.AnomalyFilter{
		SessionID: strings.TrimSpace(in.SessionID),
		Limit:     in.Limit,
		Offset:    in.Offset,
	}

	if k := strings.TrimSpace(in.Kind); k != "" {
		kind := model.AnomalyKind(k)
		switch kind {
		case model.AnomalyOrphanedSession, model.AnomalyTotalMismatch:
		default:
			return nil, NewHTTPError(http.StatusBadRequest, "invalid kind")
		}
		f.Kind = &kind
	}

	// 日時はRFC3339
	if in.From != "" {
		t, err := time.Parse(time.RFC3339, in.From)
		if err != nil {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid from")
		}
		f.CreatedFrom = &t
	}
	if in.To != "" {
		t, err := time.Parse(time.RFC3339, in.To)
		if err != nil {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid to")
		}
		f.CreatedTo = &t
	}

	list, err := u.anomalies.List(ctx, f)
	if err != nil {
		return nil, errDB()
	}
	if list == nil {
		list = []model.CheckoutAnomaly{}
	}
	return list, nil
}
