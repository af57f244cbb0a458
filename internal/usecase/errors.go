package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	//400 カートが空
	ErrEmptyCart = errors.New("cart is empty")
	//502 決済プロバイダが失敗/タイムアウト
	ErrPaymentProvider = errors.New("payment provider error")
	//400 webhook署名が不正
	ErrInvalidSignature = errors.New("invalid signature")
	//500 注文確定に失敗（プロバイダに再送させる）
	ErrReconciliation = errors.New("reconciliation failed")
	//500 セッションは作れたが記録を書けなかった
	ErrPendingCheckoutPersist = errors.New("pending checkout persist failed")
)

// Handlerがそのままステータスに変換するエラー
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

// errors.Isで判定できるように元のエラーを持たせる
func wrapHTTPError(status int, sentinel error) error {
	return &HTTPError{
		Status:  status,
		Message: sentinel.Error(),
		Err:     sentinel,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func errUnauthorized() error {
	return NewHTTPError(http.StatusUnauthorized, "unauthorized")
}

func errDB() error {
	return NewHTTPError(http.StatusInternalServerError, "db error")
}
