package model

import "time"

// 自動では片付かなかった決済まわりの異常の種類
type AnomalyKind string

const (
	// プロバイダ側にセッションだけ残り、こちらの記録が書けなかった
	AnomalyOrphanedSession AnomalyKind = "orphaned_session"

	// プロバイダの請求額と記録した合計がずれていた
	AnomalyTotalMismatch AnomalyKind = "total_mismatch"
)

// 手動または後追いで確認するための異常記録。
type CheckoutAnomaly struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind      AnomalyKind `gorm:"type:varchar(50);not null;index" json:"kind"`
	SessionID string      `gorm:"type:varchar(255);not null;index" json:"session_id"`
	UserID    int64       `gorm:"not null;index" json:"user_id"`
	Detail    string      `gorm:"type:text" json:"detail"`
	CreatedAt time.Time   `gorm:"not null;index" json:"created_at"`
}
