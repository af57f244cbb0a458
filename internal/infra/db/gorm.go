package db

import (
	"fmt"

	"storefront/internal/config"
	"storefront/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	return Open(DSN(cfg))
}

// DSN は DATABASE_URL があれば最優先で使う
func DSN(cfg config.Config) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresSSLMode,
	)
}

func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// Migrate はこのサービスが使うテーブルを作る
func Migrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Product{},
		&model.CartItem{},
		&model.DiscountCode{},
		&model.PendingCheckout{},
		&model.PendingCheckoutLine{},
		&model.Order{},
		&model.OrderItem{},
		&model.CheckoutAnomaly{},
	)
}
