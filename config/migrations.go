package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"p9e.in/logibook/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "01102026_create_accounts",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.User{}, &models.Admin{}, &models.OTPCode{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("otp_codes", "admins", "users")
			},
		},
		{
			ID: "01102026_create_bookings",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Booking{}, &models.WalletTransaction{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("wallet_transactions", "bookings")
			},
		},
		{
			ID: "05102026_add_msme_and_fuel_surcharges",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.MSMERegistration{}, &models.FuelSurcharge{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("fuel_surcharges", "msme_registrations")
			},
		},
		{
			ID: "12102026_booking_list_indexes",
			Migrate: func(tx *gorm.DB) error {
				stmts := []string{
					"CREATE INDEX IF NOT EXISTS idx_bookings_user_created ON bookings(user_id, created_at DESC)",
					"CREATE INDEX IF NOT EXISTS idx_wallet_tx_user_created ON wallet_transactions(user_id, created_at DESC)",
					"ALTER TABLE users ADD CONSTRAINT chk_users_wallet_non_negative CHECK (wallet_balance >= 0)",
				}
				for _, s := range stmts {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("ALTER TABLE users DROP CONSTRAINT IF EXISTS chk_users_wallet_non_negative").Error
			},
		},
	})
	return m.Migrate()
}
