package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"p9e.in/logibook/models"
	"p9e.in/logibook/pkg/rateengine"
)

// RunAllSeeding creates the super admin and the default fuel surcharges.
// Existing rows are left alone, so it is safe to run repeatedly.
func RunAllSeeding() error {
	Log.Info("seeding started")
	if err := SeedSuperAdmin(DB, Env.SuperAdminUser, Env.SuperAdminPass); err != nil {
		return fmt.Errorf("seed super admin: %w", err)
	}
	if err := SeedFuelSurcharges(DB, rateengine.DefaultRateCard(), time.Now()); err != nil {
		return fmt.Errorf("seed fuel surcharges: %w", err)
	}
	Log.Info("seeding complete")
	return nil
}

// SeedSuperAdmin creates the super admin account when it does not exist.
func SeedSuperAdmin(db *gorm.DB, email, password string) error {
	if password == "" {
		Log.Warn("SUPER_ADMIN_PASSWORD not set, skipping super admin")
		return nil
	}
	var existing models.Admin
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		Log.Info("super admin already exists", zap.String("email", email))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.Admin{
		Name:         "Super Admin",
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.AdminRoleSuper,
		Permissions:  []string{"*"},
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	Log.Info("super admin created", zap.String("email", email))
	return nil
}

// SeedFuelSurcharges records the card's fuel percentage for every vendor that
// has no surcharge yet.
func SeedFuelSurcharges(db *gorm.DB, card rateengine.RateCard, from time.Time) error {
	for _, v := range card.Vendors {
		var count int64
		if err := db.Model(&models.FuelSurcharge{}).Where("vendor_code = ?", v.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		fs := models.FuelSurcharge{
			VendorCode:    v.Code,
			Percentage:    card.FuelSurchargePct,
			EffectiveFrom: models.JSONTime(from.Truncate(24 * time.Hour)),
			IsActive:      true,
		}
		if err := db.Create(&fs).Error; err != nil {
			return err
		}
		Log.Info("fuel surcharge seeded", zap.String("vendor", v.Code), zap.Float64("pct", fs.Percentage))
	}
	return nil
}
