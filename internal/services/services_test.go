package services

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"affiliate-platform/internal/models"
)

// setupTestDB opens a named in-memory database so each test gets isolated
// state while holding a shared handle for its own duration.
func setupTestDB(t *testing.T, name string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Link{},
		&models.ClickEvent{},
		&models.Analytics{},
		&models.Commission{},
		&models.Payout{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

func createAffiliate(t *testing.T, db *gorm.DB, email string, rate *decimal.Decimal) *models.User {
	user := models.User{
		Name:           "Test Affiliate",
		Email:          email,
		Role:           models.RoleAffiliate,
		Status:         models.UserStatusActive,
		CommissionRate: rate,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create affiliate: %v", err)
	}
	return &user
}

func createAdmin(t *testing.T, db *gorm.DB, email string) *models.User {
	admin := models.User{
		Name:   "Test Admin",
		Email:  email,
		Role:   models.RoleAdmin,
		Status: models.UserStatusActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}
	return &admin
}

func createLink(t *testing.T, db *gorm.DB, affiliateID uint, slug string, rate *decimal.Decimal) *models.Link {
	link := models.Link{
		AffiliateID:    affiliateID,
		Name:           "Test Link",
		Slug:           slug,
		URL:            "https://example.com/product",
		CommissionRate: rate,
		Status:         models.LinkStatusActive,
	}
	if err := db.Create(&link).Error; err != nil {
		t.Fatalf("failed to create link: %v", err)
	}
	return &link
}

func ratePtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
