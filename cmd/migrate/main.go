package main

import (
	"errors"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"affiliate-platform/internal/config"
	"affiliate-platform/internal/database"
	"affiliate-platform/internal/models"
)

// Runs schema migrations standalone and, when ADMIN_EMAIL/ADMIN_PASSWORD
// are set, seeds the initial admin account.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	db := database.GetDB()

	var existing models.User
	err = db.Where("email = ?", adminEmail).First(&existing).Error
	if err == nil {
		log.Printf("Admin %s already exists, skipping seed", adminEmail)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Failed to check for admin: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	admin := models.User{
		Name:     "Administrator",
		Email:    adminEmail,
		Password: string(hash),
		Role:     models.RoleAdmin,
		Status:   models.UserStatusActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	log.Printf("Seeded admin account %s (id=%d)", admin.Email, admin.ID)
}
