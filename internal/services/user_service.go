package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"affiliate-platform/internal/models"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		db: db,
	}
}

// Register creates a new affiliate account in pending status. Admin approval
// moves it to active.
func (s *UserService) Register(name, email, password string) (*models.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Name:     name,
		Email:    strings.ToLower(email),
		Password: string(hash),
		Role:     models.RoleAffiliate,
		Status:   models.UserStatusPending,
	}

	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("Registered affiliate %s (id=%d)", user.Email, user.ID)
	return &user, nil
}

// Authenticate checks credentials and returns the account.
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// GetUser loads an account by id.
func (s *UserService) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListAffiliates returns every affiliate account, newest first.
func (s *UserService) ListAffiliates() ([]models.User, error) {
	var users []models.User
	if err := s.db.Where("role = ?", models.RoleAffiliate).
		Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// SetStatus approves, suspends or deactivates an affiliate. Admin only.
// Accounts are never hard-deleted.
func (s *UserService) SetStatus(userID uint, status string, actor *models.User) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	switch status {
	case models.UserStatusPending, models.UserStatusActive, models.UserStatusSuspended, models.UserStatusInactive:
	default:
		return nil, ErrInvalidStatus
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("status", status).Error; err != nil {
			return err
		}
		return recordAudit(tx, &actor.ID, "UPDATE_USER_STATUS", "User", &userID, models.JSONB{
			"status": status,
		}, "")
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetCommissionRate updates an affiliate's base rate. The snapshot on
// existing commissions is untouched; only future sales use the new rate.
// Admin only.
func (s *UserService) SetCommissionRate(userID uint, rate decimal.Decimal, actor *models.User) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrInvalidAmount
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("commission_rate", rate).Error; err != nil {
			return err
		}
		return recordAudit(tx, &actor.ID, "UPDATE_COMMISSION_RATE", "User", &userID, models.JSONB{
			"commission_rate": rate.String(),
		}, "")
	})
	if err != nil {
		return nil, err
	}

	user.CommissionRate = &rate
	return user, nil
}
