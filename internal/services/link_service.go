package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"net/url"
	"regexp"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"affiliate-platform/internal/models"
)

var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,100}$`)

type LinkService struct {
	db *gorm.DB
}

func NewLinkService(db *gorm.DB) *LinkService {
	return &LinkService{
		db: db,
	}
}

// CreateLink creates a tracked link for an affiliate. Slug uniqueness is
// enforced by the unique index, not a prior lookup, so a losing racer fails
// cleanly without mutating state. An empty slug gets a generated one.
func (s *LinkService) CreateLink(affiliateID uint, name, slug, destination string, rate *decimal.Decimal) (*models.Link, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingFields)
	}

	parsed, err := url.ParseRequestURI(destination)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, ErrInvalidURL
	}

	if slug == "" {
		slug, err = s.generateSlug()
		if err != nil {
			return nil, err
		}
	}
	if !slugPattern.MatchString(slug) {
		return nil, ErrInvalidSlug
	}

	link := models.Link{
		AffiliateID:    affiliateID,
		Name:           name,
		Slug:           slug,
		URL:            destination,
		CommissionRate: rate,
		Status:         models.LinkStatusActive,
	}

	if err := s.db.Create(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	log.Printf("Created link %s for affiliate %d", slug, affiliateID)
	return &link, nil
}

// generateSlug produces a random 8-character base58 slug.
func (s *LinkService) generateSlug() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	code := base58.Encode(b)
	if len(code) > 8 {
		code = code[:8]
	}
	return code, nil
}

// FindActiveLinkBySlug resolves a slug to its active link. Inactive links
// behave exactly like missing ones.
func (s *LinkService) FindActiveLinkBySlug(slug string) (*models.Link, error) {
	var link models.Link
	err := s.db.Where("slug = ? AND status = ?", slug, models.LinkStatusActive).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

// ListLinks returns an affiliate's links, or every link for admins.
func (s *LinkService) ListLinks(affiliateID uint, isAdmin bool) ([]models.Link, error) {
	var links []models.Link
	query := s.db.Order("created_at DESC")
	if !isAdmin {
		query = query.Where("affiliate_id = ?", affiliateID)
	}
	if err := query.Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// UpdateLinkStatus activates or deactivates a link. Historical commissions
// and click events are untouched.
func (s *LinkService) UpdateLinkStatus(linkID uint, status string) (*models.Link, error) {
	if status != models.LinkStatusActive && status != models.LinkStatusInactive {
		return nil, ErrInvalidStatus
	}

	var link models.Link
	if err := s.db.First(&link, linkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	if err := s.db.Model(&link).Update("status", status).Error; err != nil {
		return nil, err
	}
	return &link, nil
}
