package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bulk-buddy-api/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterInput carries a new account. Everyone signs up as a shopper;
// driver status comes from an approved application.
type RegisterInput struct {
	Email         string
	Password      string
	FirstName     string
	LastName      string
	AddressStreet string
	AddressCity   string
	AddressState  string
	AddressZip    string
	Latitude      *float64
	Longitude     *float64
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterUser hashes the password and stores a new shopper
func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)

	var existing models.User
	err := s.db(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:         email,
		PasswordHash:  string(hash),
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Role:          models.RoleShopper,
		AddressStreet: in.AddressStreet,
		AddressCity:   in.AddressCity,
		AddressState:  in.AddressState,
		AddressZip:    in.AddressZip,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
	}
	if err := s.db(ctx).Create(&user).Error; err != nil {
		// lost a race with a concurrent registration
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate checks an email/password pair
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	if err := s.db(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *Service) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

// ListUsers returns all users, optionally only those with the given role
func (s *Service) ListUsers(ctx context.Context, role models.UserRole) ([]models.User, error) {
	query := s.db(ctx).Order("id asc")
	if role != "" {
		query = query.Where("role = ?", role)
	}
	var users []models.User
	err := query.Find(&users).Error
	return users, err
}
