package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an operator with this email already exists")
	ErrOperatorNotFound   = errors.New("operator not found")
)

type OperatorService struct {
	DB *gorm.DB
}

func (s *OperatorService) Create(ctx context.Context, input CreateOperatorInput) (*Operator, error) {
	hashed, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = RoleOperator
	}
	op := Operator{
		Name:     strings.TrimSpace(input.Name),
		Email:    normalizeEmail(input.Email),
		Password: hashed,
		Role:     role,
	}

	if err := s.DB.WithContext(ctx).Create(&op).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &op, nil
}

// Authenticate does not distinguish an unknown email from a wrong password.
func (s *OperatorService) Authenticate(ctx context.Context, email, password string) (*Operator, error) {
	var op Operator
	err := s.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&op).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := VerifyPassword(password, op.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &op, nil
}

func (s *OperatorService) GetByID(ctx context.Context, id uint) (*Operator, error) {
	var op Operator
	err := s.DB.WithContext(ctx).First(&op, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOperatorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (s *OperatorService) List(ctx context.Context) ([]Operator, error) {
	var ops []Operator
	if err := s.DB.WithContext(ctx).Order("name asc").Find(&ops).Error; err != nil {
		return nil, err
	}
	return ops, nil
}

// EnsureAdmin creates the first admin when the operators table is empty.
// It reports whether an account was created.
func (s *OperatorService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return false, nil
	}
	var count int64
	if err := s.DB.WithContext(ctx).Model(&Operator{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.Create(ctx, CreateOperatorInput{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		Role:     RoleAdmin,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
