package services

import (
	"context"
	"strings"

	"github.com/meetup-planner/app/internal/models"
	"github.com/meetup-planner/app/internal/repository"
	appErr "github.com/meetup-planner/app/pkg/errors"
	"github.com/meetup-planner/app/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

const maxPasswordBytes = 72

type authService struct {
	userRepo repository.UserRepository
	cost     int
}

// NewAuthService returns an AuthService hashing with the given bcrypt cost.
// A cost of zero means bcrypt.DefaultCost.
func NewAuthService(userRepo repository.UserRepository, cost int) AuthService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &authService{userRepo: userRepo, cost: cost}
}

var _ AuthService = (*authService)(nil)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" || password == "" {
		return nil, appErr.Invalid("Email, name and password are required.")
	}
	// bcrypt rejects inputs longer than 72 bytes.
	if len(password) > maxPasswordBytes {
		return nil, appErr.Invalid("The password must be at most 72 bytes.")
	}

	ph, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "hash password failed")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(ph),
		Name:         name,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.L().Info("user registered", zap.Uint("user_id", user.ID))
	return user, nil
}

func (s *authService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	invalid := appErr.New(appErr.CodeUnauthorized, "Invalid email or password")

	var user models.User
	if err := s.userRepo.GetByEmail(ctx, normalizeEmail(email), &user); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, invalid
	}
	return &user, nil
}

func (s *authService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.userRepo.GetByID(ctx, id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
