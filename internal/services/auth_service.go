// Package services – AuthService
//
// AuthService owns registration, login and refresh. Passwords are hashed with
// bcrypt; emails are trimmed and case-folded before every lookup so that the
// unique index on users.email sees a single canonical form.
package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/LulDrako/playmarket-docker/internal/auth"
	"github.com/LulDrako/playmarket-docker/internal/domain"
	"github.com/LulDrako/playmarket-docker/internal/repo"
)

// UserRepo defines the credential store contract required by AuthService.
type UserRepo interface {
	CreateUser(ctx context.Context, db *gorm.DB, email, passwordHash, name string, role domain.Role) (*domain.User, error)
	FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)
	GetUser(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error)
}

// TokenIssuer signs token pairs and verifies refresh tokens.
type TokenIssuer interface {
	IssuePair(p auth.Principal) (auth.TokenPair, error)
	VerifyRefresh(raw string) (*auth.Claims, error)
}

// Session is the outcome of a successful authentication.
type Session struct {
	User   *domain.User
	Tokens auth.TokenPair
}

// AuthService implements the session lifecycle.
type AuthService struct {
	DB         *gorm.DB
	Repo       UserRepo
	Tokens     TokenIssuer
	BcryptCost int
}

// NewAuthService constructs an AuthService; a zero cost selects bcrypt.DefaultCost.
func NewAuthService(db *gorm.DB, r UserRepo, tokens TokenIssuer, cost int) *AuthService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{DB: db, Repo: r, Tokens: tokens, BcryptCost: cost}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}

// Register validates the input, stores a new user and opens a session.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	ctx, span := otel.Tracer("services/AuthService").Start(ctx, "Register")
	defer span.End()

	in.Email = NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	role := domain.RoleUser
	if in.Role != "" {
		r, err := domain.ParseRole(in.Role)
		if err != nil {
			return nil, invalid("role", "must be one of: user, admin")
		}
		role = r
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.BcryptCost)
	if err != nil {
		return nil, err
	}

	u, err := s.Repo.CreateUser(ctx, s.DB, in.Email, string(hash), in.Name, role)
	if err != nil {
		if repo.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int64("user.id", u.ID))
	return s.open(u)
}

// Login checks the credentials and opens a session. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	ctx, span := otel.Tracer("services/AuthService").Start(ctx, "Login")
	defer span.End()

	in.Email = NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	u, err := s.Repo.FindUserByEmail(ctx, s.DB, in.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.open(u)
}

// Refresh verifies a refresh token and issues a new pair for the current
// state of the user row (role or email may have changed since issuance).
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	ctx, span := otel.Tracer("services/AuthService").Start(ctx, "Refresh")
	defer span.End()

	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	span.SetAttributes(attribute.Int64("user.id", claims.UserID))

	u, err := s.Repo.GetUser(ctx, s.DB, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.open(u)
}

func (s *AuthService) open(u *domain.User) (*Session, error) {
	pair, err := s.Tokens.IssuePair(auth.PrincipalOf(u))
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Tokens: pair}, nil
}

