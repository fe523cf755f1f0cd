package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/internal/repository"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
	"github.com/noah-isme/placement-api/pkg/keylock"
)

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	BcryptCost        int
}

// AuthService resolves callers to accounts and issues access tokens.
type AuthService struct {
	*engine
	config AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(deps Dependencies, config AuthConfig) *AuthService {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{engine: newEngine(deps), config: config}
}

// HashPassword hashes a plain password with the configured cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login authenticates any account kind and returns an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (resp *models.LoginResponse, err error) {
	defer func() { err = s.observe("login", err) }()

	if err := s.validate(req, "invalid login payload"); err != nil {
		return nil, err
	}

	account, err := s.findAccount(ctx, req.UserID)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid user id or password")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash()), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid user id or password")
	}
	if account.Role == models.RoleRepresentative && !account.Representative.Approved {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "representative not approved")
	}

	token, issuedAt, err := s.generateAccessToken(account)
	if err != nil {
		return nil, appErrors.WithCause(appErrors.ErrInternal, err, "failed to create access token")
	}

	s.record(ctx, activity(account.ID(), account.Role, models.ActionLogin, account.ID(), "logged in"))

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		User:        account.Info(),
	}, nil
}

// RegisterRepresentative records a self-registration awaiting staff approval.
func (s *AuthService) RegisterRepresentative(ctx context.Context, req models.RegisterRepresentativeRequest) (rep *models.CompanyRepresentative, err error) {
	defer func() { err = s.observe("register_representative", err) }()

	if err := s.validate(req, "invalid registration payload"); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(keylock.Representative(req.ID), keylock.Student(req.ID), keylock.Staff(req.ID))
	defer unlock()

	if _, err := s.findAccount(ctx, req.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user id already taken")
	} else if !appErrors.Is(err, appErrors.ErrNotFound) {
		return nil, err
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, appErrors.WithCause(appErrors.ErrInternal, err, "failed to hash password")
	}

	rep = &models.CompanyRepresentative{
		ID:           req.ID,
		Name:         req.Name,
		CompanyName:  req.CompanyName,
		Department:   req.Department,
		Position:     req.Position,
		PasswordHash: hash,
	}
	entry := activity(rep.ID, models.RoleRepresentative, models.ActionRegistrationSubmitted, rep.ID, "registered for "+rep.CompanyName)
	if err := s.commit(ctx, models.ChangeSet{Representatives: []models.CompanyRepresentative{*rep}}, entry); err != nil {
		return nil, err
	}
	return rep, nil
}

// ChangePassword replaces the caller's password after checking the old one.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, role models.UserRole, req models.ChangePasswordRequest) (err error) {
	defer func() { err = s.observe("change_password", err) }()

	if err := s.validate(req, "invalid change password payload"); err != nil {
		return err
	}

	unlock := s.locks.Lock(accountKey(role, userID))
	defer unlock()

	account, err := s.findAccount(ctx, userID)
	if err != nil {
		return err
	}
	if account.Role != role {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash()), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
	}

	hash, err := s.HashPassword(req.NewPassword)
	if err != nil {
		return appErrors.WithCause(appErrors.ErrInternal, err, "failed to hash password")
	}

	entry := activity(userID, role, models.ActionPasswordChanged, userID, "changed password")
	return s.commit(ctx, passwordChange(account, hash), entry)
}

// ResetPassword lets a staff member set a new password on any account.
func (s *AuthService) ResetPassword(ctx context.Context, staffID, accountID string, req models.ResetPasswordRequest) (err error) {
	defer func() { err = s.observe("reset_password", err) }()

	if err := s.validate(req, "invalid reset password payload"); err != nil {
		return err
	}

	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(accountKey(account.Role, accountID))
	defer unlock()

	// Reload under the lock so a concurrent change of the same account is not lost.
	account, err = s.findAccount(ctx, accountID)
	if err != nil {
		return err
	}

	hash, err := s.HashPassword(req.NewPassword)
	if err != nil {
		return appErrors.WithCause(appErrors.ErrInternal, err, "failed to hash password")
	}

	entry := activity(staffID, models.RoleStaff, models.ActionPasswordReset, accountID,
		fmt.Sprintf("reset password of %s account %s", strings.ToLower(string(account.Role)), accountID))
	return s.commit(ctx, passwordChange(account, hash), entry)
}

// AccountRole returns the role of the account holding id. Ids are unique
// across every account kind, so at most one role matches.
func (s *AuthService) AccountRole(ctx context.Context, id string) (models.UserRole, bool, error) {
	account, err := s.findAccount(ctx, id)
	if appErrors.Is(err, appErrors.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return account.Role, true, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.WithCause(appErrors.ErrUnauthorized, err, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// findAccount looks the id up across students, representatives and staff, in that order.
func (s *AuthService) findAccount(ctx context.Context, id string) (*models.Account, error) {
	student, err := s.store.GetStudent(ctx, id)
	if err == nil {
		return &models.Account{Role: models.RoleStudent, Student: student}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, lookupError(err, "account")
	}

	rep, err := s.store.GetRepresentative(ctx, id)
	if err == nil {
		return &models.Account{Role: models.RoleRepresentative, Representative: rep}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, lookupError(err, "account")
	}

	staff, err := s.store.GetStaff(ctx, id)
	if err == nil {
		return &models.Account{Role: models.RoleStaff, Staff: staff}, nil
	}
	return nil, lookupError(err, "account")
}

func (s *AuthService) generateAccessToken(account *models.Account) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID: account.ID(),
		Role:   account.Role,
		Name:   account.Name(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   account.ID(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}

func passwordChange(account *models.Account, hash string) models.ChangeSet {
	var changes models.ChangeSet
	switch account.Role {
	case models.RoleStudent:
		account.Student.PasswordHash = hash
		changes.Students = []models.Student{*account.Student}
	case models.RoleRepresentative:
		account.Representative.PasswordHash = hash
		changes.Representatives = []models.CompanyRepresentative{*account.Representative}
	case models.RoleStaff:
		account.Staff.PasswordHash = hash
		changes.Staff = []models.CareerCenterStaff{*account.Staff}
	}
	return changes
}

func accountKey(role models.UserRole, id string) string {
	switch role {
	case models.RoleStudent:
		return keylock.Student(id)
	case models.RoleRepresentative:
		return keylock.Representative(id)
	default:
		return keylock.Staff(id)
	}
}
