package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/repo"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/transport"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/hash"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/tokens"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour

	minPasswordLen  = 6
	birthDateLayout = "2006-01-02"
)

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
	Now           func() time.Time
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	IsAdmin      bool
	User         *models.User
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ParseBirthDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse(birthDateLayout, v)
	if err != nil {
		return nil, validation("birth_date must be YYYY-MM-DD")
	}
	if d.After(time.Now()) {
		return nil, validation("birth_date is in the future")
	}
	return &d, nil
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" {
		return nil, validation("name required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validation("invalid email")
	}
	if len(req.Password) < minPasswordLen {
		return nil, validation("password must have at least %d characters", minPasswordLen)
	}
	birth, err := ParseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		BirthDate:    birth,
		PasswordHash: pwHash,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			l.Warn("register_error", "status", 409, "reason", "email already registered")
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		return nil, translate(err, "create user")
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*LoginResult, error) {
	isAdmin, err := s.Repo.IsAdmin(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	role := tokens.RoleUser
	if isAdmin {
		role = tokens.RoleAdmin
	}

	now := s.now()
	accessExp := now.Add(AccessTTL)
	accessToken, err := tokens.SignAccess(user.ID.String(), role, accessExp, s.JWTSecret)
	if err != nil {
		return nil, err
	}

	jti := uuid.NewString()
	refreshExp := now.Add(RefreshTTL)
	refreshToken, err := tokens.SignRefresh(user.ID.String(), jti, refreshExp, s.RefreshSecret)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, user.ID, jti, refreshToken, refreshExp); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		IsAdmin:      isAdmin,
		User:         user,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)

	if email == "" || password == "" {
		return nil, validation("email and password required")
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

// Refresh rotates the refresh token: the presented one is revoked and a new pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	var res *LoginResult
	err = s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.ConsumeRefreshToken(ctx, claims.ID, refreshToken, s.now()); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}
		user, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}
		txSvc := *s
		txSvc.Repo = tx
		res, err = txSvc.issue(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, refreshToken)
}

func (s *AuthService) PurgeTokens(ctx context.Context) (int64, error) {
	return s.Repo.DeleteExpiredRefreshTokens(ctx, s.now())
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, userID)
	return user, translate(err, "user")
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req transport.UpdateProfileRequest) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "user")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validation("name cannot be empty")
		}
		user.Name = name
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		user.Address = strings.TrimSpace(*req.Address)
	}
	if req.BirthDate != nil {
		birth, err := ParseBirthDate(*req.BirthDate)
		if err != nil {
			return nil, err
		}
		user.BirthDate = birth
	}

	if err := s.Repo.UpdateUser(ctx, user); err != nil {
		return nil, translate(err, "update user")
	}
	return user, nil
}

func (s *AuthService) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.Repo.IsAdmin(ctx, userID)
}

func (s *AuthService) GrantAdmin(ctx context.Context, userID, grantedBy uuid.UUID) error {
	if _, err := s.Repo.GetUserByID(ctx, userID); err != nil {
		return translate(err, "user")
	}
	by := grantedBy
	return s.Repo.GrantAdmin(ctx, &models.AdminRole{UserID: userID, GrantedBy: &by})
}

func (s *AuthService) RevokeAdmin(ctx context.Context, userID, actor uuid.UUID) error {
	if userID == actor {
		return validation("cannot revoke your own admin role")
	}
	removed, err := s.Repo.RevokeAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("admin role: %w", ErrNotFound)
	}
	return nil
}

func (s *AuthService) ListAdmins(ctx context.Context) ([]repo.AdminRow, error) {
	return s.Repo.ListAdmins(ctx)
}
