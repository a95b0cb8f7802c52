package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Yokesh17/Project--Management/internal/config"
	"github.com/Yokesh17/Project--Management/internal/models"
	"github.com/Yokesh17/Project--Management/internal/utils"
	"github.com/Yokesh17/Project--Management/pkg/logger"
	"github.com/Yokesh17/Project--Management/pkg/response"
	"gorm.io/gorm"
)

type AuthService struct {
	db          *gorm.DB
	ldapService *LDAPService
	jwtConfig   *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, ldapCfg *config.LDAPConfig) *AuthService {
	return &AuthService{
		db:          db,
		ldapService: NewLDAPService(ldapCfg),
		jwtConfig:   jwtCfg,
	}
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	FullName string `json:"full_name" binding:"max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	AuthType string `json:"auth_type"` // local, ldap
}

type LoginResult struct {
	AccessToken     string
	AccessExpireAt  time.Time
	RefreshToken    string
	RefreshExpireAt time.Time
	User            *models.User
}

type RefreshResult struct {
	AccessToken     string
	AccessExpireAt  time.Time
	RefreshToken    string
	RefreshExpireAt time.Time
}

// bcrypt refuses longer input.
const maxPasswordBytes = 72

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers a local account on the free plan.
func (s *AuthService) Signup(ctx context.Context, req *SignupRequest) (*models.User, error) {
	if len(req.Password) > maxPasswordBytes {
		return nil, response.NewValidation(fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:    normalizeEmail(req.Email),
		FullName: strings.TrimSpace(req.FullName),
		Password: hashed,
		AuthType: models.AuthTypeLocal,
		Plan:     PlanFree,
		IsActive: true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return response.NewConflict("Email already registered")
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login checks credentials and issues an access token plus a refresh token.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, clientIP, userAgent string) (*LoginResult, error) {
	var user *models.User
	var err error

	switch req.AuthType {
	case "", models.AuthTypeLocal:
		user, err = s.localAuth(ctx, req.Email, req.Password)
	case models.AuthTypeLDAP:
		user, err = s.ldapAuth(ctx, req.Email, req.Password)
	default:
		return nil, response.NewBadRequest("invalid auth type")
	}
	if err != nil {
		return nil, err
	}

	accessHours := s.jwtConfig.ExpireHour
	token, err := utils.GenerateToken(user.ID, user.Email, accessHours)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	refreshRecord := models.RefreshToken{
		UserID:      user.ID,
		TokenHash:   refreshHash,
		ExpiresAt:   now.Add(time.Duration(s.jwtConfig.RefreshExpireHour) * time.Hour),
		CreatedByIP: clientIP,
		UserAgent:   truncateRunes(userAgent, 255),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&refreshRecord).Error; err != nil {
			return err
		}
		user.LastLogin = &now
		return tx.Model(user).Update("last_login", now).Error
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:     token,
		AccessExpireAt:  now.Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    refreshToken,
		RefreshExpireAt: refreshRecord.ExpiresAt,
		User:            user,
	}, nil
}

// Refresh rotates a refresh token: the presented one is revoked and linked to
// its replacement.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, clientIP, userAgent string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, response.NewBadRequest("refresh token required")
	}

	var result *RefreshResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		if err := tx.Where("token_hash = ?", hashRefreshToken(refreshToken)).First(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewUnauthorized("invalid refresh token")
			}
			return err
		}
		now := time.Now()
		if stored.RevokedAt != nil {
			return response.NewUnauthorized("refresh token revoked")
		}
		if !stored.Active(now) {
			return response.NewUnauthorized("refresh token expired")
		}

		var user models.User
		if err := tx.First(&user, stored.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewUnauthorized("user not found")
			}
			return err
		}
		if !user.IsActive {
			return response.NewUnauthorized("user is disabled")
		}

		accessToken, err := utils.GenerateToken(user.ID, user.Email, s.jwtConfig.ExpireHour)
		if err != nil {
			return err
		}
		newToken, newHash, err := generateRefreshToken()
		if err != nil {
			return err
		}

		next := models.RefreshToken{
			UserID:      user.ID,
			TokenHash:   newHash,
			ExpiresAt:   now.Add(time.Duration(s.jwtConfig.RefreshExpireHour) * time.Hour),
			CreatedByIP: clientIP,
			UserAgent:   truncateRunes(userAgent, 255),
		}
		if err := tx.Create(&next).Error; err != nil {
			return err
		}
		if err := tx.Model(&stored).Updates(map[string]interface{}{
			"revoked_at":           now,
			"replaced_by_token_id": next.ID,
		}).Error; err != nil {
			return err
		}

		result = &RefreshResult{
			AccessToken:     accessToken,
			AccessExpireAt:  now.Add(time.Duration(s.jwtConfig.ExpireHour) * time.Hour),
			RefreshToken:    newToken,
			RefreshExpireAt: next.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AuthService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", hashRefreshToken(refreshToken)).
		Update("revoked_at", time.Now()).Error
}

// APIToken returns the user's long-lived token, minting it on first use.
// Concurrent first calls agree on one token: only the write that finds the
// column empty wins and the others re-read it.
func (s *AuthService) APIToken(ctx context.Context, userID uint) (string, error) {
	db := s.db.WithContext(ctx)
	user, err := findUser(db, userID)
	if err != nil {
		return "", err
	}
	if user.APIToken != "" {
		return user.APIToken, nil
	}

	token, err := utils.GenerateToken(user.ID, user.Email, s.jwtConfig.APITokenDays*24)
	if err != nil {
		return "", err
	}
	result := db.Model(&models.User{}).
		Where("id = ? AND (api_token IS NULL OR api_token = '')", user.ID).
		Update("api_token", token)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		if user, err = findUser(db, userID); err != nil {
			return "", err
		}
		return user.APIToken, nil
	}

	logger.Info().Uint("user_id", user.ID).Msg("[Auth] API token issued")
	return token, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return findUser(s.db.WithContext(ctx), id)
}

func (s *AuthService) IsLDAPEnabled() bool {
	return s.ldapService.IsEnabled()
}

func generateRefreshToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err = rand.Read(randomBytes); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(randomBytes)
	return token, hashRefreshToken(token), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *AuthService) localAuth(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND auth_type = ?", normalizeEmail(email), models.AuthTypeLocal).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("Incorrect email or password")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, response.NewUnauthorized("user is disabled")
	}
	if !utils.CheckPassword(password, user.Password) {
		return nil, response.NewUnauthorized("Incorrect email or password")
	}
	return &user, nil
}

// ldapAuth authenticates against the directory and provisions a local row
// keyed by the entry's email on first login.
func (s *AuthService) ldapAuth(ctx context.Context, login, password string) (*models.User, error) {
	ldapUser, err := s.ldapService.Authenticate(login, password)
	if err != nil {
		if errors.Is(err, ErrLDAPDisabled) {
			return nil, response.NewBadRequest(err.Error())
		}
		logger.Warn().Err(err).Str("login", login).Msg("[Auth] LDAP authentication failed")
		return nil, response.NewUnauthorized("Incorrect email or password")
	}

	email := normalizeEmail(ldapUser.Email)
	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{
				Email:    email,
				FullName: ldapUser.FullName,
				AuthType: models.AuthTypeLDAP,
				Plan:     PlanFree,
				IsActive: true,
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("provision LDAP user: %w", err)
			}
			logger.Info().Str("email", email).Msg("[Auth] Provisioned LDAP user")
			return nil
		case err != nil:
			return err
		}

		if user.AuthType != models.AuthTypeLDAP {
			return response.NewConflict("Email already registered")
		}
		if !user.IsActive {
			return response.NewUnauthorized("user is disabled")
		}
		if ldapUser.FullName != "" && ldapUser.FullName != user.FullName {
			user.FullName = ldapUser.FullName
			return tx.Model(&user).Update("full_name", user.FullName).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
