package service

import (
	"context"
	"errors"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/apierror"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/config"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/dto"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Token types carried in the "typ" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// TokenClaims are the claims embedded in every issued token. Only UserID is
// trusted downstream; the role is always re-read from storage.
type TokenClaims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	TipoUser  string `json:"tipo_user"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// ParseToken validates tokenStr (HMAC only) and checks its type.
func ParseToken(secret, tokenStr, wantType string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("token invalid or expired")
	}
	if claims.TokenType != wantType || claims.UserID == "" {
		return nil, errors.New("token malformed")
	}
	return claims, nil
}

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
}

type authService struct {
	store storage.Storage
	cfg   *config.Config
}

func NewAuthService(store storage.Storage, cfg *config.Config) AuthService {
	return &authService{store: store, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, storageErr("login", err)
	}
	if user == nil {
		return nil, apierror.Unauthenticated("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apierror.Unauthenticated("Invalid credentials")
	}
	return s.issue(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := ParseToken(s.cfg.JWTSecret, refreshToken, TokenRefresh)
	if err != nil {
		return nil, apierror.Unauthenticated("Refresh token invalid or expired")
	}
	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, storageErr("refresh", err)
	}
	if user == nil {
		return nil, apierror.Unauthenticated("User not found")
	}
	return s.issue(user)
}

func (s *authService) issue(user *model.User) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, TokenAccess, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, TokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         user,
	}, nil
}

func (s *authService) generateToken(user *model.User, typ string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID:    user.ID,
		Username:  user.Username,
		TipoUser:  user.TipoUser,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
