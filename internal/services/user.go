package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"story-backend/internal/apperrors"
	"story-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	Handle string `json:"handle" validate:"required,alphanum,min=3,max=30"`
}

// UserService handles user-related business logic
type UserService struct {
	users      UserStore
	jwtSecret  string
	expiryDays int
	now        func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users UserStore, jwtSecret string, expiryDays int, now func() time.Time) *UserService {
	if now == nil {
		now = time.Now
	}
	if expiryDays <= 0 {
		expiryDays = 365
	}
	return &UserService{
		users:      users,
		jwtSecret:  jwtSecret,
		expiryDays: expiryDays,
		now:        now,
	}
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.AddDate(0, 0, s.expiryDays).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

// CreateUser registers a new user under a unique handle
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	req.Handle = strings.ToLower(strings.TrimSpace(req.Handle))
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	exists, err := s.users.HandleExists(ctx, req.Handle)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Validation("handle %q is already taken", req.Handle)
	}

	userID := uuid.New().String()

	token, err := s.GenerateJWT(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	user := &models.User{
		ID:        userID,
		Handle:    req.Handle,
		Token:     token,
		CreatedAt: s.now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// UpdatePushToken stores the device token push notifications go to.
// An empty token unregisters the device.
func (s *UserService) UpdatePushToken(ctx context.Context, userID, pushToken string) error {
	pushToken = strings.TrimSpace(pushToken)
	var token *string
	if pushToken != "" {
		token = &pushToken
	}
	return s.users.UpdatePushToken(ctx, userID, token)
}
