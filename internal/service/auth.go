package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/msomdec/clinic-booking/internal/domain"
)

// Register creates a patient account from the self-service signup form.
func (s *UserService) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.Create(ctx, domain.UserInput{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Role:     domain.RolePatient,
		Password: in.Password,
	})
}

// Login verifies credentials and returns the sanitized user with a signed JWT.
// The email match ignores case.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	if email == "" || password == "" {
		return nil, "", domain.ErrUnauthorized
	}

	var found *domain.User
	s.store.View(func(snap *domain.Snapshot) {
		for _, u := range snap.Users {
			if u.HasEmail(email) {
				found = &u
				return
			}
		}
	})
	if found == nil || !s.hasher.Compare(found.Password, password) {
		return nil, "", domain.ErrUnauthorized
	}

	user := found.Sanitized()
	token, err := s.generateJWT(&user)
	if err != nil {
		return nil, "", fmt.Errorf("generate jwt: %w", err)
	}
	return &user, token, nil
}

// ValidateToken parses and validates a JWT token string.
// Returns the user ID from the sub claim.
func (s *UserService) ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, domain.ErrUnauthorized
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, domain.ErrUnauthorized
	}
	return userID, nil
}

func (s *UserService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
