package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"nenegana-backend/internal/middleware"
	"nenegana-backend/internal/models"
	"nenegana-backend/internal/repository"
)

const (
	defaultDisplayName = "Guest"
	maxDisplayNameLen  = 40
)

type playerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error)
	Touch(ctx context.Context, id uuid.UUID) error
}

type AuthService struct {
	playerRepo playerRepository
	jwt        *middleware.JWTAuth
}

func NewAuthService(playerRepo playerRepository, jwt *middleware.JWTAuth) *AuthService {
	return &AuthService{playerRepo: playerRepo, jwt: jwt}
}

// Guest creates an anonymous player and issues its access token.
func (s *AuthService) Guest(ctx context.Context, req models.GuestRequest) (*models.AuthResponse, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name = defaultDisplayName
	}
	if utf8.RuneCountInString(name) > maxDisplayNameLen {
		return nil, &ValidationError{Fields: map[string]string{
			"display_name": fmt.Sprintf("Display name must be at most %d characters", maxDisplayNameLen),
		}}
	}

	player := &models.Player{DisplayName: name}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	token, err := s.jwt.GenerateAccessToken(player.ID, player.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &models.AuthResponse{
		Player: player,
		Tokens: models.AuthTokens{
			AccessToken: token,
			ExpiresIn:   int(middleware.AccessTokenTTL.Seconds()),
		},
	}, nil
}

func (s *AuthService) Me(ctx context.Context, playerID uuid.UUID) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	// last_seen_at is best effort
	_ = s.playerRepo.Touch(ctx, playerID)
	return player, nil
}
