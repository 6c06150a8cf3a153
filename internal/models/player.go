package models

import (
	"time"

	"github.com/google/uuid"
)

type Player struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

type GuestRequest struct {
	DisplayName string `json:"display_name"`
}

type AuthTokens struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type AuthResponse struct {
	Player *Player    `json:"player"`
	Tokens AuthTokens `json:"tokens"`
}
