package auth

import (
	"context"
	"fmt"
)

type contextKey string

const playerContextKey contextKey = "player"

type PlayerContext struct {
	PlayerID string
	IsAdmin  bool
}

func WithPlayer(ctx context.Context, player *PlayerContext) context.Context {
	return context.WithValue(ctx, playerContextKey, player)
}

func GetPlayer(ctx context.Context) (*PlayerContext, error) {
	player, ok := ctx.Value(playerContextKey).(*PlayerContext)
	if !ok || player == nil {
		return nil, fmt.Errorf("player not found in context")
	}
	return player, nil
}

func GetPlayerID(ctx context.Context) (string, error) {
	player, err := GetPlayer(ctx)
	if err != nil {
		return "", err
	}
	return player.PlayerID, nil
}

func IsAdmin(ctx context.Context) bool {
	player, err := GetPlayer(ctx)
	if err != nil {
		return false
	}
	return player.IsAdmin
}
