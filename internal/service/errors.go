package service

import "errors"

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrGameNotWaiting   = errors.New("game is not in waiting status")
	ErrGameFull         = errors.New("game is full")
	ErrNotEnough        = errors.New("not enough players to start")
	ErrNotCreator       = errors.New("only the creator can do that")
	ErrGameNotActive    = errors.New("game is not active")
	ErrAlreadyJoined    = errors.New("already joined this game")
	ErrNotInGame        = errors.New("you are not in this game")
	ErrTurnNotFound     = errors.New("turn not found")
	ErrInvalidIntent    = errors.New("invalid intent")
	ErrUnknownEntity    = errors.New("unknown entity")
	ErrNotYourUnit      = errors.New("unit belongs to another player")
	ErrNotYourTerritory = errors.New("territory is controlled by another player")
	ErrInvalidSettings  = errors.New("invalid game settings")
)
