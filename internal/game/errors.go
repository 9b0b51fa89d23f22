package game

import "errors"

// Precondition violations. None of them change session state.
var (
	ErrGameAlreadyStarted = errors.New("game has already started")
	ErrAlreadyStarted     = errors.New("game is already running")
	ErrNotStarted         = errors.New("game has not started")
	ErrNotHost            = errors.New("only the host can do this")
	ErrNotJoined          = errors.New("player has not joined")
	ErrNameAlreadySet     = errors.New("display name is already set")
	ErrEmptyName          = errors.New("display name is empty")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrNumbersNotReady    = errors.New("seat numbers have not been assigned")
	ErrUnknownPlayer      = errors.New("no such player in this round")
	ErrHostAlreadySet     = errors.New("another account is already hosting")
)
