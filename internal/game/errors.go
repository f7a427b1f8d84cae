// internal/game/errors.go
package game

import "errors"

// Validation errors surfaced to the offending connection as error messages.
// None of them are fatal to the process. The texts are part of the wire
// protocol; clients display them verbatim.
var (
	ErrRoomNotFound    = errors.New("Room not found")
	ErrRoomFull        = errors.New("Room is full")
	ErrNotAParticipant = errors.New("You are not in this room")
	ErrNotYourTurn     = errors.New("Not your turn")
	ErrGameAlreadyOver = errors.New("Game is already over")
	ErrDuplicateGuess  = errors.New("Letter already guessed")
)
