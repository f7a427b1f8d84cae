// internal/handlers/messages.go
//
// Inbound messages are decoded into one tagged variant per discriminator,
// each with its own validated field set. Unknown discriminators and
// malformed payloads are rejected before dispatch.
package handlers

import (
	"encoding/json"
	"errors"
	"unicode"
	"unicode/utf8"
)

// Decode errors, surfaced to the offending connection as error messages.
var (
	ErrInvalidMessageFormat = errors.New("Invalid message format")
	ErrInvalidMessageType   = errors.New("Invalid message type")
)

// Inbound is implemented by every decoded client message.
type Inbound interface {
	inbound()
}

// CreateRoomMsg opens a room with the caller as host. Word/Words may both be
// empty; the engine falls back to its built-in list.
type CreateRoomMsg struct {
	UserID   string   `json:"userId"`
	Word     string   `json:"word"`
	Words    []string `json:"words"`
	HostName string   `json:"hostName"`
	Avatar   string   `json:"avatar"`
	Trophies int      `json:"trophies"`
}

// JoinRoomMsg seats the caller as guest in an existing room.
type JoinRoomMsg struct {
	UserID    string `json:"userId"`
	RoomID    string `json:"roomId"`
	GuestName string `json:"guestName"`
	Avatar    string `json:"avatar"`
	Trophies  int    `json:"trophies"`
}

// MakeGuessMsg is either a letter guess or, with IsWordGuess set, a
// full-word guess.
type MakeGuessMsg struct {
	UserID      string `json:"userId"`
	RoomID      string `json:"roomId"`
	Letter      string `json:"letter"`
	IsWordGuess bool   `json:"isWordGuess"`
	Word        string `json:"word"`
}

// GuessWordMsg is a dedicated full-word guess.
type GuessWordMsg struct {
	UserID string `json:"userId"`
	RoomID string `json:"roomId"`
	Word   string `json:"word"`
}

// AutoMatchMsg asks the matchmaker for an opponent.
type AutoMatchMsg struct {
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	Avatar   string   `json:"avatar"`
	Trophies int      `json:"trophies"`
	Words    []string `json:"words"`
}

// WordInputMsg is accepted for protocol compatibility but is always a no-op
// in the versus mode this coordinator serves.
type WordInputMsg struct {
	UserID string `json:"userId"`
}

func (CreateRoomMsg) inbound() {}
func (JoinRoomMsg) inbound()   {}
func (MakeGuessMsg) inbound()  {}
func (GuessWordMsg) inbound()  {}
func (AutoMatchMsg) inbound()  {}
func (WordInputMsg) inbound()  {}

// Decode parses raw into the variant named by its type discriminator and
// validates the variant's required fields. The second return value is the
// sender identity the message carried, empty when absent.
func Decode(raw []byte) (Inbound, string, error) {
	var env struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, "", ErrInvalidMessageFormat
	}

	switch env.Type {
	case "createRoom":
		var m CreateRoomMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, env.UserID, ErrInvalidMessageFormat
		}
		return m, env.UserID, nil

	case "joinRoom":
		var m JoinRoomMsg
		if err := json.Unmarshal(raw, &m); err != nil || m.RoomID == "" {
			return nil, env.UserID, ErrInvalidMessageFormat
		}
		return m, env.UserID, nil

	case "makeGuess":
		var m MakeGuessMsg
		if err := json.Unmarshal(raw, &m); err != nil || m.RoomID == "" {
			return nil, env.UserID, ErrInvalidMessageFormat
		}
		if m.IsWordGuess {
			if m.Word == "" {
				return nil, env.UserID, ErrInvalidMessageFormat
			}
		} else if !isSingleLetter(m.Letter) {
			return nil, env.UserID, ErrInvalidMessageFormat
		}
		return m, env.UserID, nil

	case "guessWord":
		var m GuessWordMsg
		if err := json.Unmarshal(raw, &m); err != nil || m.RoomID == "" || m.Word == "" {
			return nil, env.UserID, ErrInvalidMessageFormat
		}
		return m, env.UserID, nil

	case "autoMatch":
		var m AutoMatchMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, env.UserID, ErrInvalidMessageFormat
		}
		return m, env.UserID, nil

	case "wordInput":
		var m WordInputMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, env.UserID, ErrInvalidMessageFormat
		}
		return m, env.UserID, nil

	default:
		return nil, env.UserID, ErrInvalidMessageType
	}
}

// isSingleLetter reports whether s is exactly one unicode letter.
func isSingleLetter(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size == len(s) && size > 0 && r != utf8.RuneError && unicode.IsLetter(r)
}
