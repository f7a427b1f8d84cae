// internal/game/room.go
package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Winner identifies which side of a room won the match, if any.
type Winner string

const (
	WinnerNone  Winner = ""
	WinnerHost  Winner = "Host"
	WinnerGuest Winner = "Guest"
	WinnerDraw  Winner = "Draw"
)

const (
	// StartingLives is the life total each player begins a match with.
	StartingLives = 5

	// MaxRounds bounds the number of words played per match.
	MaxRounds = 5

	// WrongWordPenalty is the life cost of an incorrect full-word guess.
	// Deliberately harsher than a wrong letter, which only forfeits the turn.
	WrongWordPenalty = 10
)

// PlayerProfile carries the display metadata a client supplies when it
// creates or joins a room.
type PlayerProfile struct {
	Name     string
	Avatar   string
	Trophies int
}

// Room holds the entire state for one two-player match in memory.
// All fields are guarded by Mu; callers lock before reading or mutating.
type Room struct {
	ID uuid.UUID

	HostID  string
	GuestID string

	HostName      string
	GuestName     string
	HostAvatar    string
	GuestAvatar   string
	HostTrophies  int
	GuestTrophies int

	// Word state for the current round.
	Words            []string
	CurrentWordIndex int
	Word             string
	MaskedWord       string
	GuessedLetters   []string

	HostLives  int
	GuestLives int

	IsHostTurn bool
	GameOver   bool
	Winner     Winner

	CreatedAt time.Time

	// reported is the one-shot guard for outcome reporting.
	reported bool

	Mu sync.Mutex
}

// newRoom builds a fresh room with the host seated and the first word loaded.
// The word list is normalized to uppercase and capped at MaxRounds entries.
func newRoom(hostID string, profile PlayerProfile, words []string) *Room {
	words = normalizeWords(words)
	if len(words) == 0 {
		words = defaultWordList()
	}
	if len(words) > MaxRounds {
		words = words[:MaxRounds]
	}

	id, _ := uuid.NewRandom()
	return &Room{
		ID:           id,
		HostID:       hostID,
		HostName:     profile.Name,
		HostAvatar:   profile.Avatar,
		HostTrophies: profile.Trophies,
		Words:        words,
		Word:         words[0],
		MaskedWord:   maskWord(words[0]),
		HostLives:    StartingLives,
		GuestLives:   StartingLives,
		IsHostTurn:   true,
		CreatedAt:    time.Now(),
	}
}

// isParticipant reports whether userID is seated in this room. Lock held by caller.
func (r *Room) isParticipant(userID string) bool {
	return userID == r.HostID || (r.GuestID != "" && userID == r.GuestID)
}

// isTurn reports whether it is userID's turn. Lock held by caller.
func (r *Room) isTurn(userID string) bool {
	if userID == r.HostID {
		return r.IsHostTurn
	}
	return !r.IsHostTurn
}

// Snapshot is the immutable view of a room broadcast to clients. It is a
// value copy taken under the room lock, so it can be marshaled and written
// after the lock is released without aliasing live state. The target word
// and the remaining word list are deliberately omitted; clients only ever
// see the mask.
type Snapshot struct {
	ID            string `json:"id"`
	HostID        string `json:"hostId"`
	GuestID       string `json:"guestId"`
	HostName      string `json:"hostName"`
	GuestName     string `json:"guestName"`
	HostAvatar    string `json:"hostAvatar,omitempty"`
	GuestAvatar   string `json:"guestAvatar,omitempty"`
	HostTrophies  int    `json:"hostTrophies"`
	GuestTrophies int    `json:"guestTrophies"`

	MaskedWord       string   `json:"maskedWord"`
	GuessedLetters   []string `json:"guessedLetters"`
	CurrentWordIndex int      `json:"currentWordIndex"`
	TotalWords       int      `json:"totalWords"`

	HostLives  int    `json:"hostLives"`
	GuestLives int    `json:"guestLives"`
	IsHostTurn bool   `json:"isHostTurn"`
	IsGameOver bool   `json:"isGameOver"`
	Winner     Winner `json:"winner,omitempty"`
}

// snapshot copies the client-visible state. Lock held by caller.
func (r *Room) snapshot() Snapshot {
	letters := make([]string, len(r.GuessedLetters))
	copy(letters, r.GuessedLetters)

	return Snapshot{
		ID:               r.ID.String(),
		HostID:           r.HostID,
		GuestID:          r.GuestID,
		HostName:         r.HostName,
		GuestName:        r.GuestName,
		HostAvatar:       r.HostAvatar,
		GuestAvatar:      r.GuestAvatar,
		HostTrophies:     r.HostTrophies,
		GuestTrophies:    r.GuestTrophies,
		MaskedWord:       r.MaskedWord,
		GuessedLetters:   letters,
		CurrentWordIndex: r.CurrentWordIndex,
		TotalWords:       len(r.Words),
		HostLives:        r.HostLives,
		GuestLives:       r.GuestLives,
		IsHostTurn:       r.IsHostTurn,
		IsGameOver:       r.GameOver,
		Winner:           r.Winner,
	}
}
