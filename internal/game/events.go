// internal/game/events.go
package game

// Outbound message type discriminators.
const (
	MsgRoomCreated        = "roomCreated"
	MsgGameUpdate         = "gameUpdate"
	MsgGameStart          = "gameStart"
	MsgWaitingForOpponent = "waitingForOpponent"
	MsgTrophyUpdate       = "trophyUpdate"
	MsgError              = "error"
)

// RoomCreatedMsg tells the creator the id of its new match.
type RoomCreatedMsg struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// RoomMsg wraps a room snapshot. It serves gameUpdate, gameStart, and
// waitingForOpponent, which differ only in the discriminator.
type RoomMsg struct {
	Type string   `json:"type"`
	Room Snapshot `json:"room"`
}

// TrophyResult is one side of a trophyUpdate broadcast.
type TrophyResult struct {
	UserID       string `json:"userId"`
	Trophies     int    `json:"trophies"`
	MatchResult  string `json:"matchResult"`
	OpponentName string `json:"opponentName"`
}

// TrophyUpdateMsg carries the final trophy deltas to both participants.
type TrophyUpdateMsg struct {
	Type   string       `json:"type"`
	Winner TrophyResult `json:"winner"`
	Loser  TrophyResult `json:"loser"`
}

// ErrorMsg carries a human-readable failure back to a client.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewErrorMsg builds an error message envelope.
func NewErrorMsg(message string) ErrorMsg {
	return ErrorMsg{Type: MsgError, Message: message}
}
