// internal/game/engine_test.go
package game

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockNotifier collects outbound messages instead of writing websockets.
type mockNotifier struct {
	mu   sync.Mutex
	msgs map[string][]interface{}
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{msgs: make(map[string][]interface{})}
}

func (mn *mockNotifier) notify(userID string, msg interface{}) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	mn.msgs[userID] = append(mn.msgs[userID], msg)
}

func (mn *mockNotifier) all(userID string) []interface{} {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	out := make([]interface{}, len(mn.msgs[userID]))
	copy(out, mn.msgs[userID])
	return out
}

// lastRoomMsg returns the most recent room-carrying message sent to userID.
func (mn *mockNotifier) lastRoomMsg(userID string) *RoomMsg {
	msgs := mn.all(userID)
	for i := len(msgs) - 1; i >= 0; i-- {
		if rm, ok := msgs[i].(RoomMsg); ok {
			return &rm
		}
	}
	return nil
}

func (mn *mockNotifier) countType(userID, typ string) int {
	n := 0
	for _, m := range mn.all(userID) {
		switch v := m.(type) {
		case RoomMsg:
			if v.Type == typ {
				n++
			}
		case RoomCreatedMsg:
			if v.Type == typ {
				n++
			}
		case TrophyUpdateMsg:
			if v.Type == typ {
				n++
			}
		case ErrorMsg:
			if v.Type == typ {
				n++
			}
		}
	}
	return n
}

// reportRecorder counts outcome reports instead of calling collaborators.
type reportRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (rr *reportRecorder) report(out Outcome) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.outcomes = append(rr.outcomes, out)
}

func (rr *reportRecorder) count() int {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return len(rr.outcomes)
}

func (rr *reportRecorder) last(t *testing.T) Outcome {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	require.NotEmpty(t, rr.outcomes)
	return rr.outcomes[len(rr.outcomes)-1]
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupEngine(t *testing.T) (*Engine, *mockNotifier, *reportRecorder) {
	t.Helper()
	mn := newMockNotifier()
	rr := &reportRecorder{}
	e := NewEngine(NewRoomStore(), testLogger())
	e.Notify = mn.notify
	e.Report = rr.report
	return e, mn, rr
}

const (
	hostID  = "host-1"
	guestID = "guest-1"
)

// newDuel creates a room hosted by hostID and seats guestID in it.
func newDuel(t *testing.T, e *Engine, words ...string) *Room {
	t.Helper()
	r := e.CreateRoom(context.Background(), hostID, PlayerProfile{Name: "Ada"}, words)
	require.NoError(t, e.JoinRoom(context.Background(), r.ID, guestID, PlayerProfile{Name: "Grace"}))
	return r
}

func TestCreateRoomInitialState(t *testing.T) {
	e, mn, _ := setupEngine(t)

	r := e.CreateRoom(context.Background(), hostID, PlayerProfile{Name: "Ada", Trophies: 42}, []string{"cat", "dog"})

	r.Mu.Lock()
	assert.Equal(t, StartingLives, r.HostLives)
	assert.Equal(t, StartingLives, r.GuestLives)
	assert.True(t, r.IsHostTurn)
	assert.Equal(t, []string{"CAT", "DOG"}, r.Words)
	assert.Equal(t, "CAT", r.Word)
	assert.Equal(t, "_ _ _", r.MaskedWord)
	assert.Empty(t, r.GuessedLetters)
	assert.False(t, r.GameOver)
	assert.Equal(t, 42, r.HostTrophies)
	r.Mu.Unlock()

	assert.Equal(t, 1, mn.countType(hostID, MsgRoomCreated))
	assert.Equal(t, 1, mn.countType(hostID, MsgGameUpdate))

	_, ok := e.Rooms.Get(r.ID)
	assert.True(t, ok)
}

func TestCreateRoomFallsBackToDefaultWords(t *testing.T) {
	e, _, _ := setupEngine(t)

	r := e.CreateRoom(context.Background(), hostID, PlayerProfile{Name: "Ada"}, nil)

	r.Mu.Lock()
	defer r.Mu.Unlock()
	require.NotEmpty(t, r.Words)
	assert.Equal(t, r.Words[0], r.Word)
}

func TestCreateRoomCapsWordList(t *testing.T) {
	e, _, _ := setupEngine(t)

	words := []string{"A", "B", "C", "D", "E", "F", "G"}
	r := e.CreateRoom(context.Background(), hostID, PlayerProfile{}, words)

	r.Mu.Lock()
	defer r.Mu.Unlock()
	assert.Len(t, r.Words, MaxRounds)
}

func TestJoinRoomNotFound(t *testing.T) {
	e, _, _ := setupEngine(t)
	err := e.JoinRoom(context.Background(), uuid.New(), guestID, PlayerProfile{})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestJoinRoomFull(t *testing.T) {
	e, _, _ := setupEngine(t)
	r := newDuel(t, e, "CAT")

	err := e.JoinRoom(context.Background(), r.ID, "third-wheel", PlayerProfile{})
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestJoinRoomKeepsTurnWithHost(t *testing.T) {
	e, mn, _ := setupEngine(t)
	r := newDuel(t, e, "CAT")

	r.Mu.Lock()
	assert.True(t, r.IsHostTurn)
	assert.Equal(t, guestID, r.GuestID)
	assert.Equal(t, "Grace", r.GuestName)
	r.Mu.Unlock()

	// Both sides received the post-join snapshot.
	require.NotNil(t, mn.lastRoomMsg(hostID))
	require.NotNil(t, mn.lastRoomMsg(guestID))
	assert.Equal(t, guestID, mn.lastRoomMsg(hostID).Room.GuestID)
}

// Scenario: host guesses a correct letter; the mask reveals every occurrence
// and the turn stays with the host.
func TestCorrectLetterRevealsAndKeepsTurn(t *testing.T) {
	e, mn, _ := setupEngine(t)
	r := newDuel(t, e, "DOOR", "DOG")

	require.NoError(t, e.GuessLetter(r.ID, hostID, "o"))

	r.Mu.Lock()
	assert.Equal(t, "_ O O _", r.MaskedWord)
	assert.True(t, r.IsHostTurn)
	assert.Equal(t, StartingLives, r.HostLives)
	assert.Equal(t, StartingLives, r.GuestLives)
	assert.Equal(t, 0, r.CurrentWordIndex)
	r.Mu.Unlock()

	update := mn.lastRoomMsg(guestID)
	require.NotNil(t, update)
	assert.Equal(t, "_ O O _", update.Room.MaskedWord)
}

func TestWrongLetterFlipsTurnWithoutLifeLoss(t *testing.T) {
	e, _, _ := setupEngine(t)
	r := newDuel(t, e, "CAT", "DOG")

	require.NoError(t, e.GuessLetter(r.ID, hostID, "Z"))

	r.Mu.Lock()
	defer r.Mu.Unlock()
	assert.False(t, r.IsHostTurn)
	assert.Equal(t, StartingLives, r.HostLives)
	assert.Equal(t, StartingLives, r.GuestLives)
	assert.Contains(t, r.GuessedLetters, "Z")
}

func TestDuplicateGuessRejectedWithoutMutation(t *testing.T) {
	e, _, _ := setupEngine(t)
	r := newDuel(t, e, "CAT", "DOG")

	require.NoError(t, e.GuessLetter(r.ID, hostID, "C"))
	r.Mu.Lock()
	before := r.snapshot()
	r.Mu.Unlock()

	err := e.GuessLetter(r.ID, hostID, "c")
	assert.ErrorIs(t, err, ErrDuplicateGuess)

	r.Mu.Lock()
	after := r.snapshot()
	r.Mu.Unlock()
	assert.Equal(t, before, after)
}

func TestGuessOutOfTurnRejectedWithoutMutation(t *testing.T) {
	e, _, _ := setupEngine(t)
	r := newDuel(t, e, "CAT", "DOG")

	r.Mu.Lock()
	before := r.snapshot()
	r.Mu.Unlock()

	err := e.GuessLetter(r.ID, guestID, "C")
	assert.ErrorIs(t, err, ErrNotYourTurn)

	r.Mu.Lock()
	after := r.snapshot()
	r.Mu.Unlock()
	assert.Equal(t, before, after)
}

func TestGuessFromStrangerRejected(t *testing.T) {
	e, _, _ := setupEngine(t)
	r := newDuel(t, e, "CAT")

	err := e.GuessLetter(r.ID, "lurker", "C")
	assert.ErrorIs(t, err, ErrNotAParticipant)

	err = e.GuessWord(r.ID, "lurker", "CAT")
	assert.ErrorIs(t, err, ErrNotAParticipant)
}

func TestGuessUnknownRoom(t *testing.T) {
	e, _, _ := setupEngine(t)
	assert.ErrorIs(t, e.GuessLetter(uuid.New(), hostID, "C"), ErrRoomNotFound)
	assert.ErrorIs(t, e.GuessWord(uuid.New(), hostID, "CAT"), ErrRoomNotFound)
}

// Completing the mask advances the round by exactly one at the cost of one
// opponent life, resets the word state, and keeps the turn.
func TestMaskCompletionAdvancesRound(t *testing.T) {
	e, _, _ := setupEngine(t)
	r := newDuel(t, e, "CAT", "DOG")

	require.NoError(t, e.GuessLetter(r.ID, hostID, "C"))
	require.NoError(t, e.GuessLetter(r.ID, hostID, "A"))
	require.NoError(t, e.GuessLetter(r.ID, hostID, "T"))

	r.Mu.Lock()
	defer r.Mu.Unlock()
	assert.Equal(t, 1, r.CurrentWordIndex)
	assert.Equal(t, "DOG", r.Word)
	assert.Equal(t, "_ _ _", r.MaskedWord)
	assert.Empty(t, r.GuessedLetters)
	assert.Equal(t, StartingLives-1, r.GuestLives)
	assert.Equal(t, StartingLives, r.HostLives)
	assert.True(t, r.IsHostTurn)
	assert.False(t, r.GameOver)
}

// Scenario B: a correct word guess on the last word ends the match.
func TestCorrectWordGuessEndsSingleWordMatch(t *testing.T) {
	e, mn, rr := setupEngine(t)
	r := newDuel(t, e, "CAT")

	require.NoError(t, e.GuessWord(r.ID, hostID, "cat"))

	r.Mu.Lock()
	assert.True(t, r.GameOver)
	assert.Equal(t, WinnerHost, r.Winner)
	assert.Equal(t, StartingLives-1, r.GuestLives)
	assert.Equal(t, "C A T", r.MaskedWord)
	r.Mu.Unlock()

	require.Equal(t, 1, rr.count())
	out := rr.last(t)
	assert.Equal(t, WinnerHost, out.Winner)
	assert.Equal(t, hostID, out.HostID)
	assert.Equal(t, guestID, out.GuestID)

	update := mn.lastRoomMsg(guestID)
	require.NotNil(t, update)
	assert.True(t, update.Room.IsGameOver)
	assert.Equal(t, WinnerHost, update.Room.Winner)
}

func TestCorrectWordGuessKeepsTurn(t *testing.T) {
	e, _, rr := setupEngine(t)
	r := newDuel(t, e, "CAT", "DOG")

	require.NoError(t, e.GuessWord(r.ID, hostID, "CAT"))

	r.Mu.Lock()
	defer r.Mu.Unlock()
	assert.Equal(t, 1, r.CurrentWordIndex)
	assert.Equal(t, "DOG", r.Word)
	assert.True(t, r.IsHostTurn)
	assert.Equal(t, StartingLives-1, r.GuestLives)
	assert.False(t, r.GameOver)
	assert.Equal(t, 0, rr.count())
}

// Scenario C: an incorrect word guess costs the guesser ten lives, clamped
// at zero, which here is immediately terminal.
func TestWrongWordGuessPenalty(t *testing.T) {
	e, _, rr := setupEngine(t)
	r := newDuel(t, e, "CAT", "DOG")

	// Flip the turn to the guest with a wrong letter first.
	require.NoError(t, e.GuessLetter(r.ID, hostID, "Z"))

	require.NoError(t, e.GuessWord(r.ID, guestID, "CAR"))

	r.Mu.Lock()
	assert.Equal(t, 0, r.GuestLives, "lives clamp at zero, never negative")
	assert.Equal(t, StartingLives, r.HostLives)
	assert.True(t, r.GameOver)
	assert.Equal(t, WinnerHost, r.Winner)
	r.Mu.Unlock()

	require.Equal(t, 1, rr.count())
	assert.Equal(t, WinnerHost, rr.last(t).Winner)
}

func TestGuessAfterGameOverRejected(t *testing.T) {
	e, _, rr := setupEngine(t)
	r := newDuel(t, e, "CAT")

	require.NoError(t, e.GuessWord(r.ID, hostID, "CAT"))
	require.Equal(t, 1, rr.count())

	assert.ErrorIs(t, e.GuessWord(r.ID, hostID, "CAT"), ErrGameAlreadyOver)
	assert.ErrorIs(t, e.GuessLetter(r.ID, guestID, "C"), ErrGameAlreadyOver)

	// Reporting stays at exactly once no matter how often terminality is probed.
	assert.Equal(t, 1, rr.count())
}

// Scenario D: when both sides are at zero after the same transition, the
// side checked first (the host) loses deterministically.
func TestBothLivesZeroResolvesDeterministically(t *testing.T) {
	e, _, rr := setupEngine(t)
	r := newDuel(t, e, "CAT", "DOG")

	r.Mu.Lock()
	r.HostLives = 0
	r.GuestLives = 0
	r.Mu.Unlock()

	require.NoError(t, e.GuessLetter(r.ID, hostID, "Z"))

	r.Mu.Lock()
	assert.True(t, r.GameOver)
	assert.Equal(t, WinnerGuest, r.Winner)
	r.Mu.Unlock()

	require.Equal(t, 1, rr.count())
	assert.Equal(t, WinnerGuest, rr.last(t).Winner)
}

// Playing every round to a draw resolves WinnerDraw and still reports once.
func TestEqualLivesAtRoundBoundIsDraw(t *testing.T) {
	e, _, rr := setupEngine(t)
	r := newDuel(t, e, "CAT", "DOG")

	require.NoError(t, e.GuessWord(r.ID, hostID, "CAT"))  // guest 4
	require.NoError(t, e.GuessLetter(r.ID, hostID, "Z"))  // turn to guest
	require.NoError(t, e.GuessWord(r.ID, guestID, "DOG")) // host 4, final round

	r.Mu.Lock()
	assert.True(t, r.GameOver)
	assert.Equal(t, WinnerDraw, r.Winner)
	assert.Equal(t, 4, r.HostLives)
	assert.Equal(t, 4, r.GuestLives)
	r.Mu.Unlock()

	require.Equal(t, 1, rr.count())
	assert.Equal(t, WinnerDraw, rr.last(t).Winner)
}

// Scenario E: the first auto-match call opens a waiting room, the second
// joins it and both sides get a game start snapshot.
func TestAutoMatchPairsTwoPlayers(t *testing.T) {
	e, mn, _ := setupEngine(t)

	e.AutoMatch(context.Background(), "p1", PlayerProfile{Name: "Ada"}, []string{"CAT"})
	assert.Equal(t, 1, mn.countType("p1", MsgWaitingForOpponent))
	assert.Equal(t, 1, e.Rooms.Len())

	e.AutoMatch(context.Background(), "p2", PlayerProfile{Name: "Grace"}, []string{"DOG"})
	assert.Equal(t, 1, mn.countType("p1", MsgGameStart))
	assert.Equal(t, 1, mn.countType("p2", MsgGameStart))
	assert.Equal(t, 1, e.Rooms.Len(), "second call joins rather than creating")

	start := mn.lastRoomMsg("p2")
	require.NotNil(t, start)
	assert.Equal(t, "p1", start.Room.HostID)
	assert.Equal(t, "p2", start.Room.GuestID)
}

func TestAutoMatchSkipsOwnWaitingRoom(t *testing.T) {
	e, mn, _ := setupEngine(t)

	e.AutoMatch(context.Background(), "p1", PlayerProfile{}, []string{"CAT"})
	e.AutoMatch(context.Background(), "p1", PlayerProfile{}, []string{"CAT"})

	assert.Equal(t, 2, mn.countType("p1", MsgWaitingForOpponent))
	assert.Equal(t, 2, e.Rooms.Len())
}

func TestDisconnectForfeitsLiveMatch(t *testing.T) {
	e, mn, rr := setupEngine(t)
	r := newDuel(t, e, "CAT", "DOG")

	e.Disconnect(hostID)

	_, ok := e.Rooms.Get(r.ID)
	assert.False(t, ok, "room is discarded on disconnect")

	update := mn.lastRoomMsg(guestID)
	require.NotNil(t, update)
	assert.True(t, update.Room.IsGameOver)
	assert.Equal(t, WinnerGuest, update.Room.Winner)

	// Forfeits tear the room down without trophy reporting.
	assert.Equal(t, 0, rr.count())
}

func TestDisconnectAfterGameOverRemovesRoomQuietly(t *testing.T) {
	e, mn, rr := setupEngine(t)
	r := newDuel(t, e, "CAT")

	require.NoError(t, e.GuessWord(r.ID, hostID, "CAT"))
	updatesBefore := mn.countType(guestID, MsgGameUpdate)

	e.Disconnect(hostID)

	_, ok := e.Rooms.Get(r.ID)
	assert.False(t, ok)
	assert.Equal(t, updatesBefore, mn.countType(guestID, MsgGameUpdate), "no forfeit broadcast for a finished match")
	assert.Equal(t, 1, rr.count())
}

// stubAccounts returns a fixed balance for every lookup.
type stubAccounts struct {
	balance int
	err     error
}

func (s stubAccounts) Trophies(ctx context.Context, userID string) (int, error) {
	return s.balance, s.err
}

func TestTrophySnapshotPrefersAccountStore(t *testing.T) {
	e, _, _ := setupEngine(t)
	e.Accounts = stubAccounts{balance: 77}

	r := e.CreateRoom(context.Background(), hostID, PlayerProfile{Trophies: 3}, []string{"CAT"})

	r.Mu.Lock()
	defer r.Mu.Unlock()
	assert.Equal(t, 77, r.HostTrophies)
}

func TestTrophySnapshotFallsBackToClientValue(t *testing.T) {
	e, _, _ := setupEngine(t)
	e.Accounts = stubAccounts{err: assert.AnError}

	r := e.CreateRoom(context.Background(), hostID, PlayerProfile{Trophies: 3}, []string{"CAT"})

	r.Mu.Lock()
	defer r.Mu.Unlock()
	assert.Equal(t, 3, r.HostTrophies)
}
