// internal/game/engine.go
package game

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Notifier delivers an outbound message to a single player, best effort.
// The connection registry provides the production implementation.
type Notifier func(userID string, msg interface{})

// ReportFunc handles a finished match exactly once per room.
type ReportFunc func(out Outcome)

// AccountStore looks up a player's trophy balance in the account store.
type AccountStore interface {
	Trophies(ctx context.Context, userID string) (int, error)
}

// Engine applies create/join/auto-match/guess actions to rooms, enforces
// turn and legality rules, computes life loss and word progression, and
// detects terminal states. State is injected, not ambient: the engine owns
// nothing global and is fully testable in isolation.
type Engine struct {
	Rooms  *RoomStore
	Logger *logrus.Logger

	// Notify is used to send messages to players. If nil, delivery is skipped.
	Notify Notifier

	// Report is invoked at most once per room when a match reaches a
	// terminal state through a guess transition.
	Report ReportFunc

	// Accounts, when set, supplies trophy snapshots at match start.
	Accounts AccountStore
}

// NewEngine builds an engine over the given store. Notify, Report, and
// Accounts are wired by the caller.
func NewEngine(rooms *RoomStore, logger *logrus.Logger) *Engine {
	return &Engine{
		Rooms:  rooms,
		Logger: logger,
	}
}

// CreateRoom allocates a fresh room with the caller as host, stores it,
// sends the new match id to the creator, and broadcasts the initial snapshot.
func (e *Engine) CreateRoom(ctx context.Context, hostID string, profile PlayerProfile, words []string) *Room {
	profile.Trophies = e.trophySnapshot(ctx, hostID, profile.Trophies)

	r := newRoom(hostID, profile, words)
	e.Rooms.Add(r)

	e.Logger.WithFields(logrus.Fields{
		"room": r.ID,
		"host": hostID,
	}).Info("room created")

	r.Mu.Lock()
	snap := r.snapshot()
	r.Mu.Unlock()

	e.send(hostID, RoomCreatedMsg{Type: MsgRoomCreated, RoomID: r.ID.String()})
	e.broadcastRoom(snap, MsgGameUpdate)
	return r
}

// JoinRoom seats guestID in an existing room and broadcasts the updated
// snapshot. The turn does not change.
func (e *Engine) JoinRoom(ctx context.Context, matchID uuid.UUID, guestID string, profile PlayerProfile) error {
	r, ok := e.Rooms.Get(matchID)
	if !ok {
		return ErrRoomNotFound
	}
	profile.Trophies = e.trophySnapshot(ctx, guestID, profile.Trophies)

	r.Mu.Lock()
	if r.GuestID != "" {
		r.Mu.Unlock()
		return ErrRoomFull
	}
	r.GuestID = guestID
	r.GuestName = profile.Name
	r.GuestAvatar = profile.Avatar
	r.GuestTrophies = profile.Trophies
	snap := r.snapshot()
	r.Mu.Unlock()

	e.Logger.WithFields(logrus.Fields{
		"room":  matchID,
		"guest": guestID,
	}).Info("guest joined room")

	e.broadcastRoom(snap, MsgGameUpdate)
	return nil
}

// AutoMatch pairs the caller with the oldest waiting room, or opens a new
// waiting room when none exists. The found side notifies both players with
// a gameStart snapshot; the created side notifies only the creator.
func (e *Engine) AutoMatch(ctx context.Context, playerID string, profile PlayerProfile, words []string) {
	profile.Trophies = e.trophySnapshot(ctx, playerID, profile.Trophies)

	var snap Snapshot
	claimed := e.Rooms.ClaimWaiting(playerID, func(r *Room) {
		r.GuestID = playerID
		r.GuestName = profile.Name
		r.GuestAvatar = profile.Avatar
		r.GuestTrophies = profile.Trophies
		snap = r.snapshot()
	})
	if claimed != nil {
		e.Logger.WithFields(logrus.Fields{
			"room":  claimed.ID,
			"guest": playerID,
		}).Info("auto-match joined waiting room")

		msg := RoomMsg{Type: MsgGameStart, Room: snap}
		e.send(snap.HostID, msg)
		e.send(snap.GuestID, msg)
		return
	}

	r := newRoom(playerID, profile, words)
	e.Rooms.Add(r)

	e.Logger.WithFields(logrus.Fields{
		"room": r.ID,
		"host": playerID,
	}).Info("auto-match opened waiting room")

	r.Mu.Lock()
	snap = r.snapshot()
	r.Mu.Unlock()
	e.send(playerID, RoomMsg{Type: MsgWaitingForOpponent, Room: snap})
}

// GuessLetter applies a single-letter guess. A letter already guessed is
// rejected; a hit reveals all its occurrences and keeps the turn; a miss
// flips the turn with no life loss. Completing the mask advances the round.
func (e *Engine) GuessLetter(matchID uuid.UUID, actorID, letter string) error {
	r, ok := e.Rooms.Get(matchID)
	if !ok {
		return ErrRoomNotFound
	}
	letter = strings.ToUpper(strings.TrimSpace(letter))

	r.Mu.Lock()
	if err := r.validateActor(actorID); err != nil {
		r.Mu.Unlock()
		return err
	}
	if containsLetter(r.GuessedLetters, letter) {
		r.Mu.Unlock()
		return ErrDuplicateGuess
	}
	r.GuessedLetters = append(r.GuessedLetters, letter)

	if strings.Contains(r.Word, letter) {
		r.MaskedWord = revealMask(r.Word, r.GuessedLetters)
		if maskComplete(r.Word, r.GuessedLetters) {
			r.advanceRound(actorID == r.HostID)
		}
	} else {
		r.IsHostTurn = !r.IsHostTurn
	}
	r.checkLives()

	snap, out := e.concludeTransition(r)
	r.Mu.Unlock()

	e.broadcastRoom(snap, MsgGameUpdate)
	e.dispatchOutcome(out)
	return nil
}

// GuessWord applies a full-word guess. An exact match advances the round at
// the opponent's cost of one life; a mismatch costs the guesser
// WrongWordPenalty lives and flips the turn.
func (e *Engine) GuessWord(matchID uuid.UUID, actorID, word string) error {
	r, ok := e.Rooms.Get(matchID)
	if !ok {
		return ErrRoomNotFound
	}
	guess := strings.ToUpper(strings.TrimSpace(word))

	r.Mu.Lock()
	if err := r.validateActor(actorID); err != nil {
		r.Mu.Unlock()
		return err
	}

	if guess == r.Word {
		r.advanceRound(actorID == r.HostID)
	} else {
		if actorID == r.HostID {
			r.HostLives -= WrongWordPenalty
			if r.HostLives < 0 {
				r.HostLives = 0
			}
		} else {
			r.GuestLives -= WrongWordPenalty
			if r.GuestLives < 0 {
				r.GuestLives = 0
			}
		}
		r.IsHostTurn = !r.IsHostTurn
	}
	r.checkLives()

	snap, out := e.concludeTransition(r)
	r.Mu.Unlock()

	e.broadcastRoom(snap, MsgGameUpdate)
	e.dispatchOutcome(out)
	return nil
}

// Disconnect tears down every room the player is seated in. A live match is
// forfeited: the remaining side wins and a terminal snapshot is broadcast.
// The room is removed either way so the store cannot grow unbounded.
func (e *Engine) Disconnect(playerID string) {
	for _, r := range e.Rooms.All() {
		r.Mu.Lock()
		if !r.isParticipant(playerID) {
			r.Mu.Unlock()
			continue
		}
		wasLive := !r.GameOver
		if wasLive {
			r.GameOver = true
			if playerID == r.HostID {
				r.Winner = WinnerGuest
			} else {
				r.Winner = WinnerHost
			}
		}
		snap := r.snapshot()
		id := r.ID
		r.Mu.Unlock()

		e.Rooms.Delete(id)
		e.Logger.WithFields(logrus.Fields{
			"room":    id,
			"player":  playerID,
			"forfeit": wasLive,
		}).Info("room torn down on disconnect")

		if wasLive {
			e.broadcastRoom(snap, MsgGameUpdate)
		}
	}
}

// validateActor runs the guess preconditions in order, each short-circuiting
// with its own error. Lock held by caller.
func (r *Room) validateActor(actorID string) error {
	if r.GameOver {
		return ErrGameAlreadyOver
	}
	if !r.isParticipant(actorID) {
		return ErrNotAParticipant
	}
	if !r.isTurn(actorID) {
		return ErrNotYourTurn
	}
	return nil
}

// advanceRound charges the actor's opponent one life, then either loads the
// next word (turn unchanged) or ends the match on the round bound, resolving
// the winner by remaining lives. Lock held by caller.
func (r *Room) advanceRound(actorIsHost bool) {
	if actorIsHost {
		r.GuestLives--
		if r.GuestLives < 0 {
			r.GuestLives = 0
		}
	} else {
		r.HostLives--
		if r.HostLives < 0 {
			r.HostLives = 0
		}
	}

	r.MaskedWord = revealWord(r.Word)
	r.CurrentWordIndex++
	if r.CurrentWordIndex >= len(r.Words) || r.CurrentWordIndex >= MaxRounds {
		r.GameOver = true
		switch {
		case r.HostLives > r.GuestLives:
			r.Winner = WinnerHost
		case r.GuestLives > r.HostLives:
			r.Winner = WinnerGuest
		default:
			r.Winner = WinnerDraw
		}
		return
	}

	r.Word = r.Words[r.CurrentWordIndex]
	r.MaskedWord = maskWord(r.Word)
	r.GuessedLetters = nil
}

// checkLives runs after every transition: either life at 0 forces terminal
// state, overriding normal progression. When both sides hit 0 in the same
// transition the host is the loser; the host check comes first by rule
// ordering. Lock held by caller.
func (r *Room) checkLives() {
	if r.HostLives <= 0 || r.GuestLives <= 0 {
		r.GameOver = true
		if r.HostLives <= 0 {
			r.Winner = WinnerGuest
		} else {
			r.Winner = WinnerHost
		}
	}
}

// concludeTransition snapshots the room and, on the transition into a
// terminal state, arms the one-shot outcome. Lock held by caller.
func (e *Engine) concludeTransition(r *Room) (Snapshot, *Outcome) {
	snap := r.snapshot()
	if r.GameOver && !r.reported {
		r.reported = true
		out := &Outcome{
			RoomID:    r.ID,
			Winner:    r.Winner,
			HostID:    r.HostID,
			GuestID:   r.GuestID,
			HostName:  r.HostName,
			GuestName: r.GuestName,
		}
		return snap, out
	}
	return snap, nil
}

func (e *Engine) dispatchOutcome(out *Outcome) {
	if out == nil {
		return
	}
	e.Logger.WithFields(logrus.Fields{
		"room":   out.RoomID,
		"winner": out.Winner,
	}).Info("match finished")
	if e.Report != nil {
		e.Report(*out)
	}
}

// trophySnapshot resolves the trophy count recorded on the room at match
// start. The account store wins; the client-supplied value is the fallback.
func (e *Engine) trophySnapshot(ctx context.Context, userID string, fromClient int) int {
	if e.Accounts == nil || userID == "" {
		return fromClient
	}
	n, err := e.Accounts.Trophies(ctx, userID)
	if err != nil {
		e.Logger.WithError(err).WithField("user", userID).Warn("trophy lookup failed, using client value")
		return fromClient
	}
	return n
}

func (e *Engine) send(userID string, msg interface{}) {
	if e.Notify == nil || userID == "" {
		return
	}
	e.Notify(userID, msg)
}

func (e *Engine) broadcastRoom(snap Snapshot, typ string) {
	msg := RoomMsg{Type: typ, Room: snap}
	e.send(snap.HostID, msg)
	e.send(snap.GuestID, msg)
}
