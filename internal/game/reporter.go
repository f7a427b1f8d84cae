// internal/game/reporter.go
package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kaansenol/hangduel/internal/cache"
	"github.com/kaansenol/hangduel/internal/scoring"
)

// Trophy deltas applied at match end.
const (
	WinnerTrophyDelta = 10
	LoserTrophyDelta  = -5
)

// Match results recorded in history entries.
const (
	ResultWin  = "WIN"
	ResultLose = "LOSE"
)

// Outcome captures the terminal facts of a room at the moment it ended.
type Outcome struct {
	RoomID    uuid.UUID
	Winner    Winner
	HostID    string
	GuestID   string
	HostName  string
	GuestName string
}

// ScoreService is the remote scoring collaborator: one endpoint adjusting a
// trophy total by a signed delta, one appending a match-history record.
type ScoreService interface {
	AdjustTrophies(ctx context.Context, userID string, delta int) error
	AppendHistory(ctx context.Context, rec scoring.HistoryRecord) error
}

// AccountAdjuster atomically increments the trophy field in the account store.
type AccountAdjuster interface {
	AddTrophies(ctx context.Context, userID string, delta int) (int, error)
}

// ArchivePublisher enqueues a finished-match record for the archiver worker.
type ArchivePublisher interface {
	PublishMatchRecord(ctx context.Context, rec cache.MatchRecord) error
}

// Reporter pushes match outcomes to the external collaborators. All calls
// are fire-and-forget: failures are logged and broadcast as an error, never
// rolled back, never retried, and never block room processing. Any of the
// collaborator fields may be nil, which skips that collaborator.
type Reporter struct {
	Scores   ScoreService
	Accounts AccountAdjuster
	Archive  ArchivePublisher
	Notify   Notifier
	Logger   *logrus.Logger

	// Timeout bounds the whole remote-call batch for one outcome.
	Timeout time.Duration
}

// Report handles one finished match asynchronously. The engine's one-shot
// flag guarantees this runs at most once per room; reporting for one room
// never blocks processing of another.
func (rp *Reporter) Report(out Outcome) {
	go rp.run(out)
}

func (rp *Reporter) run(out Outcome) {
	log := rp.Logger.WithFields(logrus.Fields{
		"room":   out.RoomID,
		"winner": out.Winner,
	})

	winnerID, loserID, winnerName, loserName, ok := out.resolve()
	if !ok {
		// Draws carry no trophy movement and write no history.
		log.Info("draw outcome, skipping trophy and history reporting")
		return
	}

	timeout := rp.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	playedAt := time.Now().UTC()
	failed := false

	if rp.Scores != nil {
		if err := rp.Scores.AdjustTrophies(ctx, winnerID, WinnerTrophyDelta); err != nil {
			log.WithError(err).Error("winner trophy adjustment failed")
			failed = true
		}
		if err := rp.Scores.AdjustTrophies(ctx, loserID, LoserTrophyDelta); err != nil {
			log.WithError(err).Error("loser trophy adjustment failed")
			failed = true
		}
		if err := rp.Scores.AppendHistory(ctx, scoring.HistoryRecord{
			HistoryID:    uuid.NewString(),
			UserID:       winnerID,
			OpponentName: loserName,
			MatchResult:  ResultWin,
			TrophyCount:  WinnerTrophyDelta,
			PlayedAt:     playedAt,
		}); err != nil {
			log.WithError(err).Error("winner history append failed")
			failed = true
		}
		if err := rp.Scores.AppendHistory(ctx, scoring.HistoryRecord{
			HistoryID:    uuid.NewString(),
			UserID:       loserID,
			OpponentName: winnerName,
			MatchResult:  ResultLose,
			TrophyCount:  LoserTrophyDelta,
			PlayedAt:     playedAt,
		}); err != nil {
			log.WithError(err).Error("loser history append failed")
			failed = true
		}
	}

	if rp.Accounts != nil {
		if _, err := rp.Accounts.AddTrophies(ctx, winnerID, WinnerTrophyDelta); err != nil {
			log.WithError(err).Error("winner account increment failed")
			failed = true
		}
		if _, err := rp.Accounts.AddTrophies(ctx, loserID, LoserTrophyDelta); err != nil {
			log.WithError(err).Error("loser account increment failed")
			failed = true
		}
	}

	if rp.Archive != nil {
		for _, rec := range []cache.MatchRecord{
			{
				HistoryID:    uuid.New(),
				MatchID:      out.RoomID,
				UserID:       winnerID,
				OpponentName: loserName,
				Result:       ResultWin,
				TrophyDelta:  WinnerTrophyDelta,
				PlayedAt:     playedAt,
			},
			{
				HistoryID:    uuid.New(),
				MatchID:      out.RoomID,
				UserID:       loserID,
				OpponentName: winnerName,
				Result:       ResultLose,
				TrophyDelta:  LoserTrophyDelta,
				PlayedAt:     playedAt,
			},
		} {
			if err := rp.Archive.PublishMatchRecord(ctx, rec); err != nil {
				log.WithError(err).Warn("match record enqueue failed")
			}
		}
	}

	// The final broadcast always fires; an error message replaces the
	// results when any collaborator call failed.
	if failed {
		rp.broadcast(out, NewErrorMsg("Failed to update trophies and match history"))
		return
	}
	rp.broadcast(out, TrophyUpdateMsg{
		Type: MsgTrophyUpdate,
		Winner: TrophyResult{
			UserID:       winnerID,
			Trophies:     WinnerTrophyDelta,
			MatchResult:  ResultWin,
			OpponentName: loserName,
		},
		Loser: TrophyResult{
			UserID:       loserID,
			Trophies:     LoserTrophyDelta,
			MatchResult:  ResultLose,
			OpponentName: winnerName,
		},
	})
	log.Info("outcome reported")
}

func (rp *Reporter) broadcast(out Outcome, msg interface{}) {
	if rp.Notify == nil {
		return
	}
	if out.HostID != "" {
		rp.Notify(out.HostID, msg)
	}
	if out.GuestID != "" {
		rp.Notify(out.GuestID, msg)
	}
}

// resolve maps the winner flag to concrete ids and names. ok is false for
// draws and unset winners.
func (out Outcome) resolve() (winnerID, loserID, winnerName, loserName string, ok bool) {
	switch out.Winner {
	case WinnerHost:
		return out.HostID, out.GuestID, out.HostName, out.GuestName, true
	case WinnerGuest:
		return out.GuestID, out.HostID, out.GuestName, out.HostName, true
	default:
		return "", "", "", "", false
	}
}
