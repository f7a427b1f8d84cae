// internal/database/match.go
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kaansenol/hangduel/internal/cache"
)

// InsertMatchRecords persists a batch of finished-match records in a single
// transaction. Records are append-only; replays of the same history id are
// ignored.
func InsertMatchRecords(ctx context.Context, recs []cache.MatchRecord) error {
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO match_history (
				history_id, match_id, user_id, opponent_name, result, trophy_delta, played_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (history_id) DO NOTHING
		`
		for _, rec := range recs {
			if _, e := tx.Exec(ctx, q,
				rec.HistoryID, rec.MatchID, rec.UserID,
				rec.OpponentName, rec.Result, rec.TrophyDelta, rec.PlayedAt,
			); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx insert match records: %w", err)
	}
	return nil
}
