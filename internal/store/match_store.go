package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shuffleclub/server/internal/bracket"
)

type MatchStore struct {
	db *sqlx.DB
}

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

const insertMatchQuery = `INSERT INTO matches (id, tournament_id, round_no, match_no, side_a, side_b, status, winner_id, loser_id, winner_score, loser_score, end_reason, affects_rating, reported_by)
	VALUES (:id, :tournament_id, :round_no, :match_no, :side_a, :side_b, :status, :winner_id, :loser_id, :winner_score, :loser_score, :end_reason, :affects_rating, :reported_by)`

func (s *MatchStore) CreateMatch(ctx context.Context, m *bracket.Match) error {
	_, err := s.db.NamedExecContext(ctx, insertMatchQuery, m)
	return err
}

func (s *MatchStore) CreateMatchTx(ctx context.Context, tx *sqlx.Tx, m *bracket.Match) error {
	_, err := tx.NamedExecContext(ctx, insertMatchQuery, m)
	return err
}

func (s *MatchStore) CreateMatchesTx(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, insertMatchQuery, matches)
	return err
}

func (s *MatchStore) GetMatch(ctx context.Context, id string) (*bracket.Match, error) {
	var match bracket.Match
	err := s.db.GetContext(ctx, &match, s.db.Rebind("SELECT * FROM matches WHERE id = ?"), id)
	return &match, err
}

func (s *MatchStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id string) (*bracket.Match, error) {
	var match bracket.Match
	err := tx.GetContext(ctx, &match, tx.Rebind("SELECT * FROM matches WHERE id = ?"), id)
	return &match, err
}

func (s *MatchStore) GetMatches(ctx context.Context, tournamentID string) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, s.db.Rebind(
		"SELECT * FROM matches WHERE tournament_id = ? ORDER BY round_no ASC, match_no ASC"), tournamentID)
	return matches, err
}

func (s *MatchStore) UpdateMatchTx(ctx context.Context, tx *sqlx.Tx, m *bracket.Match) error {
	_, err := tx.NamedExecContext(ctx, `UPDATE matches SET
		side_a = :side_a, side_b = :side_b, status = :status,
		winner_id = :winner_id, loser_id = :loser_id,
		winner_score = :winner_score, loser_score = :loser_score,
		end_reason = :end_reason, affects_rating = :affects_rating,
		reported_by = :reported_by
		WHERE id = :id`, m)
	return err
}

// DeleteTournamentMatchesTx clears the tournament's bracket before a
// regenerate. Destructive of any played results.
func (s *MatchStore) DeleteTournamentMatchesTx(ctx context.Context, tx *sqlx.Tx, tournamentID string) error {
	_, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM matches WHERE tournament_id = ?"), tournamentID)
	return err
}

// HasStartedTx reports whether any finalized match or any match beyond
// round 1 exists, which freezes the participant list.
func (s *MatchStore) HasStartedTx(ctx context.Context, tx *sqlx.Tx, tournamentID string) (bool, error) {
	var count int
	err := tx.GetContext(ctx, &count, tx.Rebind(
		"SELECT COUNT(*) FROM matches WHERE tournament_id = ? AND (status = ? OR round_no > 1)"),
		tournamentID, bracket.MatchFinalized)
	return count > 0, err
}

// UpsertSlotTx writes the winner into one slot of the next-round match,
// keyed by (tournament_id, round_no, match_no), creating the row when the
// first feeding match reports and preserving the other slot when the
// second one does.
func (s *MatchStore) UpsertSlotTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, adv bracket.Advancement, winnerID uuid.UUID) error {
	var sideA, sideB *uuid.UUID
	slotColumn := "side_b"
	if adv.Slot == bracket.SlotA {
		slotColumn = "side_a"
		sideA = &winnerID
	} else {
		sideB = &winnerID
	}

	query := `INSERT INTO matches (id, tournament_id, round_no, match_no, side_a, side_b, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tournament_id, round_no, match_no) WHERE tournament_id IS NOT NULL
		DO UPDATE SET ` + slotColumn + ` = excluded.` + slotColumn

	_, err := tx.ExecContext(ctx, tx.Rebind(query),
		uuid.New(), tournamentID, adv.RoundNo, adv.MatchNo, sideA, sideB, bracket.MatchScheduled)
	return err
}
