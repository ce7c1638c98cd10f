package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shuffleclub/server/internal/bracket"
)

type FinalsStore struct {
	db *sqlx.DB
}

func NewFinalsStore(db *sqlx.DB) *FinalsStore {
	return &FinalsStore{db: db}
}

func (s *FinalsStore) CreateBracketTx(ctx context.Context, tx *sqlx.Tx, b *bracket.FinalsBracket) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO finals_brackets (id, tournament_id, title, size, champion_id, created_by)
		VALUES (:id, :tournament_id, :title, :size, :champion_id, :created_by)`, b)
	return err
}

func (s *FinalsStore) GetBracket(ctx context.Context, id string) (*bracket.FinalsBracket, error) {
	var b bracket.FinalsBracket
	err := s.db.GetContext(ctx, &b, s.db.Rebind("SELECT * FROM finals_brackets WHERE id = ?"), id)
	return &b, err
}

func (s *FinalsStore) GetBracketTx(ctx context.Context, tx *sqlx.Tx, id string) (*bracket.FinalsBracket, error) {
	var b bracket.FinalsBracket
	err := tx.GetContext(ctx, &b, tx.Rebind("SELECT * FROM finals_brackets WHERE id = ?"), id)
	return &b, err
}

func (s *FinalsStore) SetChampionTx(ctx context.Context, tx *sqlx.Tx, bracketID, championID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, tx.Rebind("UPDATE finals_brackets SET champion_id = ? WHERE id = ?"), championID, bracketID)
	return err
}

func (s *FinalsStore) CreateEntriesTx(ctx context.Context, tx *sqlx.Tx, entries []bracket.FinalsEntry) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO finals_entries (bracket_id, round_no, slot_no, player_id, is_default)
		VALUES (:bracket_id, :round_no, :slot_no, :player_id, :is_default)`, entries)
	return err
}

func (s *FinalsStore) GetEntries(ctx context.Context, bracketID string) ([]bracket.FinalsEntry, error) {
	var entries []bracket.FinalsEntry
	err := s.db.SelectContext(ctx, &entries, s.db.Rebind(
		"SELECT * FROM finals_entries WHERE bracket_id = ? ORDER BY round_no ASC, slot_no ASC"), bracketID)
	return entries, err
}

func (s *FinalsStore) GetEntryTx(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID, roundNo int, playerID uuid.UUID) (*bracket.FinalsEntry, error) {
	var entry bracket.FinalsEntry
	err := tx.GetContext(ctx, &entry, tx.Rebind(
		"SELECT * FROM finals_entries WHERE bracket_id = ? AND round_no = ? AND player_id = ?"),
		bracketID, roundNo, playerID)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpsertEntryTx writes a player into a round slot by natural key.
func (s *FinalsStore) UpsertEntryTx(ctx context.Context, tx *sqlx.Tx, entry *bracket.FinalsEntry) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO finals_entries (bracket_id, round_no, slot_no, player_id, is_default)
		VALUES (:bracket_id, :round_no, :slot_no, :player_id, :is_default)
		ON CONFLICT (bracket_id, round_no, slot_no)
		DO UPDATE SET player_id = excluded.player_id, is_default = excluded.is_default`, entry)
	return err
}

func (s *FinalsStore) CreateMatchesTx(ctx context.Context, tx *sqlx.Tx, matches []bracket.FinalsMatch) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO finals_matches (id, bracket_id, round_no, match_no, side_a, side_b, status,
		winner_id, loser_id, winner_score, loser_score, end_reason, affects_rating, sets)
		VALUES (:id, :bracket_id, :round_no, :match_no, :side_a, :side_b, :status,
		:winner_id, :loser_id, :winner_score, :loser_score, :end_reason, :affects_rating, :sets)`, matches)
	return err
}

func (s *FinalsStore) GetMatches(ctx context.Context, bracketID string) ([]bracket.FinalsMatch, error) {
	var matches []bracket.FinalsMatch
	err := s.db.SelectContext(ctx, &matches, s.db.Rebind(
		"SELECT * FROM finals_matches WHERE bracket_id = ? ORDER BY round_no ASC, match_no ASC"), bracketID)
	return matches, err
}

func (s *FinalsStore) GetMatchByNumberTx(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID, roundNo, matchNo int) (*bracket.FinalsMatch, error) {
	var match bracket.FinalsMatch
	err := tx.GetContext(ctx, &match, tx.Rebind(
		"SELECT * FROM finals_matches WHERE bracket_id = ? AND round_no = ? AND match_no = ?"),
		bracketID, roundNo, matchNo)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *FinalsStore) UpdateMatchTx(ctx context.Context, tx *sqlx.Tx, m *bracket.FinalsMatch) error {
	_, err := tx.NamedExecContext(ctx, `UPDATE finals_matches SET
		side_a = :side_a, side_b = :side_b, status = :status,
		winner_id = :winner_id, loser_id = :loser_id,
		winner_score = :winner_score, loser_score = :loser_score,
		end_reason = :end_reason, affects_rating = :affects_rating, sets = :sets
		WHERE id = :id`, m)
	return err
}

// UpsertSlotTx advances a winner into the next finals match, keyed by
// (bracket_id, round_no, match_no).
func (s *FinalsStore) UpsertSlotTx(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID, adv bracket.Advancement, winnerID uuid.UUID) error {
	var sideA, sideB *uuid.UUID
	slotColumn := "side_b"
	if adv.Slot == bracket.SlotA {
		slotColumn = "side_a"
		sideA = &winnerID
	} else {
		sideB = &winnerID
	}

	query := `INSERT INTO finals_matches (id, bracket_id, round_no, match_no, side_a, side_b, status, sets)
		VALUES (?, ?, ?, ?, ?, ?, ?, '[]')
		ON CONFLICT (bracket_id, round_no, match_no)
		DO UPDATE SET ` + slotColumn + ` = excluded.` + slotColumn

	_, err := tx.ExecContext(ctx, tx.Rebind(query),
		uuid.New(), bracketID, adv.RoundNo, adv.MatchNo, sideA, sideB, bracket.MatchScheduled)
	return err
}
