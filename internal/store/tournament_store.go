package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shuffleclub/server/internal/bracket"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, name, mode, size, best_of, point_cap, apply_handicap, starts_on, status, created_by)
        VALUES (:id, :name, :mode, :size, :best_of, :point_cap, :apply_handicap, :starts_on, :status, :created_by)`, tournament)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id string) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := s.db.GetContext(ctx, &tournament, s.db.Rebind("SELECT * FROM tournaments WHERE id = ?"), id)
	return &tournament, err
}

func (s *TournamentStore) GetTournamentTx(ctx context.Context, tx *sqlx.Tx, id string) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := tx.GetContext(ctx, &tournament, tx.Rebind("SELECT * FROM tournaments WHERE id = ?"), id)
	return &tournament, err
}

func (s *TournamentStore) GetTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments ORDER BY created_at DESC")
	return tournaments, err
}

func (s *TournamentStore) UpdateTournamentStatusTx(ctx context.Context, tx *sqlx.Tx, id string, status bracket.TournamentStatus) error {
	_, err := tx.ExecContext(ctx, tx.Rebind("UPDATE tournaments SET status = ? WHERE id = ?"), status, id)
	return err
}

func (s *TournamentStore) GetSeeds(ctx context.Context, tournamentID string) ([]bracket.SeedEntry, error) {
	var seeds []bracket.SeedEntry
	err := s.db.SelectContext(ctx, &seeds, s.db.Rebind(
		"SELECT * FROM tournament_seeds WHERE tournament_id = ? ORDER BY seed ASC"), tournamentID)
	return seeds, err
}

// ReplaceSeeds swaps the tournament's whole seed list inside the caller's
// transaction, so a failed insert cannot leave the list empty.
func (s *TournamentStore) ReplaceSeeds(ctx context.Context, tx *sqlx.Tx, tournamentID string, seeds []bracket.SeedEntry) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM tournament_seeds WHERE tournament_id = ?"), tournamentID); err != nil {
		return err
	}
	if len(seeds) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournament_seeds (tournament_id, seed, player_id, team_id)
        VALUES (:tournament_id, :seed, :player_id, :team_id)`, seeds)
	return err
}
