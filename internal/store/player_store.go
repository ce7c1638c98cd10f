package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shuffleclub/server/internal/club"
)

type PlayerStore struct {
	db *sqlx.DB
}

func NewPlayerStore(db *sqlx.DB) *PlayerStore {
	return &PlayerStore{db: db}
}

func (s *PlayerStore) CreatePlayer(ctx context.Context, p *club.Player) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO players (id, name, avatar_url, handicap, rating_points, active)
		VALUES (:id, :name, :avatar_url, :handicap, :rating_points, :active)`, p)
	return err
}

func (s *PlayerStore) GetPlayer(ctx context.Context, id string) (*club.Player, error) {
	var player club.Player
	err := s.db.GetContext(ctx, &player, s.db.Rebind("SELECT * FROM players WHERE id = ?"), id)
	return &player, err
}

func (s *PlayerStore) GetPlayers(ctx context.Context) ([]club.Player, error) {
	var players []club.Player
	err := s.db.SelectContext(ctx, &players, "SELECT * FROM players ORDER BY name ASC")
	return players, err
}

func (s *PlayerStore) GetPlayersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]club.Player, error) {
	result := make(map[uuid.UUID]club.Player, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In("SELECT * FROM players WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}

	var players []club.Player
	if err := s.db.SelectContext(ctx, &players, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, p := range players {
		result[p.ID] = p
	}
	return result, nil
}

// GetDefaultPlayer finds the club's placeholder participant used to pad
// finals brackets.
func (s *PlayerStore) GetDefaultPlayer(ctx context.Context) (*club.Player, error) {
	var player club.Player
	err := s.db.GetContext(ctx, &player, s.db.Rebind("SELECT * FROM players WHERE name = ? LIMIT 1"), club.DefaultPlayerName)
	return &player, err
}

// GetRankings lists active players by rating, best first.
func (s *PlayerStore) GetRankings(ctx context.Context) ([]club.Player, error) {
	var players []club.Player
	err := s.db.SelectContext(ctx, &players, s.db.Rebind(
		"SELECT * FROM players WHERE active = ? ORDER BY rating_points DESC, name ASC"), true)
	return players, err
}

func (s *PlayerStore) AdjustRatingTx(ctx context.Context, tx *sqlx.Tx, playerID uuid.UUID, delta int) (int, error) {
	_, err := tx.ExecContext(ctx, tx.Rebind("UPDATE players SET rating_points = rating_points + ? WHERE id = ?"), delta, playerID)
	if err != nil {
		return 0, err
	}
	var after int
	err = tx.GetContext(ctx, &after, tx.Rebind("SELECT rating_points FROM players WHERE id = ?"), playerID)
	return after, err
}

func (s *PlayerStore) CreateRatingEventTx(ctx context.Context, tx *sqlx.Tx, ev *club.RatingEvent) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO rating_events (id, player_id, match_id, delta, rating_after)
		VALUES (:id, :player_id, :match_id, :delta, :rating_after)`, ev)
	return err
}

func (s *PlayerStore) GetRatingEvents(ctx context.Context, playerID string) ([]club.RatingEvent, error) {
	var events []club.RatingEvent
	err := s.db.SelectContext(ctx, &events, s.db.Rebind(
		"SELECT * FROM rating_events WHERE player_id = ? ORDER BY created_at DESC"), playerID)
	return events, err
}

func (s *PlayerStore) CreateTeam(ctx context.Context, team *club.Team) error {
	_, err := s.db.NamedExecContext(ctx, "INSERT INTO teams (id, name) VALUES (:id, :name)", team)
	return err
}

func (s *PlayerStore) GetTeam(ctx context.Context, id string) (*club.Team, error) {
	var team club.Team
	err := s.db.GetContext(ctx, &team, s.db.Rebind("SELECT * FROM teams WHERE id = ?"), id)
	return &team, err
}

func (s *PlayerStore) GetTeamsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]club.Team, error) {
	result := make(map[uuid.UUID]club.Team, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In("SELECT * FROM teams WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}

	var teams []club.Team
	if err := s.db.SelectContext(ctx, &teams, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, t := range teams {
		result[t.ID] = t
	}
	return result, nil
}

func (s *PlayerStore) AddTeamMember(ctx context.Context, m *club.TeamMember) error {
	_, err := s.db.NamedExecContext(ctx, "INSERT INTO team_members (team_id, player_id) VALUES (:team_id, :player_id)", m)
	return err
}
