package service

import (
	"context"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shuffleclub/server/internal/club"
	"github.com/shuffleclub/server/internal/middleware"
	"github.com/shuffleclub/server/internal/store"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

func seedOperator(t *testing.T, db *sqlx.DB) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec("INSERT INTO users (id, email, username, is_admin) VALUES (?, ?, ?, ?)",
		id, "operator@shuffleclub.test", "operator", true)
	require.NoError(t, err)
	return id
}

func operatorContext(t *testing.T, db *sqlx.DB) context.Context {
	t.Helper()
	return context.WithValue(context.Background(), middleware.UserIDKey, seedOperator(t, db))
}

func seedPlayers(t *testing.T, db *sqlx.DB, n int) []club.Player {
	t.Helper()

	playerStore := store.NewPlayerStore(db)
	players := make([]club.Player, 0, n)
	for i := 0; i < n; i++ {
		p := club.Player{
			ID:           uuid.New(),
			Name:         "Player " + string(rune('A'+i)),
			RatingPoints: 1000,
			Active:       true,
		}
		require.NoError(t, playerStore.CreatePlayer(context.Background(), &p))
		players = append(players, p)
	}
	return players
}

func seedDefaultPlayer(t *testing.T, db *sqlx.DB) club.Player {
	t.Helper()

	playerStore := store.NewPlayerStore(db)
	p := club.Player{
		ID:           uuid.New(),
		Name:         club.DefaultPlayerName,
		RatingPoints: 1000,
		Active:       false,
	}
	require.NoError(t, playerStore.CreatePlayer(context.Background(), &p))
	return p
}

func newTestServices(db *sqlx.DB) (*TournamentService, *MatchService, *FinalsService, *RankingService) {
	playerStore := store.NewPlayerStore(db)
	tournamentStore := store.NewTournamentStore(db)
	matchStore := store.NewMatchStore(db)
	finalsStore := store.NewFinalsStore(db)

	rankings := NewRankingService(db, playerStore)
	tournaments := NewTournamentService(db, tournamentStore, matchStore, playerStore)
	matches := NewMatchService(db, matchStore, tournamentStore, rankings)
	finals := NewFinalsService(db, finalsStore, tournamentStore, playerStore, rankings)
	return tournaments, matches, finals, rankings
}
