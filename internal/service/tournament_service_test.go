package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shuffleclub/server/internal/bracket"
	"github.com/shuffleclub/server/internal/club"
	"github.com/shuffleclub/server/internal/store"
	"github.com/shuffleclub/server/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedInputsFor(players []club.Player) []SeedInput {
	inputs := make([]SeedInput, 0, len(players))
	for i := range players {
		inputs = append(inputs, SeedInput{Seed: i + 1, PlayerID: utils.Ptr(players[i].ID)})
	}
	return inputs
}

// seedTeams pairs up the given players into two-player teams.
func seedTeams(t *testing.T, db *sqlx.DB, players []club.Player) []club.Team {
	t.Helper()

	playerStore := store.NewPlayerStore(db)
	teams := make([]club.Team, 0, len(players)/2)
	for i := 0; i+1 < len(players); i += 2 {
		team := club.Team{ID: uuid.New(), Name: "Team " + string(rune('A'+i/2))}
		require.NoError(t, playerStore.CreateTeam(context.Background(), &team))
		require.NoError(t, playerStore.AddTeamMember(context.Background(), &club.TeamMember{TeamID: team.ID, PlayerID: players[i].ID}))
		require.NoError(t, playerStore.AddTeamMember(context.Background(), &club.TeamMember{TeamID: team.ID, PlayerID: players[i+1].ID}))
		teams = append(teams, team)
	}
	return teams
}

func TestCreateTournament(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tournaments, _, _, _ := newTestServices(db)
	ctx := operatorContext(t, db)

	testCases := []struct {
		name        string
		input       TournamentInput
		expectError bool
	}{
		{
			name:  "valid singles tournament",
			input: TournamentInput{Name: "Spring Open", Mode: bracket.ModeSingles, Size: 8, BestOf: 1, PointCap: 15},
		},
		{
			name:  "valid teams tournament",
			input: TournamentInput{Name: "Doubles Night", Mode: bracket.ModeTeams, Size: 4, BestOf: 3, PointCap: 21},
		},
		{
			name:        "size must be a power of two from the allowed set",
			input:       TournamentInput{Name: "Odd", Mode: bracket.ModeSingles, Size: 6, BestOf: 1},
			expectError: true,
		},
		{
			name:        "best of five is not played",
			input:       TournamentInput{Name: "Marathon", Mode: bracket.ModeSingles, Size: 8, BestOf: 5},
			expectError: true,
		},
		{
			name:        "unknown mode",
			input:       TournamentInput{Name: "Mystery", Mode: "mixed", Size: 8, BestOf: 1},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tournament, err := tournaments.CreateTournament(ctx, tc.input)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, bracket.TournamentDraft, tournament.Status)

			stored, err := tournaments.store.GetTournament(ctx, tournament.ID.String())
			require.NoError(t, err)
			assert.Equal(t, tc.input.Name, stored.Name)
			assert.Equal(t, tc.input.Size, stored.Size)
		})
	}
}

func TestCreateTournamentDefaultsPointCap(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tournaments, _, _, _ := newTestServices(db)
	ctx := operatorContext(t, db)

	tournament, err := tournaments.CreateTournament(ctx, TournamentInput{
		Name: "Capless", Mode: bracket.ModeSingles, Size: 4, BestOf: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, tournament.PointCap)
}

func TestReplaceParticipants(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tournaments, _, _, _ := newTestServices(db)
	ctx := operatorContext(t, db)
	players := seedPlayers(t, db, 4)

	tournament, err := tournaments.CreateTournament(ctx, TournamentInput{
		Name: "Club Cup", Mode: bracket.ModeSingles, Size: 4, BestOf: 1,
	})
	require.NoError(t, err)

	require.NoError(t, tournaments.ReplaceParticipants(ctx, tournament.ID.String(), seedInputsFor(players)))

	seeds, err := tournaments.store.GetSeeds(ctx, tournament.ID.String())
	require.NoError(t, err)
	require.Len(t, seeds, 4)

	// Wholesale replacement: the new list fully supersedes the old one.
	require.NoError(t, tournaments.ReplaceParticipants(ctx, tournament.ID.String(), seedInputsFor(players[:2])))
	seeds, err = tournaments.store.GetSeeds(ctx, tournament.ID.String())
	require.NoError(t, err)
	require.Len(t, seeds, 2)
}

func TestReplaceParticipantsValidation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tournaments, _, _, _ := newTestServices(db)
	ctx := operatorContext(t, db)
	players := seedPlayers(t, db, 2)

	tournament, err := tournaments.CreateTournament(ctx, TournamentInput{
		Name: "Club Cup", Mode: bracket.ModeSingles, Size: 4, BestOf: 1,
	})
	require.NoError(t, err)

	duplicate := seedInputsFor(players)
	duplicate[1].Seed = duplicate[0].Seed
	assert.ErrorIs(t, tournaments.ReplaceParticipants(ctx, tournament.ID.String(), duplicate), ErrSeedConflict)

	missingID := seedInputsFor(players)
	missingID[0].PlayerID = nil
	assert.ErrorIs(t, tournaments.ReplaceParticipants(ctx, tournament.ID.String(), missingID), ErrModeMismatch)
}

func TestReplaceParticipantsLockedAfterPlay(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tournaments, matches, _, _ := newTestServices(db)
	ctx := operatorContext(t, db)
	players := seedPlayers(t, db, 4)

	tournament, err := tournaments.CreateTournament(ctx, TournamentInput{
		Name: "Club Cup", Mode: bracket.ModeSingles, Size: 4, BestOf: 1,
	})
	require.NoError(t, err)
	require.NoError(t, tournaments.ReplaceParticipants(ctx, tournament.ID.String(), seedInputsFor(players)))

	_, err = tournaments.GenerateBracket(ctx, tournament.ID.String())
	require.NoError(t, err)

	// Still replaceable while everything is merely scheduled.
	require.NoError(t, tournaments.ReplaceParticipants(ctx, tournament.ID.String(), seedInputsFor(players)))

	generated, err := tournaments.GenerateBracket(ctx, tournament.ID.String())
	require.NoError(t, err)
	first := generated.Matches[0]
	_, err = matches.Report(ctx, first.ID.String(), ReportInput{
		WinnerID: *first.SideA, LoserID: *first.SideB, LoserScore: 9,
	})
	require.NoError(t, err)

	err = tournaments.ReplaceParticipants(ctx, tournament.ID.String(), seedInputsFor(players))
	assert.ErrorIs(t, err, ErrLockedSeeds)
}

func TestGenerateBracket(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tournaments, _, _, _ := newTestServices(db)
	ctx := operatorContext(t, db)
	players := seedPlayers(t, db, 8)

	tournament, err := tournaments.CreateTournament(ctx, TournamentInput{
		Name: "Autumn Open", Mode: bracket.ModeSingles, Size: 8, BestOf: 1,
	})
	require.NoError(t, err)
	require.NoError(t, tournaments.ReplaceParticipants(ctx, tournament.ID.String(), seedInputsFor(players)))

	generated, err := tournaments.GenerateBracket(ctx, tournament.ID.String())
	require.NoError(t, err)
	require.Len(t, generated.Matches, 4)
	assert.Equal(t, bracket.TournamentStarted, generated.Tournament.Status)

	// Seed 1 vs seed 8, seed 2 vs seed 7, seed 3 vs seed 6, seed 4 vs seed 5.
	for i, m := range generated.Matches {
		assert.Equal(t, 1, m.RoundNo)
		assert.Equal(t, i+1, m.MatchNo)
		assert.Equal(t, players[i].ID, *m.SideA)
		assert.Equal(t, players[8-1-i].ID, *m.SideB)
		assert.Equal(t, bracket.MatchScheduled, m.Status)
	}
}

func TestGenerateBracketTeamsMode(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tournaments, _, _, _ := newTestServices(db)
	ctx := operatorContext(t, db)
	players := seedPlayers(t, db, 8)
	teams := seedTeams(t, db, players)
	require.Len(t, teams, 4)

	stored, err := store.NewPlayerStore(db).GetTeam(ctx, teams[0].ID.String())
	require.NoError(t, err)
	assert.Equal(t, teams[0].Name, stored.Name)

	tournament, err := tournaments.CreateTournament(ctx, TournamentInput{
		Name: "Doubles Cup", Mode: bracket.ModeTeams, Size: 4, BestOf: 1,
	})
	require.NoError(t, err)

	seeds := make([]SeedInput, 0, len(teams))
	for i := range teams {
		seeds = append(seeds, SeedInput{Seed: i + 1, TeamID: utils.Ptr(teams[i].ID)})
	}
	require.NoError(t, tournaments.ReplaceParticipants(ctx, tournament.ID.String(), seeds))

	generated, err := tournaments.GenerateBracket(ctx, tournament.ID.String())
	require.NoError(t, err)
	require.Len(t, generated.Matches, 2)
	assert.Equal(t, teams[0].ID, *generated.Matches[0].SideA)
	assert.Equal(t, teams[3].ID, *generated.Matches[0].SideB)

	view, err := tournaments.GetBracketView(ctx, tournament.ID.String())
	require.NoError(t, err)
	match1 := view.Rounds[1][0]
	assert.Equal(t, teams[0].Name, match1.A.Name)
	assert.Equal(t, teams[3].Name, match1.B.Name)
}

func TestGenerateBracketNotEnoughParticipants(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tournaments, _, _, _ := newTestServices(db)
	ctx := operatorContext(t, db)
	players := seedPlayers(t, db, 1)

	tournament, err := tournaments.CreateTournament(ctx, TournamentInput{
		Name: "Empty Cup", Mode: bracket.ModeSingles, Size: 4, BestOf: 1,
	})
	require.NoError(t, err)
	require.NoError(t, tournaments.ReplaceParticipants(ctx, tournament.ID.String(), seedInputsFor(players)))

	_, err = tournaments.GenerateBracket(ctx, tournament.ID.String())
	assert.ErrorIs(t, err, bracket.ErrNotEnoughParticipants)
}

func TestGenerateBracketIsIdempotentAndDestructive(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tournaments, matches, _, _ := newTestServices(db)
	ctx := operatorContext(t, db)
	players := seedPlayers(t, db, 4)

	tournament, err := tournaments.CreateTournament(ctx, TournamentInput{
		Name: "Rerun Cup", Mode: bracket.ModeSingles, Size: 4, BestOf: 1,
	})
	require.NoError(t, err)
	require.NoError(t, tournaments.ReplaceParticipants(ctx, tournament.ID.String(), seedInputsFor(players)))

	first, err := tournaments.GenerateBracket(ctx, tournament.ID.String())
	require.NoError(t, err)

	// Play out match 1, then regenerate.
	m1 := first.Matches[0]
	_, err = matches.Report(ctx, m1.ID.String(), ReportInput{
		WinnerID: *m1.SideA, LoserID: *m1.SideB, LoserScore: 7,
	})
	require.NoError(t, err)

	second, err := tournaments.GenerateBracket(ctx, tournament.ID.String())
	require.NoError(t, err)
	require.Len(t, second.Matches, len(first.Matches))

	// Same pairing set, and the interim result is gone.
	for i := range first.Matches {
		assert.Equal(t, *first.Matches[i].SideA, *second.Matches[i].SideA)
		assert.Equal(t, *first.Matches[i].SideB, *second.Matches[i].SideB)
	}

	stored, err := matches.store.GetMatches(ctx, tournament.ID.String())
	require.NoError(t, err)
	for _, m := range stored {
		assert.Equal(t, bracket.MatchScheduled, m.Status)
		assert.Nil(t, m.WinnerID)
	}
}

func TestGetBracketViewResolvesNames(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tournaments, _, _, _ := newTestServices(db)
	ctx := operatorContext(t, db)
	players := seedPlayers(t, db, 4)

	tournament, err := tournaments.CreateTournament(ctx, TournamentInput{
		Name: "View Cup", Mode: bracket.ModeSingles, Size: 4, BestOf: 1,
	})
	require.NoError(t, err)
	require.NoError(t, tournaments.ReplaceParticipants(ctx, tournament.ID.String(), seedInputsFor(players)))
	_, err = tournaments.GenerateBracket(ctx, tournament.ID.String())
	require.NoError(t, err)

	view, err := tournaments.GetBracketView(ctx, tournament.ID.String())
	require.NoError(t, err)
	require.Len(t, view.Rounds[1], 2)

	match1 := view.Rounds[1][0]
	assert.Equal(t, players[0].Name, match1.A.Name)
	assert.Equal(t, players[3].Name, match1.B.Name)
}
