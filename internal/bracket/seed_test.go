package bracket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playerSeeds(n int) ([]SeedEntry, []uuid.UUID) {
	ids := make([]uuid.UUID, n)
	entries := make([]SeedEntry, n)
	for i := 0; i < n; i++ {
		ids[i] = uuid.New()
		id := ids[i]
		entries[i] = SeedEntry{Seed: i + 1, PlayerID: &id}
	}
	return entries, ids
}

func TestSeedRound1HighVsLow(t *testing.T) {
	entries, ids := playerSeeds(8)

	result, err := SeedRound1(ModeSingles, 8, entries)
	require.NoError(t, err)

	require.Len(t, result.Pairings, 4)
	assert.Empty(t, result.Dropped)

	// Seed 1 meets seed 8, seed 2 meets seed 7, and so on.
	for i, p := range result.Pairings {
		assert.Equal(t, i+1, p.MatchNo)
		assert.Equal(t, ids[i], p.SideA)
		assert.Equal(t, ids[8-1-i], p.SideB)
	}
}

func TestSeedRound1SizeCases(t *testing.T) {
	testCases := []struct {
		name          string
		entries       int
		declaredSize  int
		expectedPairs int
		expectedDrops int
	}{
		{name: "full bracket of 4", entries: 4, declaredSize: 4, expectedPairs: 2},
		{name: "full bracket of 16", entries: 16, declaredSize: 16, expectedPairs: 8},
		{name: "declared size caps entries", entries: 10, declaredSize: 8, expectedPairs: 4, expectedDrops: 2},
		{name: "non power of two truncates down", entries: 7, declaredSize: 8, expectedPairs: 2, expectedDrops: 3},
		{name: "three entries use two", entries: 3, declaredSize: 8, expectedPairs: 1, expectedDrops: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entries, _ := playerSeeds(tc.entries)
			result, err := SeedRound1(ModeSingles, tc.declaredSize, entries)
			require.NoError(t, err)
			assert.Len(t, result.Pairings, tc.expectedPairs)
			assert.Len(t, result.Dropped, tc.expectedDrops)
		})
	}
}

func TestSeedRound1NotEnoughParticipants(t *testing.T) {
	entries, _ := playerSeeds(1)
	_, err := SeedRound1(ModeSingles, 8, entries)
	assert.ErrorIs(t, err, ErrNotEnoughParticipants)

	_, err = SeedRound1(ModeSingles, 8, nil)
	assert.ErrorIs(t, err, ErrNotEnoughParticipants)
}

func TestSeedRound1FiltersByMode(t *testing.T) {
	// Two team entries and two player-only entries: in teams mode only the
	// team entries count.
	teamA, teamB := uuid.New(), uuid.New()
	playerEntries, _ := playerSeeds(2)
	entries := []SeedEntry{
		{Seed: 1, TeamID: &teamA},
		playerEntries[0],
		{Seed: 3, TeamID: &teamB},
		playerEntries[1],
	}

	result, err := SeedRound1(ModeTeams, 4, entries)
	require.NoError(t, err)
	require.Len(t, result.Pairings, 1)
	assert.Equal(t, teamA, result.Pairings[0].SideA)
	assert.Equal(t, teamB, result.Pairings[0].SideB)
}

func TestSeedRound1SortsBySeed(t *testing.T) {
	entries, ids := playerSeeds(4)
	shuffled := []SeedEntry{entries[2], entries[0], entries[3], entries[1]}

	result, err := SeedRound1(ModeSingles, 4, shuffled)
	require.NoError(t, err)
	require.Len(t, result.Pairings, 2)
	assert.Equal(t, ids[0], result.Pairings[0].SideA)
	assert.Equal(t, ids[3], result.Pairings[0].SideB)
	assert.Equal(t, ids[1], result.Pairings[1].SideA)
	assert.Equal(t, ids[2], result.Pairings[1].SideB)
}

func TestNextPowerOfTwo(t *testing.T) {
	assert.Equal(t, 0, NextPowerOfTwo(0))
	assert.Equal(t, 1, NextPowerOfTwo(1))
	assert.Equal(t, 2, NextPowerOfTwo(2))
	assert.Equal(t, 4, NextPowerOfTwo(3))
	assert.Equal(t, 8, NextPowerOfTwo(5))
	assert.Equal(t, 32, NextPowerOfTwo(17))
}

func TestRounds(t *testing.T) {
	assert.Equal(t, 2, Rounds(4))
	assert.Equal(t, 3, Rounds(8))
	assert.Equal(t, 4, Rounds(16))
	assert.Equal(t, 5, Rounds(32))
}
