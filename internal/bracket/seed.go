package bracket

import (
	"errors"
	"sort"

	"github.com/google/uuid"
)

var ErrNotEnoughParticipants = errors.New("not enough participants")

// SeedEntry is one row of a tournament's seed list. Exactly one of PlayerID
// and TeamID is set, matching the tournament's mode.
type SeedEntry struct {
	TournamentID uuid.UUID  `db:"tournament_id" json:"tournament_id"`
	Seed         int        `db:"seed" json:"seed"`
	PlayerID     *uuid.UUID `db:"player_id" json:"player_id,omitempty"`
	TeamID       *uuid.UUID `db:"team_id" json:"team_id,omitempty"`
}

// ParticipantID returns the id relevant to the given mode, or nil when the
// entry does not carry one.
func (e SeedEntry) ParticipantID(mode TournamentMode) *uuid.UUID {
	if mode == ModeTeams {
		return e.TeamID
	}
	return e.PlayerID
}

// Pairing is a round-1 matchup decision: high seed on side A, low seed on
// side B, numbered from 1.
type Pairing struct {
	MatchNo int
	SideA   uuid.UUID
	SideB   uuid.UUID
}

// SeedResult carries the pairings plus the entries the seeder had to drop
// to fit the usable bracket size.
type SeedResult struct {
	Size     int
	Pairings []Pairing
	Dropped  []SeedEntry
}

// SeedRound1 pairs the top N seeds high-vs-low: seed 1 meets seed N, seed 2
// meets seed N-1, and so on. N is the largest power of two not above the
// declared size or the valid entry count; entries past N are dropped, not
// rejected.
func SeedRound1(mode TournamentMode, declaredSize int, entries []SeedEntry) (*SeedResult, error) {
	valid := make([]SeedEntry, 0, len(entries))
	for _, e := range entries {
		if e.ParticipantID(mode) != nil {
			valid = append(valid, e)
		}
	}
	if len(valid) < 2 {
		return nil, ErrNotEnoughParticipants
	}

	sort.Slice(valid, func(i, j int) bool { return valid[i].Seed < valid[j].Seed })

	n := declaredSize
	if len(valid) < n {
		n = len(valid)
	}
	if !IsPowerOfTwo(n) {
		// Largest usable power-of-two subset.
		n = NextPowerOfTwo(n) / 2
	}
	if n < 2 {
		return nil, ErrNotEnoughParticipants
	}

	pairings := make([]Pairing, 0, n/2)
	for i := 0; i < n/2; i++ {
		pairings = append(pairings, Pairing{
			MatchNo: i + 1,
			SideA:   *valid[i].ParticipantID(mode),
			SideB:   *valid[n-1-i].ParticipantID(mode),
		})
	}

	return &SeedResult{
		Size:     n,
		Pairings: pairings,
		Dropped:  valid[n:],
	}, nil
}
