package bracket

import (
	"time"

	"github.com/google/uuid"
)

// FinalsBracket is the post-league knockout stage. It keeps its own round
// entries and matches, separate from the regular matches table, and records
// the champion once the deciding match finalizes.
type FinalsBracket struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	TournamentID uuid.UUID  `db:"tournament_id" json:"tournament_id"`
	Title        string     `db:"title" json:"title"`
	Size         int        `db:"size" json:"size"`
	ChampionID   *uuid.UUID `db:"champion_id" json:"champion_id,omitempty"`
	CreatedBy    uuid.UUID  `db:"created_by" json:"created_by"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// FinalsEntry places a player in a round slot. IsDefault marks players who
// advanced on a bye rather than a played win; the advantage rule keys off
// it.
type FinalsEntry struct {
	BracketID uuid.UUID `db:"bracket_id" json:"bracket_id"`
	RoundNo   int       `db:"round_no" json:"round_no"`
	SlotNo    int       `db:"slot_no" json:"slot_no"`
	PlayerID  uuid.UUID `db:"player_id" json:"player_id"`
	IsDefault bool      `db:"is_default" json:"is_default"`
}

// Set is one game of a best-of series.
type Set struct {
	GameNo     int       `json:"game_no"`
	WinnerID   uuid.UUID `json:"winner_id"`
	DefaultWin bool      `json:"default_win,omitempty"`
}

type FinalsMatch struct {
	ID        uuid.UUID `db:"id" json:"id"`
	BracketID uuid.UUID `db:"bracket_id" json:"bracket_id"`
	RoundNo   int       `db:"round_no" json:"round_no"`
	MatchNo   int       `db:"match_no" json:"match_no"`

	SideA *uuid.UUID `db:"side_a" json:"side_a,omitempty"`
	SideB *uuid.UUID `db:"side_b" json:"side_b,omitempty"`

	Status        MatchStatus `db:"status" json:"status"`
	WinnerID      *uuid.UUID  `db:"winner_id" json:"winner_id,omitempty"`
	LoserID       *uuid.UUID  `db:"loser_id" json:"loser_id,omitempty"`
	WinnerScore   *int        `db:"winner_score" json:"winner_score,omitempty"`
	LoserScore    *int        `db:"loser_score" json:"loser_score,omitempty"`
	EndReason     EndReason   `db:"end_reason" json:"end_reason"`
	AffectsRating bool        `db:"affects_rating" json:"affects_rating"`
	Sets          SetList     `db:"sets" json:"sets,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AdvantageGame decides whether a best-of-3 finals match starts with an
// automatic game-1 win. When exactly one finalist reached the match on a
// default bye, the finalist who won their way in takes game 1, unless a
// game 1 was already recorded.
func AdvantageGame(aDefault, bDefault bool, a, b uuid.UUID, recorded []Set) (*Set, bool) {
	for _, s := range recorded {
		if s.GameNo == 1 {
			return nil, false
		}
	}
	if aDefault == bDefault {
		return nil, false
	}
	winner := a
	if aDefault {
		winner = b
	}
	return &Set{GameNo: 1, WinnerID: winner, DefaultWin: true}, true
}
