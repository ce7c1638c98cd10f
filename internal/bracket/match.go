package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchPlaying   MatchStatus = "playing"
	MatchFinalized MatchStatus = "finalized"
)

type EndReason string

const (
	EndNormal    EndReason = "normal"
	EndTimeLimit EndReason = "time_limit"
	EndWalkover  EndReason = "walkover"
	EndForfeit   EndReason = "forfeit"
)

func (r EndReason) Valid() bool {
	switch r {
	case EndNormal, EndTimeLimit, EndWalkover, EndForfeit:
		return true
	}
	return false
}

// Match is one game between two participants. SideA/SideB hold player or
// team ids depending on the tournament's mode; TournamentID is nil for
// friendly club matches recorded outside any bracket.
type Match struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	TournamentID *uuid.UUID `db:"tournament_id" json:"tournament_id,omitempty"`

	RoundNo int `db:"round_no" json:"round_no"`
	MatchNo int `db:"match_no" json:"match_no"`

	SideA *uuid.UUID `db:"side_a" json:"side_a,omitempty"`
	SideB *uuid.UUID `db:"side_b" json:"side_b,omitempty"`

	Status MatchStatus `db:"status" json:"status"`

	WinnerID      *uuid.UUID `db:"winner_id" json:"winner_id,omitempty"`
	LoserID       *uuid.UUID `db:"loser_id" json:"loser_id,omitempty"`
	WinnerScore   *int       `db:"winner_score" json:"winner_score,omitempty"`
	LoserScore    *int       `db:"loser_score" json:"loser_score,omitempty"`
	EndReason     EndReason  `db:"end_reason" json:"end_reason"`
	AffectsRating bool       `db:"affects_rating" json:"affects_rating"`

	ReportedBy *uuid.UUID `db:"reported_by" json:"reported_by,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// HasBothSides reports whether the match is ready to take a result.
func (m *Match) HasBothSides() bool {
	return m.SideA != nil && m.SideB != nil
}

// RatingImpact applies the club rule that only normally-ended matches move
// ratings. The requested value is honoured only for normal endings.
func RatingImpact(reason EndReason, requested bool) bool {
	if reason != EndNormal {
		return false
	}
	return requested
}
