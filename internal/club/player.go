package club

import (
	"time"

	"github.com/google/uuid"
)

// Player is a registered club member who appears in rankings and brackets.
type Player struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	AvatarURL    *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	Handicap     int       `db:"handicap" json:"handicap"`
	RatingPoints int       `db:"rating_points" json:"rating_points"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DefaultPlayerName marks the club's placeholder participant used to pad
// finals brackets to a power of two.
const DefaultPlayerName = "default"

type Team struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type TeamMember struct {
	TeamID   uuid.UUID `db:"team_id" json:"team_id"`
	PlayerID uuid.UUID `db:"player_id" json:"player_id"`
}

// RatingEvent is one per rating-affecting side of a finalized match.
type RatingEvent struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PlayerID    uuid.UUID `db:"player_id" json:"player_id"`
	MatchID     uuid.UUID `db:"match_id" json:"match_id"`
	Delta       int       `db:"delta" json:"delta"`
	RatingAfter int       `db:"rating_after" json:"rating_after"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
