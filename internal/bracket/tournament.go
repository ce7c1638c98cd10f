package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentDraft     TournamentStatus = "draft"
	TournamentStarted   TournamentStatus = "started"
	TournamentCompleted TournamentStatus = "completed"
)

type TournamentMode string

const (
	ModeSingles TournamentMode = "singles"
	ModeTeams   TournamentMode = "teams"
)

type Tournament struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	Name          string           `db:"name" json:"name"`
	Mode          TournamentMode   `db:"mode" json:"mode"`
	Size          int              `db:"size" json:"size"`
	BestOf        int              `db:"best_of" json:"best_of"`
	PointCap      int              `db:"point_cap" json:"point_cap"`
	ApplyHandicap bool             `db:"apply_handicap" json:"apply_handicap"`
	StartsOn      *time.Time       `db:"starts_on" json:"starts_on,omitempty"`
	Status        TournamentStatus `db:"status" json:"status"`
	CreatedBy     uuid.UUID        `db:"created_by" json:"created_by"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// ValidSize reports whether n is one of the bracket sizes the club runs.
func ValidSize(n int) bool {
	switch n {
	case 4, 8, 16, 32:
		return true
	}
	return false
}

// NextPowerOfTwo rounds count up to the nearest power of two, so 5 becomes 8.
func NextPowerOfTwo(count int) int {
	if count <= 0 {
		return 0
	}
	size := 1
	for size < count {
		size *= 2
	}
	return size
}

func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Rounds returns how many rounds a bracket of the given size plays.
func Rounds(size int) int {
	rounds := 0
	for size > 1 {
		size /= 2
		rounds++
	}
	return rounds
}
