package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shuffleclub/server/internal/bracket"
	"github.com/shuffleclub/server/internal/middleware"
	"github.com/shuffleclub/server/internal/store"
)

var (
	ErrLockedSeeds   = errors.New("participants cannot change once play has begun")
	ErrInvalidSize   = errors.New("bracket size must be 4, 8, 16 or 32")
	ErrSeedConflict  = errors.New("seed numbers must be positive and unique")
	ErrModeMismatch  = errors.New("entry id type does not match tournament mode")
	ErrNoReporter    = errors.New("no reporter identity in request")
	ErrNotTournament = errors.New("match does not belong to a tournament")
)

type TournamentService struct {
	db      *sqlx.DB
	store   *store.TournamentStore
	matches *store.MatchStore
	players *store.PlayerStore
}

func NewTournamentService(db *sqlx.DB, ts *store.TournamentStore, ms *store.MatchStore, ps *store.PlayerStore) *TournamentService {
	return &TournamentService{db: db, store: ts, matches: ms, players: ps}
}

type TournamentInput struct {
	Name          string
	Mode          bracket.TournamentMode
	Size          int
	BestOf        int
	PointCap      int
	ApplyHandicap bool
	StartsOn      *time.Time
}

func (s *TournamentService) CreateTournament(ctx context.Context, input TournamentInput) (*bracket.Tournament, error) {
	if !bracket.ValidSize(input.Size) {
		return nil, ErrInvalidSize
	}
	if input.Mode != bracket.ModeSingles && input.Mode != bracket.ModeTeams {
		return nil, fmt.Errorf("unknown tournament mode %q", input.Mode)
	}
	if input.BestOf != 1 && input.BestOf != 3 {
		return nil, fmt.Errorf("best_of must be 1 or 3")
	}
	if input.PointCap <= 0 {
		input.PointCap = 15
	}

	createdBy, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNoReporter
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament := bracket.Tournament{
		ID:            uuid.New(),
		Name:          input.Name,
		Mode:          input.Mode,
		Size:          input.Size,
		BestOf:        input.BestOf,
		PointCap:      input.PointCap,
		ApplyHandicap: input.ApplyHandicap,
		StartsOn:      input.StartsOn,
		Status:        bracket.TournamentDraft,
		CreatedBy:     createdBy,
	}

	if err := s.store.CreateTournament(ctx, tx, &tournament); err != nil {
		return nil, err
	}

	return &tournament, tx.Commit()
}

func (s *TournamentService) GetTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	return s.store.GetTournaments(ctx)
}

type SeedInput struct {
	Seed     int
	PlayerID *uuid.UUID
	TeamID   *uuid.UUID
}

// ReplaceParticipants swaps the whole seed list in one transaction. It is
// rejected once the tournament has finalized matches or later rounds.
func (s *TournamentService) ReplaceParticipants(ctx context.Context, tournamentID string, inputs []SeedInput) error {
	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return err
	}

	seen := make(map[int]bool, len(inputs))
	seeds := make([]bracket.SeedEntry, 0, len(inputs))
	for _, in := range inputs {
		if in.Seed <= 0 || seen[in.Seed] {
			return ErrSeedConflict
		}
		seen[in.Seed] = true

		if tournament.Mode == bracket.ModeTeams && in.TeamID == nil ||
			tournament.Mode == bracket.ModeSingles && in.PlayerID == nil {
			return ErrModeMismatch
		}

		seeds = append(seeds, bracket.SeedEntry{
			TournamentID: tournament.ID,
			Seed:         in.Seed,
			PlayerID:     in.PlayerID,
			TeamID:       in.TeamID,
		})
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	started, err := s.matches.HasStartedTx(ctx, tx, tournamentID)
	if err != nil {
		return err
	}
	if started {
		return ErrLockedSeeds
	}

	if err := s.store.ReplaceSeeds(ctx, tx, tournamentID, seeds); err != nil {
		return err
	}

	return tx.Commit()
}

type GeneratedBracket struct {
	Tournament *bracket.Tournament
	Matches    []bracket.Match
	Dropped    []bracket.SeedEntry
}

// GenerateBracket recomputes round-1 pairings from the seed list and
// persists them, replacing any existing matches for the tournament.
// Re-runnable, and destructive of played results.
func (s *TournamentService) GenerateBracket(ctx context.Context, tournamentID string) (*GeneratedBracket, error) {
	reporter, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNoReporter
	}

	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	seeds, err := s.store.GetSeeds(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	result, err := bracket.SeedRound1(tournament.Mode, tournament.Size, seeds)
	if err != nil {
		return nil, err
	}

	matches := make([]bracket.Match, 0, len(result.Pairings))
	for _, p := range result.Pairings {
		sideA, sideB := p.SideA, p.SideB
		matches = append(matches, bracket.Match{
			ID:            uuid.New(),
			TournamentID:  &tournament.ID,
			RoundNo:       1,
			MatchNo:       p.MatchNo,
			SideA:         &sideA,
			SideB:         &sideB,
			Status:        bracket.MatchScheduled,
			EndReason:     bracket.EndNormal,
			AffectsRating: true,
			ReportedBy:    &reporter,
		})
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.matches.DeleteTournamentMatchesTx(ctx, tx, tournamentID); err != nil {
		return nil, err
	}
	if err := s.matches.CreateMatchesTx(ctx, tx, matches); err != nil {
		return nil, err
	}
	if tournament.Status == bracket.TournamentDraft {
		if err := s.store.UpdateTournamentStatusTx(ctx, tx, tournamentID, bracket.TournamentStarted); err != nil {
			return nil, err
		}
		tournament.Status = bracket.TournamentStarted
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &GeneratedBracket{Tournament: tournament, Matches: matches, Dropped: result.Dropped}, nil
}

// BracketSide is one resolved side of a match in the bracket view.
type BracketSide struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
}

type BracketMatchView struct {
	ID      uuid.UUID           `json:"id"`
	MatchNo int                 `json:"match_no"`
	Status  bracket.MatchStatus `json:"status"`
	A       *BracketSide        `json:"a"`
	B       *BracketSide        `json:"b"`
	Score   map[string]*int     `json:"score"`
}

type BracketView struct {
	Tournament *bracket.Tournament        `json:"tournament"`
	Rounds     map[int][]BracketMatchView `json:"rounds"`
}

// GetBracketView assembles the tournament's matches grouped by round, with
// participant ids resolved to display names and avatars.
func (s *TournamentService) GetBracketView(ctx context.Context, tournamentID string) (*BracketView, error) {
	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	matches, err := s.matches.GetMatches(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(matches)*2)
	for _, m := range matches {
		if m.SideA != nil {
			ids = append(ids, *m.SideA)
		}
		if m.SideB != nil {
			ids = append(ids, *m.SideB)
		}
	}

	resolve, err := s.resolveSides(ctx, tournament.Mode, ids)
	if err != nil {
		return nil, err
	}

	rounds := make(map[int][]BracketMatchView)
	for _, m := range matches {
		view := BracketMatchView{
			ID:      m.ID,
			MatchNo: m.MatchNo,
			Status:  m.Status,
			Score: map[string]*int{
				"winner": m.WinnerScore,
				"loser":  m.LoserScore,
			},
		}
		if m.SideA != nil {
			view.A = resolve(*m.SideA)
		}
		if m.SideB != nil {
			view.B = resolve(*m.SideB)
		}
		rounds[m.RoundNo] = append(rounds[m.RoundNo], view)
	}

	return &BracketView{Tournament: tournament, Rounds: rounds}, nil
}

func (s *TournamentService) resolveSides(ctx context.Context, mode bracket.TournamentMode, ids []uuid.UUID) (func(uuid.UUID) *BracketSide, error) {
	if mode == bracket.ModeTeams {
		teams, err := s.players.GetTeamsByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		return func(id uuid.UUID) *BracketSide {
			if t, ok := teams[id]; ok {
				return &BracketSide{ID: id, Name: t.Name}
			}
			return &BracketSide{ID: id, Name: "unknown"}
		}, nil
	}

	players, err := s.players.GetPlayersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return func(id uuid.UUID) *BracketSide {
		if p, ok := players[id]; ok {
			return &BracketSide{ID: id, Name: p.Name, AvatarURL: p.AvatarURL}
		}
		return &BracketSide{ID: id, Name: "unknown"}
	}, nil
}
