package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shuffleclub/server/internal/bracket"
	"github.com/shuffleclub/server/internal/middleware"
	"github.com/shuffleclub/server/internal/store"
)

var (
	ErrMissingSides     = errors.New("match sides are not populated yet")
	ErrWinnerNotInMatch = errors.New("winner is not part of this match")
	ErrSameParticipant  = errors.New("winner and loser must differ")
	ErrNegativeScore    = errors.New("loser score must be non-negative")
	ErrBadEndReason     = errors.New("unknown end reason")
)

type MatchService struct {
	db          *sqlx.DB
	store       *store.MatchStore
	tournaments *store.TournamentStore
	rankings    *RankingService
}

func NewMatchService(db *sqlx.DB, ms *store.MatchStore, ts *store.TournamentStore, rs *RankingService) *MatchService {
	return &MatchService{db: db, store: ms, tournaments: ts, rankings: rs}
}

type ReportInput struct {
	WinnerID   uuid.UUID
	LoserID    uuid.UUID
	LoserScore int
	EndReason  bracket.EndReason
}

type ReportResult struct {
	Match            *bracket.Match
	TournamentDone   bool
	AlreadyFinalized bool
	Warning          string
}

// Report finalizes a match and, for tournament matches, advances the
// winner into the next round's slot. Reports against already-finalized
// matches succeed without touching the recorded scores.
func (s *MatchService) Report(ctx context.Context, matchID string, input ReportInput) (*ReportResult, error) {
	reporter, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNoReporter
	}

	if input.EndReason == "" {
		input.EndReason = bracket.EndNormal
	}
	if !input.EndReason.Valid() {
		return nil, ErrBadEndReason
	}
	if input.WinnerID == input.LoserID {
		return nil, ErrSameParticipant
	}
	if input.LoserScore < 0 {
		return nil, ErrNegativeScore
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.store.GetMatchTx(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}

	if match.Status == bracket.MatchFinalized {
		return &ReportResult{Match: match, AlreadyFinalized: true}, nil
	}

	if !match.HasBothSides() {
		return nil, ErrMissingSides
	}
	sidesMatch := (*match.SideA == input.WinnerID && *match.SideB == input.LoserID) ||
		(*match.SideA == input.LoserID && *match.SideB == input.WinnerID)
	if !sidesMatch {
		return nil, ErrWinnerNotInMatch
	}

	var tournament *bracket.Tournament
	if match.TournamentID != nil {
		tournament, err = s.tournaments.GetTournamentTx(ctx, tx, match.TournamentID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to load tournament: %w", err)
		}
	}

	winnerScore := input.LoserScore
	if tournament != nil {
		// Winner score is implicit: the tournament's point cap.
		winnerScore = tournament.PointCap
	}

	match.Status = bracket.MatchFinalized
	match.WinnerID = &input.WinnerID
	match.LoserID = &input.LoserID
	match.WinnerScore = &winnerScore
	match.LoserScore = &input.LoserScore
	match.EndReason = input.EndReason
	match.AffectsRating = bracket.RatingImpact(input.EndReason, true)
	match.ReportedBy = &reporter

	if err := s.store.UpdateMatchTx(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	result := &ReportResult{Match: match}

	if tournament != nil {
		totalRounds := bracket.Rounds(tournament.Size)
		if bracket.IsFinalMatch(totalRounds, match.RoundNo, match.MatchNo) {
			if err := s.tournaments.UpdateTournamentStatusTx(ctx, tx, tournament.ID.String(), bracket.TournamentCompleted); err != nil {
				return nil, fmt.Errorf("failed to complete tournament: %w", err)
			}
			result.TournamentDone = true
		} else {
			adv := bracket.NextSlot(match.RoundNo, match.MatchNo)
			if err := s.store.UpsertSlotTx(ctx, tx, tournament.ID, adv, input.WinnerID); err != nil {
				return nil, fmt.Errorf("failed to advance winner: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	// Rating movement is secondary to the recorded result: a failure here
	// downgrades to a warning rather than undoing the finalization.
	if match.AffectsRating && (tournament == nil || tournament.Mode == bracket.ModeSingles) {
		applyHandicap := tournament != nil && tournament.ApplyHandicap
		if err := s.rankings.ApplyResult(ctx, match.ID, input.WinnerID, input.LoserID, applyHandicap); err != nil {
			result.Warning = "result recorded but rating update failed: " + err.Error()
		}
	}

	return result, nil
}

type FriendlyInput struct {
	SideA       uuid.UUID
	SideB       uuid.UUID
	WinnerID    uuid.UUID
	LoserID     uuid.UUID
	WinnerScore int
	LoserScore  int
	EndReason   bracket.EndReason
}

// RecordFriendly records a non-tournament club match as finalized in one
// step.
func (s *MatchService) RecordFriendly(ctx context.Context, input FriendlyInput) (*bracket.Match, error) {
	reporter, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNoReporter
	}

	if input.EndReason == "" {
		input.EndReason = bracket.EndNormal
	}
	if !input.EndReason.Valid() {
		return nil, ErrBadEndReason
	}
	if input.WinnerID == input.LoserID {
		return nil, ErrSameParticipant
	}
	if input.LoserScore < 0 || input.WinnerScore < 0 {
		return nil, ErrNegativeScore
	}
	valid := (input.SideA == input.WinnerID && input.SideB == input.LoserID) ||
		(input.SideA == input.LoserID && input.SideB == input.WinnerID)
	if !valid {
		return nil, ErrWinnerNotInMatch
	}

	match := &bracket.Match{
		ID:            uuid.New(),
		SideA:         &input.SideA,
		SideB:         &input.SideB,
		RoundNo:       1,
		MatchNo:       1,
		Status:        bracket.MatchFinalized,
		WinnerID:      &input.WinnerID,
		LoserID:       &input.LoserID,
		WinnerScore:   &input.WinnerScore,
		LoserScore:    &input.LoserScore,
		EndReason:     input.EndReason,
		AffectsRating: bracket.RatingImpact(input.EndReason, true),
		ReportedBy:    &reporter,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.store.CreateMatchTx(ctx, tx, match); err != nil {
		return nil, err
	}

	if match.AffectsRating {
		if err := s.rankings.ApplyResultTx(ctx, tx, match.ID, input.WinnerID, input.LoserID, false); err != nil {
			return nil, err
		}
	}

	return match, tx.Commit()
}

func (s *MatchService) GetMatch(ctx context.Context, id string) (*bracket.Match, error) {
	return s.store.GetMatch(ctx, id)
}
