package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shuffleclub/server/internal/club"
	"github.com/shuffleclub/server/internal/store"
)

// Fixed stake a normally-ended match moves between the two players.
const ratingStake = 10

type RankingService struct {
	db      *sqlx.DB
	players *store.PlayerStore
}

func NewRankingService(db *sqlx.DB, players *store.PlayerStore) *RankingService {
	return &RankingService{db: db, players: players}
}

func (s *RankingService) GetRankings(ctx context.Context) ([]club.Player, error) {
	return s.players.GetRankings(ctx)
}

// ApplyResult runs ApplyResultTx in its own transaction. Callers that
// treat rating movement as secondary to the recorded result use this after
// committing the match write.
func (s *RankingService) ApplyResult(ctx context.Context, matchID, winnerID, loserID uuid.UUID, applyHandicap bool) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.ApplyResultTx(ctx, tx, matchID, winnerID, loserID, applyHandicap); err != nil {
		return err
	}
	return tx.Commit()
}

// ApplyResultTx moves rating points for a finalized singles match and
// records one rating event per player. With handicaps applied, a win over
// a weaker handicap pays less and an upset pays more, within a band of
// five points around the stake.
func (s *RankingService) ApplyResultTx(ctx context.Context, tx *sqlx.Tx, matchID, winnerID, loserID uuid.UUID, applyHandicap bool) error {
	stake := ratingStake
	if applyHandicap {
		winner, err := s.players.GetPlayer(ctx, winnerID.String())
		if err != nil {
			return err
		}
		loser, err := s.players.GetPlayer(ctx, loserID.String())
		if err != nil {
			return err
		}
		offset := loser.Handicap - winner.Handicap
		if offset > 5 {
			offset = 5
		}
		if offset < -5 {
			offset = -5
		}
		stake += offset
		if stake < 1 {
			stake = 1
		}
	}

	winnerAfter, err := s.players.AdjustRatingTx(ctx, tx, winnerID, stake)
	if err != nil {
		return err
	}
	loserAfter, err := s.players.AdjustRatingTx(ctx, tx, loserID, -stake)
	if err != nil {
		return err
	}

	events := []club.RatingEvent{
		{ID: uuid.New(), PlayerID: winnerID, MatchID: matchID, Delta: stake, RatingAfter: winnerAfter},
		{ID: uuid.New(), PlayerID: loserID, MatchID: matchID, Delta: -stake, RatingAfter: loserAfter},
	}
	for i := range events {
		if err := s.players.CreateRatingEventTx(ctx, tx, &events[i]); err != nil {
			return err
		}
	}
	return nil
}
