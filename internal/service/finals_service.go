package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shuffleclub/server/internal/bracket"
	"github.com/shuffleclub/server/internal/club"
	"github.com/shuffleclub/server/internal/middleware"
	"github.com/shuffleclub/server/internal/store"
)

var (
	ErrNoDefaultParticipant = errors.New("no default participant configured; cannot pad bracket")
	ErrMatchNotFound        = errors.New("finals match not found")
)

type FinalsService struct {
	db          *sqlx.DB
	store       *store.FinalsStore
	tournaments *store.TournamentStore
	players     *store.PlayerStore
	rankings    *RankingService
}

func NewFinalsService(db *sqlx.DB, fs *store.FinalsStore, ts *store.TournamentStore, ps *store.PlayerStore, rs *RankingService) *FinalsService {
	return &FinalsService{db: db, store: fs, tournaments: ts, players: ps, rankings: rs}
}

// CreateBracket seeds a finals bracket from the nominee list, in league
// standings order. Nominee counts that are not a power of two are padded
// with the club's default participant; matches drawn against it are
// decided immediately as walkovers and the real player advances with the
// default-bye flag set.
func (s *FinalsService) CreateBracket(ctx context.Context, tournamentID, title string, nomineeIDs []uuid.UUID) (*bracket.FinalsBracket, error) {
	createdBy, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNoReporter
	}
	if len(nomineeIDs) < 2 {
		return nil, bracket.ErrNotEnoughParticipants
	}

	tournament, err := s.tournaments.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	size := bracket.NextPowerOfTwo(len(nomineeIDs))

	var defaultPlayer *club.Player
	if size > len(nomineeIDs) {
		defaultPlayer, err = s.players.GetDefaultPlayer(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoDefaultParticipant
		}
		if err != nil {
			return nil, err
		}
	}

	slots := make([]uuid.UUID, size)
	copy(slots, nomineeIDs)
	for i := len(nomineeIDs); i < size; i++ {
		slots[i] = defaultPlayer.ID
	}

	isDefaultSlot := func(id uuid.UUID) bool {
		return defaultPlayer != nil && id == defaultPlayer.ID
	}

	fb := &bracket.FinalsBracket{
		ID:           uuid.New(),
		TournamentID: tournament.ID,
		Title:        title,
		Size:         size,
		CreatedBy:    createdBy,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.store.CreateBracketTx(ctx, tx, fb); err != nil {
		return nil, err
	}

	var entries []bracket.FinalsEntry
	var matches []bracket.FinalsMatch
	for i := 0; i < size/2; i++ {
		matchNo := i + 1
		a, b := slots[i], slots[size-1-i]

		entries = append(entries,
			bracket.FinalsEntry{BracketID: fb.ID, RoundNo: 1, SlotNo: 2*matchNo - 1, PlayerID: a},
			bracket.FinalsEntry{BracketID: fb.ID, RoundNo: 1, SlotNo: 2 * matchNo, PlayerID: b},
		)

		m := bracket.FinalsMatch{
			ID:            uuid.New(),
			BracketID:     fb.ID,
			RoundNo:       1,
			MatchNo:       matchNo,
			SideA:         &slots[i],
			SideB:         &slots[size-1-i],
			Status:        bracket.MatchScheduled,
			EndReason:     bracket.EndNormal,
			AffectsRating: true,
			Sets:          bracket.SetList{},
		}

		// Draws against the padding participant never get played.
		if isDefaultSlot(b) {
			winner := a
			m.Status = bracket.MatchFinalized
			m.WinnerID = &winner
			m.LoserID = &slots[size-1-i]
			m.EndReason = bracket.EndWalkover
			m.AffectsRating = false
		}

		matches = append(matches, m)
	}

	if err := s.store.CreateEntriesTx(ctx, tx, entries); err != nil {
		return nil, err
	}
	if err := s.store.CreateMatchesTx(ctx, tx, matches); err != nil {
		return nil, err
	}

	// Advance walkover winners into round 2 with the default-bye flag.
	totalRounds := bracket.Rounds(size)
	for _, m := range matches {
		if m.Status != bracket.MatchFinalized || totalRounds < 2 {
			continue
		}
		adv := bracket.NextSlot(m.RoundNo, m.MatchNo)
		if err := s.store.UpsertSlotTx(ctx, tx, fb.ID, adv, *m.WinnerID); err != nil {
			return nil, err
		}
		entry := &bracket.FinalsEntry{
			BracketID: fb.ID,
			RoundNo:   adv.RoundNo,
			SlotNo:    entrySlot(adv),
			PlayerID:  *m.WinnerID,
			IsDefault: true,
		}
		if err := s.store.UpsertEntryTx(ctx, tx, entry); err != nil {
			return nil, err
		}
	}

	return fb, tx.Commit()
}

// entrySlot maps an advancement to its round-entry slot number.
func entrySlot(adv bracket.Advancement) int {
	if adv.Slot == bracket.SlotA {
		return 2*adv.MatchNo - 1
	}
	return 2 * adv.MatchNo
}

type FinalsReportInput struct {
	BracketID   uuid.UUID
	RoundNo     int
	MatchNo     int
	WinnerID    uuid.UUID
	LoserID     uuid.UUID
	WinnerScore *int
	LoserScore  *int
	EndReason   bracket.EndReason
	Sets        []bracket.Set
}

type FinalsReportResult struct {
	Match            *bracket.FinalsMatch
	ChampionID       *uuid.UUID
	AlreadyFinalized bool
	Warning          string
}

// Report finalizes a finals match addressed by its natural key, applies
// the best-of-3 advantage game when one finalist arrived on a default bye,
// advances the winner, and marks the champion after the deciding match.
func (s *FinalsService) Report(ctx context.Context, input FinalsReportInput) (*FinalsReportResult, error) {
	if input.EndReason == "" {
		input.EndReason = bracket.EndNormal
	}
	if !input.EndReason.Valid() {
		return nil, ErrBadEndReason
	}
	if input.WinnerID == input.LoserID {
		return nil, ErrSameParticipant
	}
	if input.LoserScore != nil && *input.LoserScore < 0 {
		return nil, ErrNegativeScore
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	fb, err := s.store.GetBracketTx(ctx, tx, input.BracketID.String())
	if err != nil {
		return nil, err
	}

	match, err := s.store.GetMatchByNumberTx(ctx, tx, fb.ID, input.RoundNo, input.MatchNo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}

	if match.Status == bracket.MatchFinalized {
		return &FinalsReportResult{Match: match, AlreadyFinalized: true}, nil
	}

	if !finalsHasBothSides(match) {
		return nil, ErrMissingSides
	}
	sidesMatch := (*match.SideA == input.WinnerID && *match.SideB == input.LoserID) ||
		(*match.SideA == input.LoserID && *match.SideB == input.WinnerID)
	if !sidesMatch {
		return nil, ErrWinnerNotInMatch
	}

	tournament, err := s.tournaments.GetTournamentTx(ctx, tx, fb.TournamentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}

	sets := match.Sets
	if tournament.BestOf == 3 {
		aDefault, bDefault, err := s.defaultFlags(ctx, tx, fb.ID, match)
		if err != nil {
			return nil, fmt.Errorf("failed to read round entries: %w", err)
		}
		if adv, ok := bracket.AdvantageGame(aDefault, bDefault, *match.SideA, *match.SideB, append(sets, input.Sets...)); ok {
			sets = append(bracket.SetList{*adv}, sets...)
		}
	}
	sets = append(sets, input.Sets...)

	// Winner score is implicit: the tournament's point cap, unless the
	// caller recorded something else.
	winnerScore := tournament.PointCap
	if input.WinnerScore != nil {
		winnerScore = *input.WinnerScore
	}

	match.Status = bracket.MatchFinalized
	match.WinnerID = &input.WinnerID
	match.LoserID = &input.LoserID
	match.WinnerScore = &winnerScore
	match.LoserScore = input.LoserScore
	match.EndReason = input.EndReason
	match.AffectsRating = bracket.RatingImpact(input.EndReason, true)
	match.Sets = sets

	if err := s.store.UpdateMatchTx(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to update finals match: %w", err)
	}

	result := &FinalsReportResult{Match: match}
	totalRounds := bracket.Rounds(fb.Size)

	if bracket.IsFinalMatch(totalRounds, match.RoundNo, match.MatchNo) {
		if err := s.store.SetChampionTx(ctx, tx, fb.ID, input.WinnerID); err != nil {
			return nil, fmt.Errorf("failed to mark champion: %w", err)
		}
		winner := input.WinnerID
		result.ChampionID = &winner
	} else {
		adv := bracket.NextSlot(match.RoundNo, match.MatchNo)
		if err := s.store.UpsertSlotTx(ctx, tx, fb.ID, adv, input.WinnerID); err != nil {
			return nil, fmt.Errorf("failed to advance winner: %w", err)
		}
		entry := &bracket.FinalsEntry{
			BracketID: fb.ID,
			RoundNo:   adv.RoundNo,
			SlotNo:    entrySlot(adv),
			PlayerID:  input.WinnerID,
			IsDefault: input.EndReason == bracket.EndWalkover,
		}
		if err := s.store.UpsertEntryTx(ctx, tx, entry); err != nil {
			return nil, fmt.Errorf("failed to record round entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if match.AffectsRating {
		if err := s.rankings.ApplyResult(ctx, match.ID, input.WinnerID, input.LoserID, tournament.ApplyHandicap); err != nil {
			result.Warning = "result recorded but rating update failed: " + err.Error()
		}
	}

	return result, nil
}

// defaultFlags reads whether each side of a match arrived via a default
// bye. A missing entry counts as normally qualified; any other store
// failure is surfaced so a flaky read cannot skew the advantage rule.
func (s *FinalsService) defaultFlags(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID, match *bracket.FinalsMatch) (bool, bool, error) {
	aDefault, bDefault := false, false
	e, err := s.store.GetEntryTx(ctx, tx, bracketID, match.RoundNo, *match.SideA)
	switch {
	case err == nil:
		aDefault = e.IsDefault
	case !errors.Is(err, sql.ErrNoRows):
		return false, false, err
	}
	e, err = s.store.GetEntryTx(ctx, tx, bracketID, match.RoundNo, *match.SideB)
	switch {
	case err == nil:
		bDefault = e.IsDefault
	case !errors.Is(err, sql.ErrNoRows):
		return false, false, err
	}
	return aDefault, bDefault, nil
}

func finalsHasBothSides(m *bracket.FinalsMatch) bool {
	return m.SideA != nil && m.SideB != nil
}

type FinalsView struct {
	Bracket *bracket.FinalsBracket        `json:"bracket"`
	Entries []bracket.FinalsEntry         `json:"entries"`
	Rounds  map[int][]bracket.FinalsMatch `json:"rounds"`
}

func (s *FinalsService) GetView(ctx context.Context, bracketID string) (*FinalsView, error) {
	fb, err := s.store.GetBracket(ctx, bracketID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.GetEntries(ctx, bracketID)
	if err != nil {
		return nil, err
	}
	matches, err := s.store.GetMatches(ctx, bracketID)
	if err != nil {
		return nil, err
	}

	rounds := make(map[int][]bracket.FinalsMatch)
	for _, m := range matches {
		rounds[m.RoundNo] = append(rounds[m.RoundNo], m)
	}

	return &FinalsView{Bracket: fb, Entries: entries, Rounds: rounds}, nil
}
