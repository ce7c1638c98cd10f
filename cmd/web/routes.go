package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/markbates/goth/gothic"
	"github.com/shuffleclub/server/internal/bracket"
	"github.com/shuffleclub/server/internal/club"
	"github.com/shuffleclub/server/internal/httputil"
	"github.com/shuffleclub/server/internal/middleware"
	"github.com/shuffleclub/server/internal/service"
	"github.com/shuffleclub/server/internal/store"
	"github.com/shuffleclub/server/internal/utils"
)

type createTournamentRequest struct {
	Name          string              `json:"name"`
	Mode          string              `json:"mode"`
	Size          httputil.LenientInt `json:"size"`
	BestOf        httputil.LenientInt `json:"best_of"`
	PointCap      httputil.LenientInt `json:"point_cap"`
	ApplyHandicap bool                `json:"apply_handicap"`
	StartsOn      *time.Time          `json:"starts_on"`
}

type participantsRequest struct {
	Entries []struct {
		Seed     httputil.LenientInt `json:"seed"`
		PlayerID *uuid.UUID          `json:"player_id"`
		TeamID   *uuid.UUID          `json:"team_id"`
	} `json:"entries"`
}

type reportRequest struct {
	WinnerID   uuid.UUID           `json:"winner_id"`
	LoserID    uuid.UUID           `json:"loser_id"`
	LoserScore httputil.LenientInt `json:"loser_score"`
	EndReason  string              `json:"end_reason"`
}

type friendlyRequest struct {
	SideA       uuid.UUID           `json:"side_a"`
	SideB       uuid.UUID           `json:"side_b"`
	WinnerID    uuid.UUID           `json:"winner_id"`
	LoserID     uuid.UUID           `json:"loser_id"`
	WinnerScore httputil.LenientInt `json:"winner_score"`
	LoserScore  httputil.LenientInt `json:"loser_score"`
	EndReason   string              `json:"end_reason"`
}

type finalsReportRequest struct {
	BracketID   uuid.UUID            `json:"bracket_id"`
	RoundNo     httputil.LenientInt  `json:"round_no"`
	MatchNo     httputil.LenientInt  `json:"match_no"`
	WinnerID    uuid.UUID            `json:"winner_id"`
	LoserID     uuid.UUID            `json:"loser_id"`
	WinnerScore *httputil.LenientInt `json:"winner_score"`
	LoserScore  *httputil.LenientInt `json:"loser_score"`
	EndReason   string               `json:"end_reason"`
	Sets        []bracket.Set        `json:"sets"`
}

type leagueFinalsRequest struct {
	Title    string      `json:"title"`
	Nominees []uuid.UUID `json:"nominees"`
}

type createPlayerRequest struct {
	Name      string              `json:"name"`
	AvatarURL *string             `json:"avatar_url"`
	Handicap  httputil.LenientInt `json:"handicap"`
}

type createTeamRequest struct {
	Name    string      `json:"name"`
	Members []uuid.UUID `json:"members"`
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return false
	}
	return true
}

// writeServiceError maps service failures onto the response envelope:
// validation problems are 400s, missing rows 404s, everything else is the
// store's error surfaced as a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, service.ErrMatchNotFound):
		httputil.NotFound(w, "not found", err)
	case errors.Is(err, bracket.ErrNotEnoughParticipants),
		errors.Is(err, service.ErrInvalidSize),
		errors.Is(err, service.ErrSeedConflict),
		errors.Is(err, service.ErrModeMismatch),
		errors.Is(err, service.ErrLockedSeeds),
		errors.Is(err, service.ErrMissingSides),
		errors.Is(err, service.ErrWinnerNotInMatch),
		errors.Is(err, service.ErrSameParticipant),
		errors.Is(err, service.ErrNegativeScore),
		errors.Is(err, service.ErrBadEndReason),
		errors.Is(err, service.ErrNoDefaultParticipant):
		httputil.BadRequest(w, err.Error(), err)
	case errors.Is(err, service.ErrNoReporter):
		httputil.Unauthorized(w, err.Error())
	default:
		httputil.InternalServerError(w, "store operation failed", err)
	}
}

func newRouter(sessionManager *scs.SessionManager, database *sqlx.DB) http.Handler {
	r := chi.NewRouter()

	userStore := store.NewUserStore(database)
	playerStore := store.NewPlayerStore(database)
	tournamentStore := store.NewTournamentStore(database)
	matchStore := store.NewMatchStore(database)
	finalsStore := store.NewFinalsStore(database)

	rankingService := service.NewRankingService(database, playerStore)
	tournamentService := service.NewTournamentService(database, tournamentStore, matchStore, playerStore)
	matchService := service.NewMatchService(database, matchStore, tournamentStore, rankingService)
	finalsService := service.NewFinalsService(database, finalsStore, tournamentStore, playerStore, rankingService)
	userService := service.NewUserService(database, userStore)

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.LoadAuthenticatedUser(sessionManager, userStore))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/players", func(w http.ResponseWriter, r *http.Request) {
			players, err := playerStore.GetPlayers(r.Context())
			if err != nil {
				writeServiceError(w, err)
				return
			}
			httputil.OK(w, map[string]interface{}{"players": players})
		})

		r.Get("/rankings", func(w http.ResponseWriter, r *http.Request) {
			rankings, err := rankingService.GetRankings(r.Context())
			if err != nil {
				writeServiceError(w, err)
				return
			}
			httputil.OK(w, map[string]interface{}{"rankings": rankings})
		})

		r.Get("/tournaments", func(w http.ResponseWriter, r *http.Request) {
			tournaments, err := tournamentService.GetTournaments(r.Context())
			if err != nil {
				writeServiceError(w, err)
				return
			}
			httputil.OK(w, map[string]interface{}{"tournaments": tournaments})
		})

		r.Get("/tournaments/{id}/bracket", func(w http.ResponseWriter, r *http.Request) {
			view, err := tournamentService.GetBracketView(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			httputil.OK(w, map[string]interface{}{"tournament": view.Tournament, "rounds": view.Rounds})
		})

		r.Post("/matches", func(w http.ResponseWriter, r *http.Request) {
			var req friendlyRequest
			if !decode(w, r, &req) {
				return
			}
			match, err := matchService.RecordFriendly(r.Context(), service.FriendlyInput{
				SideA:       req.SideA,
				SideB:       req.SideB,
				WinnerID:    req.WinnerID,
				LoserID:     req.LoserID,
				WinnerScore: req.WinnerScore.Int(),
				LoserScore:  req.LoserScore.Int(),
				EndReason:   bracket.EndReason(req.EndReason),
			})
			if err != nil {
				writeServiceError(w, err)
				return
			}
			httputil.OK(w, map[string]interface{}{"match": match})
		})

		r.Get("/matches/{id}", func(w http.ResponseWriter, r *http.Request) {
			match, err := matchService.GetMatch(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			httputil.OK(w, map[string]interface{}{"match": match})
		})

		r.Post("/matches/{id}/report", func(w http.ResponseWriter, r *http.Request) {
			var req reportRequest
			if !decode(w, r, &req) {
				return
			}
			result, err := matchService.Report(r.Context(), chi.URLParam(r, "id"), service.ReportInput{
				WinnerID:   req.WinnerID,
				LoserID:    req.LoserID,
				LoserScore: req.LoserScore.Int(),
				EndReason:  bracket.EndReason(req.EndReason),
			})
			if err != nil {
				writeServiceError(w, err)
				return
			}
			payload := map[string]interface{}{
				"match":             result.Match,
				"tournament_done":   result.TournamentDone,
				"already_finalized": result.AlreadyFinalized,
			}
			if result.Warning != "" {
				httputil.OKWithWarning(w, result.Warning, payload)
				return
			}
			httputil.OK(w, payload)
		})

		r.Post("/finals/report", func(w http.ResponseWriter, r *http.Request) {
			var req finalsReportRequest
			if !decode(w, r, &req) {
				return
			}
			input := service.FinalsReportInput{
				BracketID: req.BracketID,
				RoundNo:   req.RoundNo.Int(),
				MatchNo:   req.MatchNo.Int(),
				WinnerID:  req.WinnerID,
				LoserID:   req.LoserID,
				EndReason: bracket.EndReason(req.EndReason),
				Sets:      req.Sets,
			}
			if req.WinnerScore != nil {
				input.WinnerScore = utils.Ptr(req.WinnerScore.Int())
			}
			if req.LoserScore != nil {
				input.LoserScore = utils.Ptr(req.LoserScore.Int())
			}
			result, err := finalsService.Report(r.Context(), input)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			payload := map[string]interface{}{
				"match":             result.Match,
				"champion_id":       result.ChampionID,
				"already_finalized": result.AlreadyFinalized,
			}
			if result.Warning != "" {
				httputil.OKWithWarning(w, result.Warning, payload)
				return
			}
			httputil.OK(w, payload)
		})

		r.Get("/teams/{id}", func(w http.ResponseWriter, r *http.Request) {
			team, err := playerStore.GetTeam(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			httputil.OK(w, map[string]interface{}{"team": team})
		})

		r.Get("/finals/{id}", func(w http.ResponseWriter, r *http.Request) {
			view, err := finalsService.GetView(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			httputil.OK(w, map[string]interface{}{"bracket": view.Bracket, "entries": view.Entries, "rounds": view.Rounds})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin)

		r.Post("/players", func(w http.ResponseWriter, r *http.Request) {
			var req createPlayerRequest
			if !decode(w, r, &req) {
				return
			}
			if req.Name == "" {
				httputil.BadRequest(w, "player name is required", nil)
				return
			}
			player := &club.Player{
				ID:           uuid.New(),
				Name:         req.Name,
				AvatarURL:    req.AvatarURL,
				Handicap:     req.Handicap.Int(),
				RatingPoints: 1000,
				Active:       true,
			}
			if err := playerStore.CreatePlayer(r.Context(), player); err != nil {
				writeServiceError(w, err)
				return
			}
			httputil.OK(w, map[string]interface{}{"player": player})
		})

		r.Post("/teams", func(w http.ResponseWriter, r *http.Request) {
			var req createTeamRequest
			if !decode(w, r, &req) {
				return
			}
			if req.Name == "" {
				httputil.BadRequest(w, "team name is required", nil)
				return
			}
			team := &club.Team{ID: uuid.New(), Name: req.Name}
			if err := playerStore.CreateTeam(r.Context(), team); err != nil {
				writeServiceError(w, err)
				return
			}
			for _, playerID := range req.Members {
				if err := playerStore.AddTeamMember(r.Context(), &club.TeamMember{TeamID: team.ID, PlayerID: playerID}); err != nil {
					writeServiceError(w, err)
					return
				}
			}
			httputil.OK(w, map[string]interface{}{"team": team})
		})

		r.Post("/tournaments", func(w http.ResponseWriter, r *http.Request) {
			var req createTournamentRequest
			if !decode(w, r, &req) {
				return
			}
			tournament, err := tournamentService.CreateTournament(r.Context(), service.TournamentInput{
				Name:          req.Name,
				Mode:          bracket.TournamentMode(req.Mode),
				Size:          req.Size.Int(),
				BestOf:        req.BestOf.Int(),
				PointCap:      req.PointCap.Int(),
				ApplyHandicap: req.ApplyHandicap,
				StartsOn:      req.StartsOn,
			})
			if err != nil {
				writeServiceError(w, err)
				return
			}
			httputil.OK(w, map[string]interface{}{"tournament": tournament})
		})

		r.Post("/tournaments/{id}/participants", func(w http.ResponseWriter, r *http.Request) {
			var req participantsRequest
			if !decode(w, r, &req) {
				return
			}
			inputs := make([]service.SeedInput, 0, len(req.Entries))
			for _, e := range req.Entries {
				inputs = append(inputs, service.SeedInput{
					Seed:     e.Seed.Int(),
					PlayerID: e.PlayerID,
					TeamID:   e.TeamID,
				})
			}
			if err := tournamentService.ReplaceParticipants(r.Context(), chi.URLParam(r, "id"), inputs); err != nil {
				writeServiceError(w, err)
				return
			}
			httputil.OK(w, map[string]interface{}{"count": len(inputs)})
		})

		r.Post("/tournaments/{id}/generate-bracket", func(w http.ResponseWriter, r *http.Request) {
			generated, err := tournamentService.GenerateBracket(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			httputil.OK(w, map[string]interface{}{
				"tournament": generated.Tournament,
				"matches":    generated.Matches,
				"dropped":    generated.Dropped,
			})
		})

		r.Post("/tournaments/{id}/league/finals", func(w http.ResponseWriter, r *http.Request) {
			var req leagueFinalsRequest
			if !decode(w, r, &req) {
				return
			}
			fb, err := finalsService.CreateBracket(r.Context(), chi.URLParam(r, "id"), req.Title, req.Nominees)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			httputil.OK(w, map[string]interface{}{"bracket": fb})
		})
	})

	r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothic.BeginAuthHandler(w, r)
	})

	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothUser, err := gothic.CompleteUserAuth(w, r)
		if err != nil {
			httputil.BadRequest(w, "Authentication failure", err)
			return
		}

		user, err := userService.FindOrCreateUserByProvider(r.Context(), gothUser)
		if err != nil {
			httputil.InternalServerError(w, "Failed to find or create user", err)
			return
		}

		sessionManager.Put(r.Context(), "userID", user.ID.String())
		httputil.OK(w, map[string]interface{}{"user_id": user.ID})
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		if err := sessionManager.Destroy(r.Context()); err != nil {
			httputil.InternalServerError(w, "Failed to destroy session", err)
			return
		}
		httputil.OK(w, nil)
	})

	return r
}
