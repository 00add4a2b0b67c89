package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/AdamBeresnev/league-playoffs/internal/httputil"
	"github.com/AdamBeresnev/league-playoffs/internal/service"
	"github.com/AdamBeresnev/league-playoffs/internal/store"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type generateRequest struct {
	TeamCount        int   `json:"team_count"`
	ConsolationTeams int   `json:"consolation_teams"`
	StartWeek        int   `json:"start_week"`
	WeeksByRound     []int `json:"weeks_by_round"`
	ThirdPlace       bool  `json:"third_place"`
}

func newRouter(playoffService *service.PlayoffService) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/leagues/{leagueID}/seasons/{season}", func(r chi.Router) {
		r.Post("/bracket", func(w http.ResponseWriter, r *http.Request) {
			leagueID, season, ok := leagueSeason(w, r)
			if !ok {
				return
			}

			var req generateRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				httputil.BadRequest(w, "Invalid bracket configuration", err)
				return
			}

			view, err := playoffService.GenerateBracket(r.Context(), service.GenerateConfig{
				LeagueID:         leagueID,
				Season:           season,
				TeamCount:        req.TeamCount,
				ConsolationTeams: req.ConsolationTeams,
				StartWeek:        req.StartWeek,
				WeeksByRound:     req.WeeksByRound,
				ThirdPlace:       req.ThirdPlace,
			})
			if err != nil {
				writeServiceError(w, "Failed to generate bracket", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, view)
		})

		r.Get("/bracket", func(w http.ResponseWriter, r *http.Request) {
			leagueID, season, ok := leagueSeason(w, r)
			if !ok {
				return
			}

			view, err := playoffService.GetBracketView(r.Context(), leagueID, season)
			if err != nil {
				writeServiceError(w, "Failed to get bracket", err)
				return
			}
			httputil.JSON(w, http.StatusOK, view)
		})

		r.Post("/advance/{week}", func(w http.ResponseWriter, r *http.Request) {
			leagueID, season, ok := leagueSeason(w, r)
			if !ok {
				return
			}
			week, err := strconv.Atoi(chi.URLParam(r, "week"))
			if err != nil || week < 1 {
				httputil.BadRequest(w, "Invalid week", err)
				return
			}

			result, err := playoffService.AdvanceForWeek(r.Context(), leagueID, season, week)
			if err != nil {
				writeServiceError(w, "Failed to advance playoffs", err)
				return
			}
			httputil.JSON(w, http.StatusOK, result)
		})
	})

	return r
}

func leagueSeason(w http.ResponseWriter, r *http.Request) (uuid.UUID, int, bool) {
	leagueID, err := uuid.Parse(chi.URLParam(r, "leagueID"))
	if err != nil {
		httputil.BadRequest(w, "Invalid league ID", err)
		return uuid.Nil, 0, false
	}
	season, err := strconv.Atoi(chi.URLParam(r, "season"))
	if err != nil {
		httputil.BadRequest(w, "Invalid season", err)
		return uuid.Nil, 0, false
	}
	return leagueID, season, true
}

func writeServiceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case service.IsConfigError(err):
		httputil.BadRequest(w, err.Error(), err)
	case service.IsConflict(err):
		httputil.Conflict(w, err.Error(), err)
	case errors.Is(err, store.ErrBracketNotFound):
		httputil.NotFound(w, "Bracket not found", err)
	default:
		httputil.InternalServerError(w, msg, err)
	}
}
