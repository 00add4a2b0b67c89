package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AdamBeresnev/league-playoffs/internal/bracket"
	"github.com/AdamBeresnev/league-playoffs/internal/db"
	"github.com/AdamBeresnev/league-playoffs/internal/service"
	"github.com/AdamBeresnev/league-playoffs/internal/store"
	"github.com/AdamBeresnev/league-playoffs/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (http.Handler, *store.PlayoffStore, uuid.UUID) {
	t.Helper()

	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	playoffStore := store.NewPlayoffStore(database)
	leagueID := uuid.New()

	var standings []bracket.Standing
	for rank := 1; rank <= 4; rank++ {
		standings = append(standings, bracket.Standing{LeagueID: leagueID, Season: 2025, Rank: rank, RosterID: rank})
	}
	require.NoError(t, playoffStore.CreateStandings(context.Background(), standings))

	svc := service.NewPlayoffService(database, playoffStore, nil, nil)
	return newRouter(svc), playoffStore, leagueID
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBracketRoutes(t *testing.T) {
	h, playoffStore, leagueID := setupRouter(t)
	base := "/leagues/" + leagueID.String() + "/seasons/2025"
	cfg := `{"team_count":4,"start_week":15,"weeks_by_round":[1,1]}`

	rec := do(t, h, http.MethodGet, base+"/bracket", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/bracket", cfg)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var view service.BracketView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Rounds, 1)
	assert.Len(t, view.Rounds[0].Series, 2)

	rec = do(t, h, http.MethodPost, base+"/bracket", cfg)
	assert.Equal(t, http.StatusConflict, rec.Code)

	matchups, err := playoffStore.GetRoundMatchups(context.Background(), leagueID, 2025, bracket.Winners, 1)
	require.NoError(t, err)
	for _, m := range matchups {
		require.NoError(t, playoffStore.RecordScore(context.Background(), m.ID, utils.Ptr(101.0), utils.Ptr(99.5), true))
	}

	rec = do(t, h, http.MethodPost, base+"/advance/15", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result service.WeekResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Advanced)
	assert.Equal(t, bracket.StatusActive, result.Status)

	rec = do(t, h, http.MethodGet, base+"/bracket", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Rounds, 2)
	assert.Equal(t, "Championship", view.Rounds[1].Name)
}

func TestBracketRoutesBadInput(t *testing.T) {
	h, _, leagueID := setupRouter(t)
	base := "/leagues/" + leagueID.String() + "/seasons/2025"

	testCases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "bad league", method: http.MethodGet, path: "/leagues/nope/seasons/2025/bracket", status: http.StatusBadRequest},
		{name: "bad season", method: http.MethodGet, path: "/leagues/" + leagueID.String() + "/seasons/x/bracket", status: http.StatusBadRequest},
		{name: "bad body", method: http.MethodPost, path: base + "/bracket", body: `{"teams":4}`, status: http.StatusBadRequest},
		{name: "bad team count", method: http.MethodPost, path: base + "/bracket", body: `{"team_count":5,"start_week":15,"weeks_by_round":[1,1]}`, status: http.StatusBadRequest},
		{name: "bad week", method: http.MethodPost, path: base + "/advance/0", status: http.StatusBadRequest},
		{name: "no bracket to advance", method: http.MethodPost, path: base + "/advance/15", status: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	h, _, _ := setupRouter(t)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
