package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterrepo "github.com/eslsoft/lvgames/internal/adapter/repository"
	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/internal/usecase/matching"
	"github.com/eslsoft/lvgames/internal/usecase/session"
	"github.com/eslsoft/lvgames/pkg/rng"
)

type staticSource []entity.Item

func (s staticSource) Name() string { return "static" }

func (s staticSource) Load(context.Context) ([]entity.Item, error) { return s, nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger, _ := test.NewNullLogger()

	items := make(staticSource, 6)
	for i := range items {
		items[i] = entity.Item{
			ID:           fmt.Sprintf("w%d", i),
			LV:           fmt.Sprintf("lv%d", i),
			Translations: map[entity.Language]string{entity.LanguageEnglish: fmt.Sprintf("en%d", i)},
		}
	}

	opts := matching.DefaultOptions("match")
	opts.Defaults.BoardSize = 2
	opts.Defaults.LockedSize = 4
	engine := matching.NewEngine(adapterrepo.NewMemoryStore(), logger, opts, matching.WithRand(rng.Mulberry32(1)))
	results := adapterrepo.NewMemoryResultRepository()
	s := session.New(engine, items, logger, session.WithResults(results), session.WithRand(rng.Mulberry32(2)))

	srv := httptest.NewServer(NewHandler(session.NewManager(s), results, logger).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestGameFlow(t *testing.T) {
	srv := newTestServer(t)

	var games struct {
		Games []gameSummary `json:"games"`
	}
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/games", "", &games))
	require.Len(t, games.Games, 1)
	assert.Equal(t, session.PhaseIdle, games.Games[0].Phase)

	var errBody errorBody
	assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/api/games/match/rounds", "", &errBody))
	assert.Contains(t, errBody.Error, "phase")

	var state session.State
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/games/match/start", "", &state))
	assert.Equal(t, session.PhaseReady, state.Phase)
	assert.Len(t, state.Engine.LockedOrder, 4)

	var round session.Round
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/games/match/rounds", "", &round))
	require.Len(t, round.Left, 2)
	first := round.Left[0].ID

	var ans session.Answer
	body := fmt.Sprintf(`{"itemId":%q,"matchId":%q}`, first, first)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/games/match/answers", body, &ans))
	assert.True(t, ans.Correct)
	assert.Equal(t, 1, ans.Remaining)

	second := round.Left[1].ID
	body = fmt.Sprintf(`{"itemId":%q,"text":"nope"}`, second)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/games/match/answers", body, &ans))
	assert.False(t, ans.Correct)
	assert.True(t, ans.RoundComplete)

	var redrawn session.Round
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/games/match/rounds/current?redraw=1", "", &redrawn))
	assert.Equal(t, round.Number, redrawn.Number)

	var result entity.SessionResult
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/games/match/finish", "", &result))
	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, second, result.Detail)

	resp, err := srv.Client().Get(srv.URL + "/api/games/match/results.csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	var csv bytes.Buffer
	_, err = csv.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(csv.String(), "mode,timestamp,correct,total,time_s,detail\nlocked,"))

	assert.Contains(t, getBody(t, srv, "/api/games/match/results.csv?since=1h"), "\nlocked,")
	assert.Equal(t, "mode,timestamp,correct,total,time_s,detail\n", getBody(t, srv, "/api/games/match/results.csv?since=2999-01-01"))
	var sinceErr errorBody
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/games/match/results.csv?since=yesterday", "", &sinceErr))
	assert.Contains(t, sinceErr.Error, "yesterday")
}

func getBody(t *testing.T, srv *httptest.Server, path string) string {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	return body.String()
}

func TestErrors(t *testing.T) {
	srv := newTestServer(t)

	var errBody errorBody
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/games/nope/state", "", &errBody))

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/games/match/start", "", nil))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/games/match/answers", `{"bogus":1}`, &errBody))
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/games/match/choices?id=missing", "", &errBody))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/games/match/choices?id=w1&n=9", "", &errBody))
}

func TestMixAndConfig(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/games/match/start", "", nil))

	var mix matching.MixResult
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/games/match/mix", `{"size":10}`, &mix))
	assert.True(t, mix.Capped)
	assert.Len(t, mix.IDs, 6)

	var config entity.GameConfig
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/api/games/match/config", `{"mode":"random","boardSize":3}`, &config))
	assert.Equal(t, entity.GameModeRandom, config.Mode)
	assert.Equal(t, 3, config.BoardSize)
	assert.Equal(t, 4, config.LockedSize)

	var errBody errorBody
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, "/api/games/match/config", `{"mode":"chaos"}`, &errBody))

	var state session.State
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/games/match/reset", "", &state))
	assert.Equal(t, session.PhaseIdle, state.Phase)
	assert.Empty(t, state.Engine.LockedOrder)
}
