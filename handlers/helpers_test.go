package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/hockey-live/models"
)

func TestReadJSON(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "body must not be empty"},
		{"malformed", `{"teamName":`, "badly-formed JSON"},
		{"wrong type", `{"teamName": 5}`, `incorrect JSON type for field "teamName"`},
		{"unknown key", `{"teamName":"A","x":1}`, `unknown key "x"`},
		{"two values", `{"teamName":"A"}{"teamName":"B"}`, "single JSON value"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dst scoreRequest
			err := readJSON(httptest.NewRecorder(), req, &dst)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"teamName":"Alpha"}`))
	var dst scoreRequest
	require.NoError(t, readJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "Alpha", dst.TeamName)
}

func TestValidationErrorsUseJSONNames(t *testing.T) {
	err := validate.Struct(&eventRequest{Event: &models.MatchEvent{Time: "01:00", Team: "Alpha"}})
	errs := validationErrors(err)
	assert.Equal(t, "required", errs["event.player_id"])
	assert.Equal(t, "required", errs["event.quarter"])
	assert.NotContains(t, errs, "event.time")

	errs = validationErrors(validate.Struct(&createMatchRequest{TotalSeconds: -5}))
	assert.Equal(t, "required_without=Team1ID", errs["team1_name"])
	assert.Equal(t, "gte=0", errs["total_seconds"])

	assert.Equal(t, map[string]string{"body": "boom"}, validationErrors(errors.New("boom")))
}

func TestOriginChecker(t *testing.T) {
	withOrigin := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, originChecker(nil)(withOrigin("https://evil.example")))
	assert.True(t, originChecker([]string{"*"})(withOrigin("https://evil.example")))

	check := originChecker([]string{"https://scores.example"})
	assert.True(t, check(withOrigin("https://SCORES.example")))
	assert.True(t, check(withOrigin("")))
	assert.False(t, check(withOrigin("https://evil.example")))
}
