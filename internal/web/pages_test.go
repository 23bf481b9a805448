package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"olympics/internal/engine"
	"olympics/internal/models"
)

func newPages(t *testing.T) (*echo.Echo, *Pages) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := engine.NewStore(engine.SourceFunc(func(context.Context) ([]models.Country, error) {
		return nil, nil
	}), engine.WithLogger(logger))
	t.Cleanup(store.Close)

	e := echo.New()
	p := NewPages(store, logger)
	require.NoError(t, p.RegisterRoutes(e))
	return e, p
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func dataset() []models.Country {
	return []models.Country{
		{ID: 1, Country: "France", Participations: []models.Participation{
			{Year: 2012, MedalsCount: 34, AthleteCount: 100},
			{Year: 2016, MedalsCount: 42, AthleteCount: 110},
		}},
		{ID: 2, Country: "Atlantis"},
	}
}

func TestOverviewEmptyWhileLoading(t *testing.T) {
	e, _ := newPages(t)

	rec := get(e, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "<canvas")
}

func TestOverviewRendersPie(t *testing.T) {
	e, p := newPages(t)
	p.latest.Set(dataset())

	rec := get(e, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "<canvas")
	require.Contains(t, body, `"type":"pie"`)
	require.Contains(t, body, `"/detail/1"`)
	require.Contains(t, body, `"/select/"`)
	require.Contains(t, body, "Number of JOs")
}

func TestDetailRendersLine(t *testing.T) {
	e, p := newPages(t)
	p.latest.Set(dataset())

	rec := get(e, "/detail/1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Medals for France")
	require.Contains(t, body, "Total number of athletes")
}

func TestDetailWithoutParticipationsOmitsCards(t *testing.T) {
	e, p := newPages(t)
	p.latest.Set(dataset())

	rec := get(e, "/detail/2")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "Total number medals")
}

func TestDetailUnknownIDRedirectsToOverview(t *testing.T) {
	e, p := newPages(t)
	p.latest.Set(dataset())

	for _, target := range []string{"/detail/99", "/detail/france"} {
		rec := get(e, target)
		require.Equal(t, http.StatusSeeOther, rec.Code, target)
		require.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
		require.NotContains(t, rec.Body.String(), "<canvas")
	}
}

func TestSelectRedirectsToClickedCountry(t *testing.T) {
	e, p := newPages(t)
	p.latest.Set(dataset())

	rec := get(e, "/select/1")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/detail/2", rec.Header().Get(echo.HeaderLocation))

	for _, target := range []string{"/select/2", "/select/-1", "/select/first"} {
		rec := get(e, target)
		require.Equal(t, http.StatusSeeOther, rec.Code, target)
		require.Equal(t, "/", rec.Header().Get(echo.HeaderLocation), target)
	}
}

func TestSelectWhileLoadingRedirectsToOverview(t *testing.T) {
	e, _ := newPages(t)

	rec := get(e, "/select/0")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
}

func TestDetailWhileLoadingRendersEmpty(t *testing.T) {
	e, _ := newPages(t)

	rec := get(e, "/detail/99")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "<canvas")
}

func TestUnknownRouteRendersNotFound(t *testing.T) {
	e, _ := newPages(t)

	rec := get(e, "/medals/table")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "does not exist")
}
