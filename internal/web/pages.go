// Package web renders the dashboard pages: the medal overview at "/" and the
// per-country detail at "/detail/:id". Charts are drawn in the browser from
// the configurations built by package chart.
package web

import (
	"context"
	"embed"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"olympics/internal/chart"
	"olympics/internal/engine"
	"olympics/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	overviewPath = "/"
	selectPath   = "/select/"
	pieLabel     = "Total medals"
)

// Renderer adapts html/template to echo.
type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"json": func(v any) (template.JS, error) {
			b, err := json.Marshal(v)
			return template.JS(b), err
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: t}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

type page struct {
	Title string
	Cards []models.Card
	Chart *chart.Config
	Back  bool
}

// Pages serves the HTML views from the latest dataset it observed.
type Pages struct {
	store  *engine.Store
	logger *slog.Logger
	latest engine.Latest
}

func NewPages(store *engine.Store, logger *slog.Logger) *Pages {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pages{store: store, logger: logger.With("component", "web_pages")}
}

// Watch keeps the pages current until ctx is done.
func (p *Pages) Watch(ctx context.Context) {
	p.latest.Follow(ctx, p.store)
}

// RegisterRoutes installs the renderer, the page routes and the catch-all
// not-found page.
func (p *Pages) RegisterRoutes(e *echo.Echo) error {
	renderer, err := NewRenderer()
	if err != nil {
		return err
	}
	e.Renderer = renderer
	e.GET(overviewPath, p.Overview)
	e.GET("/detail/:id", p.Detail)
	e.GET(selectPath+":index", p.Select)
	e.RouteNotFound("/*", p.NotFound)
	return nil
}

// Overview renders the medal pie chart. While no dataset is held it renders
// the page without cards or chart.
func (p *Pages) Overview(c echo.Context) error {
	view := page{Title: "Medals per country"}
	if countries, ok := p.latest.Get(); ok {
		o := engine.Overview(countries)
		pie := chart.Pie(pieLabel, o.Totals)
		view.Cards = []models.Card{
			{Title: "Number of JOs", Value: o.Games},
			{Title: "Number of countries", Value: o.Countries},
		}
		view.Chart = &pie
	}
	return c.Render(http.StatusOK, "overview.html", view)
}

// Detail renders one country. An id that is not in the loaded dataset sends
// the browser back to the overview.
func (p *Pages) Detail(c echo.Context) error {
	countries, ok := p.latest.Get()
	if !ok {
		return c.Render(http.StatusOK, "detail.html", page{Back: true})
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		p.logger.Warn("malformed country id", "id", c.Param("id"))
		return c.Redirect(http.StatusSeeOther, overviewPath)
	}
	country, found := engine.FindCountry(countries, id)
	if !found {
		p.logger.Warn("country not found", "id", id)
		return c.Redirect(http.StatusSeeOther, overviewPath)
	}

	d := engine.Detail(country)
	view := page{Title: country.Country, Back: true}
	for _, card := range []struct {
		title string
		value *int
	}{
		{"Number of entries", d.Entries},
		{"Total number medals", d.Medals},
		{"Total number of athletes", d.Athletes},
	} {
		if card.value != nil {
			view.Cards = append(view.Cards, models.Card{Title: card.title, Value: *card.value})
		}
	}
	years, medals := engine.MedalsByYear(country)
	line := chart.Line("Medals for "+country.Country, years, medals)
	view.Chart = &line

	return c.Render(http.StatusOK, "detail.html", view)
}

// Select handles a click on overview slice :index and redirects to the
// country it stands for. Anything unresolvable goes back to the overview.
func (p *Pages) Select(c echo.Context) error {
	countries, ok := p.latest.Get()
	if !ok {
		return c.Redirect(http.StatusSeeOther, overviewPath)
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return c.Redirect(http.StatusSeeOther, overviewPath)
	}
	pie := chart.Pie(pieLabel, engine.MedalTotalsByCountry(countries))
	target, err := pie.Select(index)
	if err != nil {
		p.logger.Warn("chart selection rejected", "error", err)
		return c.Redirect(http.StatusSeeOther, overviewPath)
	}
	return c.Redirect(http.StatusSeeOther, target)
}

func (p *Pages) NotFound(c echo.Context) error {
	return c.Render(http.StatusNotFound, "not_found.html", page{Title: "Page not found", Back: true})
}
