// Package chart builds the Chart.js configurations rendered by the dashboard
// pages. A Config carries parallel labels and values plus, for clickable
// charts, the navigation target of each category.
package chart

import (
	"fmt"
	"strconv"

	"olympics/internal/models"
)

// Pie slice palette, cycled when there are more countries than colors.
var (
	pieBackground = []string{
		"rgba(255, 99, 132, 0.2)",
		"rgba(54, 162, 235, 0.2)",
		"rgba(255, 206, 86, 0.2)",
		"rgba(75, 192, 192, 0.2)",
		"rgba(153, 102, 255, 0.2)",
	}
	pieBorder = []string{
		"rgba(255, 99, 132, 1)",
		"rgba(54, 162, 235, 1)",
		"rgba(255, 206, 86, 1)",
		"rgba(75, 192, 192, 1)",
		"rgba(153, 102, 255, 1)",
	}
)

const (
	lineBackground = "rgba(75, 192, 192, 0.2)"
	lineBorder     = "rgba(75, 192, 192, 1)"
)

type Config struct {
	Type     string    `json:"type"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
	// Links[i] is where a click on category i navigates. Empty when the
	// chart is not clickable.
	Links []string `json:"links,omitempty"`
}

type Dataset struct {
	Label           string   `json:"label"`
	Data            []int    `json:"data"`
	BackgroundColor []string `json:"backgroundColor"`
	BorderColor     []string `json:"borderColor"`
	BorderWidth     int      `json:"borderWidth"`
}

// DetailPath is the page route for one country.
func DetailPath(id int) string {
	return "/detail/" + strconv.Itoa(id)
}

// Pie builds the overview chart: one slice per country, in input order.
func Pie(label string, totals []models.MedalTotal) Config {
	labels := make([]string, len(totals))
	data := make([]int, len(totals))
	links := make([]string, len(totals))
	for i, t := range totals {
		labels[i] = t.Country
		data[i] = t.Medals
		links[i] = DetailPath(t.ID)
	}
	return Config{
		Type:   "pie",
		Labels: labels,
		Datasets: []Dataset{{
			Label:           label,
			Data:            data,
			BackgroundColor: cycle(pieBackground, len(totals)),
			BorderColor:     cycle(pieBorder, len(totals)),
			BorderWidth:     1,
		}},
		Links: links,
	}
}

// Line builds the detail chart of medals per Games.
func Line(label string, years, medals []int) Config {
	labels := make([]string, len(years))
	for i, y := range years {
		labels[i] = strconv.Itoa(y)
	}
	return Config{
		Type:   "line",
		Labels: labels,
		Datasets: []Dataset{{
			Label:           label,
			Data:            append([]int(nil), medals...),
			BackgroundColor: []string{lineBackground},
			BorderColor:     []string{lineBorder},
			BorderWidth:     1,
		}},
	}
}

// Select resolves a click on the category at index to its navigation target.
func (c Config) Select(index int) (string, error) {
	if len(c.Links) == 0 {
		return "", fmt.Errorf("chart %s: not selectable", c.Type)
	}
	if index < 0 || index >= len(c.Links) {
		return "", fmt.Errorf("chart %s: index %d out of range [0,%d)", c.Type, index, len(c.Links))
	}
	return c.Links[index], nil
}

func cycle(palette []string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = palette[i%len(palette)]
	}
	return out
}
