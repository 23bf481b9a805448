package engine

import "olympics/internal/models"

// TotalMedals sums medalsCount over the country's participations. The boolean
// is false when the country has no participation data at all.
func TotalMedals(c models.Country) (int, bool) {
	if !c.HasParticipations() {
		return 0, false
	}
	total := 0
	for _, p := range c.Participations {
		total += p.MedalsCount
	}
	return total, true
}

// TotalAthletes sums athleteCount, with the same absent rule as TotalMedals.
func TotalAthletes(c models.Country) (int, bool) {
	if !c.HasParticipations() {
		return 0, false
	}
	total := 0
	for _, p := range c.Participations {
		total += p.AthleteCount
	}
	return total, true
}

// DistinctParticipationYears counts unique years, so duplicate entries for
// the same Games are counted once.
func DistinctParticipationYears(c models.Country) (int, bool) {
	if !c.HasParticipations() {
		return 0, false
	}
	years := make(map[int]struct{}, len(c.Participations))
	for _, p := range c.Participations {
		years[p.Year] = struct{}{}
	}
	return len(years), true
}

// GlobalDistinctParticipationYears counts unique years across all countries.
func GlobalDistinctParticipationYears(countries []models.Country) int {
	years := make(map[int]struct{})
	for _, c := range countries {
		for _, p := range c.Participations {
			years[p.Year] = struct{}{}
		}
	}
	return len(years)
}

// MedalTotalsByCountry returns one total per country in input order.
// Countries without participation data count as zero.
func MedalTotalsByCountry(countries []models.Country) []models.MedalTotal {
	totals := make([]models.MedalTotal, 0, len(countries))
	for _, c := range countries {
		medals, _ := TotalMedals(c)
		totals = append(totals, models.MedalTotal{ID: c.ID, Country: c.Country, Medals: medals})
	}
	return totals
}

func FindCountry(countries []models.Country, id int) (models.Country, bool) {
	for _, c := range countries {
		if c.ID == id {
			return c, true
		}
	}
	return models.Country{}, false
}

// MedalsByYear returns the detail chart series in participation order.
func MedalsByYear(c models.Country) (years []int, medals []int) {
	years = make([]int, 0, len(c.Participations))
	medals = make([]int, 0, len(c.Participations))
	for _, p := range c.Participations {
		years = append(years, p.Year)
		medals = append(medals, p.MedalsCount)
	}
	return years, medals
}

// Overview computes the dashboard-wide summary.
func Overview(countries []models.Country) models.Overview {
	return models.Overview{
		Games:     GlobalDistinctParticipationYears(countries),
		Countries: len(countries),
		Totals:    MedalTotalsByCountry(countries),
	}
}

// Detail computes the per-country statistics shown on the detail page.
func Detail(c models.Country) models.CountryDetail {
	d := models.CountryDetail{ID: c.ID, Country: c.Country}
	if entries, ok := DistinctParticipationYears(c); ok {
		d.Entries = &entries
	}
	if medals, ok := TotalMedals(c); ok {
		d.Medals = &medals
	}
	if athletes, ok := TotalAthletes(c); ok {
		d.Athletes = &athletes
	}
	return d
}
