package usecase

import "AXII/internal/domain/models"

// BuildRadarChart projects artists onto the three index axes, one series each, in the given order.
func BuildRadarChart(artists []models.Artist) models.RadarChart {
	chart := models.RadarChart{
		Axes:   append([]string(nil), models.Indices...),
		Series: make([]models.RadarSeries, 0, len(artists)),
	}
	for _, a := range artists {
		chart.Series = append(chart.Series, models.RadarSeries{Name: a.Name, Values: a.Scores.Values()})
	}
	return chart
}
