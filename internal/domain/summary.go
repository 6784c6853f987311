package domain

import (
	"fmt"
	"strings"
)

const (
	summaryRainMM  = 5
	summaryPopPct  = 60
	dailyDateShape = "01-02"
)

// SummarizeWeather renders the weather section of a report. A failed result
// renders as its error text.
func SummarizeWeather(weather WeatherResult) string {
	snap, err := weather.Snapshot()
	if err != nil {
		return err.Error()
	}

	lines := []string{
		fmt.Sprintf("当前位置: %s", snap.Location),
		fmt.Sprintf("当前天气: %s, 温度: %s°C, 湿度: %s%%",
			snap.Description, formatNumber(snap.Temperature), formatNumber(snap.Humidity)),
	}

	totalRain := SumRain(snap.Forecast, -1)
	switch {
	case totalRain > summaryRainMM:
		lines = append(lines, "⚠️ 未来24小时有显著降雨，建议推迟灌溉")
	case MaxPrecipProbability(snap.Forecast) > summaryPopPct:
		lines = append(lines, "🌧️ 未来24小时有较高降雨概率，请关注天气变化")
	default:
		lines = append(lines, "☀️ 未来24小时天气较好，适合进行农田作业")
	}

	for _, d := range snap.Daily {
		lines = append(lines, fmt.Sprintf("📅 %s %s, %s~%s°C, 降水 %.1fmm",
			d.Date.Format(dailyDateShape), d.Description,
			formatNumber(d.TempMin), formatNumber(d.TempMax), d.PrecipMM))
	}

	return strings.Join(lines, "\n")
}

// MaxPrecipProbability returns the highest precipitation probability in the
// forecast, or 0 for an empty forecast.
func MaxPrecipProbability(forecast []ForecastEntry) float64 {
	maxPop := 0.0
	for _, f := range forecast {
		maxPop = max(maxPop, f.PrecipProbability)
	}
	return maxPop
}
