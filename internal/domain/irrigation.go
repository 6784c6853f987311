package domain

import (
	"fmt"
	"strconv"
)

// Window sizes and thresholds for the weather-driven irrigation rules.
const (
	rainWindowEntries  = 2 // about six hours of forecast
	rainDelayMM        = 3
	heatTempC          = 30
	heatHumidityPct    = 50
	diseaseHumidityPct = 85
)

// AdviseIrrigation evaluates the irrigation rules for one observation and
// returns the advice lines in rule order. Unknown crops yield an
// *UnsupportedCropError. A failed weather result yields a single line
// carrying the weather error.
func AdviseIrrigation(kb KnowledgeBase, cropType, growthStage string, soilMoisture float64, weather WeatherResult) ([]string, error) {
	crop, ok := kb.Crop(cropType)
	if !ok {
		return nil, &UnsupportedCropError{Crop: cropType, Table: TableIrrigation}
	}

	snap, err := weather.Snapshot()
	if err != nil {
		return []string{fmt.Sprintf("无法获取天气数据: %s", err)}, nil
	}

	req := crop.Irrigation
	advice := []string{moistureAdvice(soilMoisture, req)}

	if growthStage == req.CriticalStage {
		advice = append(advice, fmt.Sprintf("重要: 作物正处于关键生长期(%s)，需确保水分充足。", growthStage))
	}

	if line := weatherAdvice(snap); line != "" {
		advice = append(advice, line)
	}
	return advice, nil
}

func moistureAdvice(moisture float64, req IrrigationRequirement) string {
	switch {
	case moisture < req.MinMoisture:
		return fmt.Sprintf("紧急: 土壤湿度(%s%%)低于最低要求(%s%%)，需要立即灌溉。",
			formatNumber(moisture), formatNumber(req.MinMoisture))
	case moisture < req.OptimalMoisture:
		return fmt.Sprintf("提示: 土壤湿度(%s%%)略低于理想水平(%s%%)，建议近期灌溉。",
			formatNumber(moisture), formatNumber(req.OptimalMoisture))
	default:
		return fmt.Sprintf("良好: 土壤湿度(%s%%)适宜，无需立即灌溉。", formatNumber(moisture))
	}
}

// weatherAdvice applies the mutually exclusive rain, heat and humidity rules.
func weatherAdvice(snap WeatherSnapshot) string {
	rain := SumRain(snap.Forecast, rainWindowEntries)
	switch {
	case rain > rainDelayMM:
		return fmt.Sprintf("天气预报: 未来6小时预计有%.1fmm降雨，可推迟灌溉", rain)
	case snap.Temperature > heatTempC && snap.Humidity < heatHumidityPct:
		return "天气预警: 高温低湿天气，蒸发量大，建议增加灌溉频率"
	case snap.Humidity > diseaseHumidityPct:
		return "环境提示: 当前湿度较高，灌溉时注意避免病害发生"
	default:
		return ""
	}
}

// SumRain totals precipitation over the first n forecast entries.
// A negative n sums the whole forecast.
func SumRain(forecast []ForecastEntry, n int) float64 {
	if n < 0 || n > len(forecast) {
		n = len(forecast)
	}
	total := 0.0
	for _, f := range forecast[:n] {
		total += f.PrecipMM
	}
	return total
}

// formatNumber prints whole numbers without a fractional part.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
