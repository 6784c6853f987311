package domain

import "slices"

// Weather-risk tags used by the pest matcher.
const (
	RiskHighHumidity = "高湿"
	RiskHeavyRain    = "多雨"
)

// PestRecord describes one pest or disease known for a crop.
type PestRecord struct {
	Name         string   `json:"name"`
	Symptoms     []string `json:"symptoms"`
	Treatment    string   `json:"treatment"`
	WeatherRisks []string `json:"weather_risk,omitempty"`
}

// HasRisk reports whether the record carries the given weather-risk tag.
func (p PestRecord) HasRisk(tag string) bool {
	return slices.Contains(p.WeatherRisks, tag)
}

// IrrigationRequirement holds the soil moisture thresholds of a crop.
type IrrigationRequirement struct {
	MinMoisture     float64 `json:"min_moisture"`
	OptimalMoisture float64 `json:"optimal_moisture"`
	CriticalStage   string  `json:"critical_stage"`
}

// CropProfile groups everything the advisor knows about one crop.
type CropProfile struct {
	Name       string                `json:"name"`
	Pests      []PestRecord          `json:"pests"`
	Irrigation IrrigationRequirement `json:"irrigation"`
}

// KnowledgeBase looks up crop profiles by name.
type KnowledgeBase interface {
	Crop(name string) (CropProfile, bool)
}
