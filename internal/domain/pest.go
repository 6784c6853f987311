package domain

import (
	"math"
	"sort"
)

// Weather-risk annotations attached to pest matches.
const (
	highHumidityRisk = "⚠️ 当前高湿环境可能加剧病害发展"
	heavyRainRisk    = "⚠️ 降雨天气可能促进病害传播"
)

// PestMatch is a candidate diagnosis derived from symptom overlap.
type PestMatch struct {
	Name        string `json:"name"`
	Confidence  int    `json:"confidence"`
	Treatment   string `json:"treatment"`
	WeatherRisk string `json:"weather_risk,omitempty"`
}

// IdentifyPests scores every pest record of cropType against the observed
// symptoms. It returns an *UnsupportedCropError for unknown crops and
// ErrNoPestMatch when no record shares a symptom. Weather is only used for
// risk annotations; a failed result leaves matches unannotated.
func IdentifyPests(kb KnowledgeBase, cropType string, symptoms []string, weather WeatherResult) ([]PestMatch, error) {
	crop, ok := kb.Crop(cropType)
	if !ok {
		return nil, &UnsupportedCropError{Crop: cropType, Table: TablePests}
	}

	snap, weatherErr := weather.Snapshot()

	var matches []PestMatch
	for _, pest := range crop.Pests {
		matched := countMatches(symptoms, pest.Symptoms)
		if matched == 0 {
			continue
		}

		m := PestMatch{
			Name:       pest.Name,
			Confidence: Confidence(matched, len(pest.Symptoms)),
			Treatment:  pest.Treatment,
		}
		if weatherErr == nil {
			m.WeatherRisk = weatherRisk(pest, snap)
		}
		matches = append(matches, m)
	}

	if len(matches) == 0 {
		return nil, ErrNoPestMatch
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches, nil
}

// Confidence converts a symptom match count into a 0-100 score.
func Confidence(matched, total int) int {
	if matched <= 0 || total <= 0 {
		return 0
	}
	score := int(math.Round(float64(matched) / float64(total) * 100))
	return min(100, score)
}

// countMatches counts observed symptoms that exactly equal a known symptom.
// Repeated observations count once per occurrence.
func countMatches(observed, known []string) int {
	set := make(map[string]struct{}, len(known))
	for _, s := range known {
		set[s] = struct{}{}
	}
	n := 0
	for _, s := range observed {
		if _, ok := set[s]; ok {
			n++
		}
	}
	return n
}

func weatherRisk(pest PestRecord, snap WeatherSnapshot) string {
	switch {
	case pest.HasRisk(RiskHighHumidity) && snap.Humidity > 80:
		return highHumidityRisk
	case pest.HasRisk(RiskHeavyRain) && snap.RainNext3h > 2:
		return heavyRainRisk
	default:
		return ""
	}
}
