// Package report assembles the advisory report from the weather provider,
// the knowledge base and the domain rule evaluators.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/crop-advisor/internal/domain"
	"github.com/couchcryptid/crop-advisor/internal/observability"
)

const (
	title      = "=== 农业智能顾问报告 ==="
	timeLayout = "2006-01-02 15:04"
	disclaimer = "注: 本建议仅供参考，请结合当地实际情况和专家指导做出决策。"
)

// Report is one generated advisory. Text renders it for people; it also
// marshals to JSON for machine consumers.
type Report struct {
	GeneratedAt  time.Time            `json:"generated_at"`
	Location     string               `json:"location"`
	CropType     string               `json:"crop_type"`
	GrowthStage  string               `json:"growth_stage"`
	Symptoms     []string             `json:"symptoms"`
	SoilMoisture float64              `json:"soil_moisture"`
	Weather      domain.WeatherResult `json:"weather"`

	WeatherSummary string `json:"weather_summary"`

	// Pests holds the ranked matches; PestMessage is set instead when there
	// are none or the crop is unsupported.
	Pests       []domain.PestMatch `json:"pests,omitempty"`
	PestMessage string             `json:"pest_message,omitempty"`

	Irrigation []string `json:"irrigation"`
}

// Text renders the report in the plain-text layout printed and saved by the CLI.
func (r Report) Text() string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	line(title)
	line("报告生成时间: " + r.GeneratedAt.Format(timeLayout))
	line("分析地区: " + r.Location)
	line("作物类型: " + r.CropType)
	line("生长阶段: " + r.GrowthStage)
	line("")

	line("--- 天气概况 ---")
	line(r.WeatherSummary)
	line("")

	line("--- 病虫害诊断 ---")
	if r.PestMessage != "" {
		line(r.PestMessage)
	}
	for _, p := range r.Pests {
		line(fmt.Sprintf("🔍 疑似病害: %s (置信度: %d%%)", p.Name, p.Confidence))
		line("💊 防治建议: " + p.Treatment)
		if p.WeatherRisk != "" {
			line("🌤️ " + p.WeatherRisk)
		}
		line("")
	}

	line("--- 灌溉建议 ---")
	for _, advice := range r.Irrigation {
		line("• " + advice)
	}
	line("")
	b.WriteString(disclaimer)

	return b.String()
}

// JSON encodes the report with indentation and unescaped UTF-8.
func (r Report) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return buf.Bytes(), nil
}

// Assembler generates reports. It fetches weather once per report and feeds
// the same result to every section.
type Assembler struct {
	weather domain.WeatherProvider
	kb      domain.KnowledgeBase
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewAssembler creates a report assembler.
func NewAssembler(weather domain.WeatherProvider, kb domain.KnowledgeBase, metrics *observability.Metrics, logger *slog.Logger) *Assembler {
	return &Assembler{
		weather: weather,
		kb:      kb,
		metrics: metrics,
		logger:  logger,
	}
}

// Generate builds the report for obs at location. It never fails: every
// error is rendered into the section it affects.
func (a *Assembler) Generate(ctx context.Context, obs domain.CropObservation, location string) Report {
	r := Report{
		GeneratedAt:  domain.Now(),
		Location:     location,
		CropType:     obs.CropType,
		GrowthStage:  obs.GrowthStage,
		Symptoms:     obs.Symptoms,
		SoilMoisture: obs.SoilMoisture,
	}

	r.Weather = a.weather.FetchWeather(ctx, location)
	r.WeatherSummary = domain.SummarizeWeather(r.Weather)
	weatherLabel := "ok"
	if r.Weather.Err() != nil {
		weatherLabel = "error"
	}

	pests, err := domain.IdentifyPests(a.kb, obs.CropType, obs.Symptoms, r.Weather)
	switch {
	case err == nil:
		r.Pests = pests
		a.metrics.PestDiagnoses.WithLabelValues("matched").Inc()
	case errors.Is(err, domain.ErrUnsupportedCrop):
		r.PestMessage = domain.UserMessage(err)
		a.metrics.PestDiagnoses.WithLabelValues("unsupported").Inc()
	default:
		r.PestMessage = domain.UserMessage(err)
		a.metrics.PestDiagnoses.WithLabelValues("no_match").Inc()
	}

	advice, err := domain.AdviseIrrigation(a.kb, obs.CropType, obs.GrowthStage, obs.SoilMoisture, r.Weather)
	if err != nil {
		advice = []string{domain.UserMessage(err)}
	}
	r.Irrigation = advice

	a.metrics.ReportsGenerated.WithLabelValues(weatherLabel).Inc()
	a.logger.Info("report generated",
		"location", location,
		"crop", obs.CropType,
		"weather", weatherLabel,
		"pest_matches", len(r.Pests),
	)
	return r
}
