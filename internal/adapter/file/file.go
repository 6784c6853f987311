// Package file reads and writes observation documents and report text files.
package file

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/crop-advisor/internal/domain"
)

const (
	// DefaultObservationFile is offered when loading without a file name.
	DefaultObservationFile = "crop.json"

	// SampleFile holds the built-in sample observation.
	SampleFile = "crop_data_sample.json"

	timestampLayout = "20060102_150405"
)

// ObservationName returns the default name for a saved observation.
func ObservationName(t time.Time) string {
	return fmt.Sprintf("crop_data_%s.json", t.Format(timestampLayout))
}

// ReportName returns the default name for a saved report.
func ReportName(t time.Time) string {
	return fmt.Sprintf("agricultural_report_%s.txt", t.Format(timestampLayout))
}

// LoadObservation reads and validates an observation document. Every failure
// is an *domain.InputFormatError.
func LoadObservation(path string) (domain.CropObservation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.CropObservation{}, &domain.InputFormatError{Path: path, Err: err}
	}

	var doc observationDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.CropObservation{}, &domain.InputFormatError{Path: path, Err: err}
	}
	obs, err := doc.observation()
	if err == nil {
		err = obs.Validate()
	}
	if err != nil {
		return domain.CropObservation{}, &domain.InputFormatError{Path: path, Err: err}
	}
	return obs, nil
}

// observationDocument mirrors the file layout. Pointer fields tell an absent
// key apart from its zero value.
type observationDocument struct {
	CropType     string    `json:"crop_type"`
	GrowthStage  *string   `json:"growth_stage"`
	Symptoms     *[]string `json:"symptoms"`
	SoilMoisture *float64  `json:"soil_moisture"`
	Location     string    `json:"location"`
}

func (d observationDocument) observation() (domain.CropObservation, error) {
	var missing []string
	if d.GrowthStage == nil {
		missing = append(missing, "growth_stage")
	}
	if d.Symptoms == nil {
		missing = append(missing, "symptoms")
	}
	if d.SoilMoisture == nil {
		missing = append(missing, "soil_moisture")
	}
	if len(missing) > 0 {
		return domain.CropObservation{}, fmt.Errorf("missing field %s", strings.Join(missing, ", "))
	}

	return domain.CropObservation{
		CropType:     d.CropType,
		GrowthStage:  *d.GrowthStage,
		Symptoms:     *d.Symptoms,
		SoilMoisture: *d.SoilMoisture,
		Location:     d.Location,
	}, nil
}

// SaveObservation writes obs as an indented UTF-8 JSON document.
func SaveObservation(path string, obs domain.CropObservation) error {
	if obs.Symptoms == nil {
		obs.Symptoms = []string{}
	}
	data, err := encodeIndented(obs)
	if err != nil {
		return fmt.Errorf("encode observation: %w", err)
	}
	return writeFile(path, data)
}

// LoadOrCreateSample loads the sample file from dir, writing it first when
// it does not exist. created reports whether the file was written.
func LoadOrCreateSample(dir string) (obs domain.CropObservation, path string, created bool, err error) {
	path = filepath.Join(dir, SampleFile)
	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
		obs = domain.SampleObservation()
		if err := SaveObservation(path, obs); err != nil {
			return domain.CropObservation{}, path, false, err
		}
		return obs, path, true, nil
	}
	obs, err = LoadObservation(path)
	return obs, path, false, err
}

// SaveReport writes report text to path.
func SaveReport(path, text string) error {
	return writeFile(path, []byte(text))
}

func encodeIndented(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
