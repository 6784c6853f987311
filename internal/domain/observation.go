package domain

import (
	"errors"
	"fmt"
	"strings"
)

// CropObservation is the caller-supplied description of one field.
type CropObservation struct {
	CropType     string   `json:"crop_type"`
	GrowthStage  string   `json:"growth_stage"`
	Symptoms     []string `json:"symptoms"`
	SoilMoisture float64  `json:"soil_moisture"`
	Location     string   `json:"location,omitempty"`
}

// Validate checks the fields an advisory run depends on.
func (o CropObservation) Validate() error {
	if strings.TrimSpace(o.CropType) == "" {
		return errors.New("crop_type is required")
	}
	if o.SoilMoisture < 0 || o.SoilMoisture > 100 {
		return fmt.Errorf("soil_moisture %s out of range 0-100", formatNumber(o.SoilMoisture))
	}
	return nil
}

// SplitLocation returns the observation without its location, along with the
// location itself.
func (o CropObservation) SplitLocation() (CropObservation, string) {
	loc := o.Location
	o.Location = ""
	return o, loc
}

// SampleObservation returns the built-in demonstration observation.
func SampleObservation() CropObservation {
	return CropObservation{
		CropType:     "水稻",
		GrowthStage:  "抽穗期",
		Symptoms:     []string{"叶片出现梭形病斑", "穗部变褐"},
		SoilMoisture: 65,
		Location:     "北京",
	}
}
