package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCropObservation_Validate(t *testing.T) {
	require.NoError(t, SampleObservation().Validate())
	require.NoError(t, CropObservation{CropType: "香蕉", SoilMoisture: 100}.Validate(), "unknown crops are reported by the evaluators")

	err := CropObservation{CropType: "  ", SoilMoisture: 50}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crop_type")

	err = CropObservation{CropType: testRice, SoilMoisture: -0.5}.Validate()
	require.Error(t, err)
	assert.Equal(t, "soil_moisture -0.5 out of range 0-100", err.Error())
}

func TestCropObservation_SplitLocation(t *testing.T) {
	obs, loc := SampleObservation().SplitLocation()
	assert.Equal(t, "北京", loc)
	assert.Empty(t, obs.Location)
	assert.Equal(t, testRice, obs.CropType)
	assert.Equal(t, []string{"叶片出现梭形病斑", "穗部变褐"}, obs.Symptoms)
}

func TestLocation_Label(t *testing.T) {
	assert.Equal(t, "北京, 中国", Location{Name: "北京", Country: "中国"}.Label("beijing"))
	assert.Equal(t, "beijing, 中国", Location{}.Label("beijing"))
	assert.Equal(t, "Tokyo, Japan", Location{Name: "Tokyo", Country: "Japan"}.Label("东京"))
}
