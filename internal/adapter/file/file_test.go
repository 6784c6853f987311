package file

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crop-advisor/internal/domain"
)

func TestObservation_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.json")
	want := domain.CropObservation{
		CropType:     "玉米",
		GrowthStage:  "抽雄期",
		Symptoms:     []string{"茎秆蛀孔", "叶片被啃食"},
		SoilMoisture: 72.5,
		Location:     "长春",
	}

	require.NoError(t, SaveObservation(path, want))
	got, err := LoadObservation(path)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveObservation_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.json")
	obs := domain.SampleObservation()
	obs, _ = obs.SplitLocation()

	require.NoError(t, SaveObservation(path, obs))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := `{
    "crop_type": "水稻",
    "growth_stage": "抽穗期",
    "symptoms": [
        "叶片出现梭形病斑",
        "穗部变褐"
    ],
    "soil_moisture": 65
}
`
	assert.Equal(t, want, string(data))
}

func TestSaveObservation_EmptySymptoms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.json")
	require.NoError(t, SaveObservation(path, domain.CropObservation{CropType: "小麦"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"symptoms": []`)
}

func TestLoadObservation_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
		return p
	}

	tests := []struct {
		name    string
		path    string
		message string
	}{
		{
			name:    "missing file",
			path:    filepath.Join(dir, "nope.json"),
			message: "错误: 找不到文件 " + filepath.Join(dir, "nope.json"),
		},
		{
			name:    "malformed json",
			path:    write("bad.json", `{"crop_type": `),
			message: "错误: " + filepath.Join(dir, "bad.json") + " 文件格式不正确",
		},
		{
			name:    "missing crop type",
			path:    write("nocrop.json", `{"growth_stage": "抽穗期", "symptoms": [], "soil_moisture": 50}`),
			message: "crop_type is required",
		},
		{
			name:    "moisture out of range",
			path:    write("wet.json", `{"crop_type": "水稻", "growth_stage": "抽穗期", "symptoms": [], "soil_moisture": 140}`),
			message: "soil_moisture 140 out of range 0-100",
		},
		{
			name:    "missing moisture",
			path:    write("nomoisture.json", `{"crop_type": "水稻", "growth_stage": "抽穗期", "symptoms": [], "location": "北京"}`),
			message: "missing field soil_moisture",
		},
		{
			name:    "missing stage and symptoms",
			path:    write("nostage.json", `{"crop_type": "水稻", "soil_moisture": 60}`),
			message: "missing field growth_stage, symptoms",
		},
		{
			name:    "null moisture",
			path:    write("null.json", `{"crop_type": "水稻", "growth_stage": "抽穗期", "symptoms": [], "soil_moisture": null}`),
			message: "missing field soil_moisture",
		},
		{
			name:    "wrong type",
			path:    write("type.json", `{"crop_type": "水稻", "soil_moisture": "wet"}`),
			message: "文件格式不正确",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadObservation(tt.path)
			var ife *domain.InputFormatError
			require.ErrorAs(t, err, &ife)
			assert.Equal(t, tt.path, ife.Path)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoadObservation_MissingFileIsNotExist(t *testing.T) {
	_, err := LoadObservation(filepath.Join(t.TempDir(), "absent.json"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadOrCreateSample(t *testing.T) {
	dir := t.TempDir()

	obs, path, created, err := LoadOrCreateSample(dir)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, filepath.Join(dir, SampleFile), path)
	assert.Equal(t, domain.SampleObservation(), obs)

	// Second call reads the file back, including local edits.
	edited := domain.SampleObservation()
	edited.SoilMoisture = 88
	require.NoError(t, SaveObservation(path, edited))

	obs, _, created, err = LoadOrCreateSample(dir)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 88.0, obs.SoilMoisture)
}

func TestNames(t *testing.T) {
	ts := time.Date(2024, 6, 1, 8, 5, 9, 0, time.UTC)
	assert.Equal(t, "crop_data_20240601_080509.json", ObservationName(ts))
	assert.Equal(t, "agricultural_report_20240601_080509.txt", ReportName(ts))
}

func TestSaveReport_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "r.txt")
	require.NoError(t, SaveReport(path, "=== 农业智能顾问报告 ==="))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "=== 农业智能顾问报告 ===", string(data))
}
