// Package knowledge loads the crop pest and irrigation tables.
//
// The default table is embedded from crops.yaml; KNOWLEDGE_FILE may point to a
// replacement with the same layout. Loaded tables are never mutated.
package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/crop-advisor/internal/domain"
)

//go:embed crops.yaml
var embeddedTable []byte

// Base is an immutable crop table. It implements domain.KnowledgeBase.
type Base struct {
	crops []domain.CropProfile
	index map[string]int
}

// Embedded parses the table compiled into the binary.
func Embedded() (*Base, error) {
	return Parse(embeddedTable)
}

// LoadFile parses a table from disk.
func LoadFile(path string) (*Base, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open knowledge file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a table from r.
func Load(r io.Reader) (*Base, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read knowledge table: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML table.
func Parse(data []byte) (*Base, error) {
	var doc tableDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode knowledge table: %w", err)
	}
	if len(doc.Crops) == 0 {
		return nil, errors.New("knowledge table has no crops")
	}

	b := &Base{index: make(map[string]int, len(doc.Crops))}
	for i, c := range doc.Crops {
		profile, err := c.toDomain()
		if err != nil {
			return nil, fmt.Errorf("crop %d: %w", i, err)
		}
		if _, dup := b.index[profile.Name]; dup {
			return nil, fmt.Errorf("crop %q declared twice", profile.Name)
		}
		b.index[profile.Name] = len(b.crops)
		b.crops = append(b.crops, profile)
	}
	return b, nil
}

// Crop returns a copy of the named crop profile.
func (b *Base) Crop(name string) (domain.CropProfile, bool) {
	i, ok := b.index[name]
	if !ok {
		return domain.CropProfile{}, false
	}
	return cloneProfile(b.crops[i]), true
}

// Crops returns copies of all profiles in declaration order.
func (b *Base) Crops() []domain.CropProfile {
	out := make([]domain.CropProfile, len(b.crops))
	for i, c := range b.crops {
		out[i] = cloneProfile(c)
	}
	return out
}

// Names lists the supported crop names in declaration order.
func (b *Base) Names() []string {
	names := make([]string, len(b.crops))
	for i, c := range b.crops {
		names[i] = c.Name
	}
	return names
}

func cloneProfile(c domain.CropProfile) domain.CropProfile {
	pests := make([]domain.PestRecord, len(c.Pests))
	for i, p := range c.Pests {
		p.Symptoms = slices.Clone(p.Symptoms)
		p.WeatherRisks = slices.Clone(p.WeatherRisks)
		pests[i] = p
	}
	c.Pests = pests
	return c
}

// YAML document types.

type tableDoc struct {
	Crops []cropDoc `yaml:"crops"`
}

type cropDoc struct {
	Name       string        `yaml:"name"`
	Irrigation irrigationDoc `yaml:"irrigation"`
	Pests      []pestDoc     `yaml:"pests"`
}

type irrigationDoc struct {
	MinMoisture     float64 `yaml:"min_moisture"`
	OptimalMoisture float64 `yaml:"optimal_moisture"`
	CriticalStage   string  `yaml:"critical_stage"`
}

type pestDoc struct {
	Name        string   `yaml:"name"`
	Symptoms    []string `yaml:"symptoms"`
	Treatment   string   `yaml:"treatment"`
	WeatherRisk []string `yaml:"weather_risk"`
}

func (c cropDoc) toDomain() (domain.CropProfile, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return domain.CropProfile{}, errors.New("name is required")
	}
	irr := c.Irrigation
	if irr.MinMoisture < 0 || irr.OptimalMoisture > 100 || irr.MinMoisture > irr.OptimalMoisture {
		return domain.CropProfile{}, fmt.Errorf("%s: need 0 <= min_moisture <= optimal_moisture <= 100", name)
	}

	profile := domain.CropProfile{
		Name: name,
		Irrigation: domain.IrrigationRequirement{
			MinMoisture:     irr.MinMoisture,
			OptimalMoisture: irr.OptimalMoisture,
			CriticalStage:   irr.CriticalStage,
		},
	}
	for _, p := range c.Pests {
		if p.Name == "" || len(p.Symptoms) == 0 {
			return domain.CropProfile{}, fmt.Errorf("%s: pest needs a name and at least one symptom", name)
		}
		profile.Pests = append(profile.Pests, domain.PestRecord{
			Name:         p.Name,
			Symptoms:     slices.Clone(p.Symptoms),
			Treatment:    p.Treatment,
			WeatherRisks: slices.Clone(p.WeatherRisk),
		})
	}
	return profile, nil
}
