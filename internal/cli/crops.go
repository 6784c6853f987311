package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/crop-advisor/internal/domain"
)

// WriteCrops prints the supported crops with their irrigation thresholds and pests.
func WriteCrops(w io.Writer, crops []domain.CropProfile) {
	for i, c := range crops {
		if i > 0 {
			fmt.Fprintln(w)
		}
		irr := c.Irrigation
		fmt.Fprintf(w, "%s  关键生长期: %s  土壤湿度: 最低 %g%% / 理想 %g%%\n",
			c.Name, irr.CriticalStage, irr.MinMoisture, irr.OptimalMoisture)
		for _, p := range c.Pests {
			fmt.Fprintf(w, "  - %s: %s\n", p.Name, strings.Join(p.Symptoms, "、"))
		}
	}
}

// WriteLocation prints a resolved location.
func WriteLocation(w io.Writer, loc domain.Location) {
	fmt.Fprintf(w, "%s (%s)\n", loc.Label(loc.Name), loc.ID)
	if loc.Region != "" {
		fmt.Fprintf(w, "行政区: %s\n", loc.Region)
	}
	fmt.Fprintf(w, "坐标: %.4f, %.4f\n", loc.Lat, loc.Lon)
}
