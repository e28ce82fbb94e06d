package adaptparams

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type AdaptParameters struct {
	Title          string    `yaml:"Title"`
	Dimension      int       `yaml:"Dimension"`
	TargetError    float64   `yaml:"TargetError"`    // scales the solution metric, smaller = finer mesh
	MinEdgeLength  float64   `yaml:"MinEdgeLength"`  // lower bound on metric edge lengths
	MaxEdgeLength  float64   `yaml:"MaxEdgeLength"`  // upper bound on metric edge lengths
	MaxAspectRatio float64   `yaml:"MaxAspectRatio"` // anisotropy cap, 0 disables
	GeometryMetric []float64 `yaml:"GeometryMetric"` // optional uniform metric, upper triangle
	Parallelism    int       `yaml:"Parallelism"`    // goroutines for field sweeps, 0 = NumCPU
}

func (ap *AdaptParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ap); err != nil {
		return err
	}
	return ap.Validate()
}

func (ap *AdaptParameters) Validate() error {
	if ap.Dimension != 2 && ap.Dimension != 3 {
		return fmt.Errorf("unsupported Dimension: %d (must be 2 or 3)", ap.Dimension)
	}
	if ap.TargetError <= 0 {
		return fmt.Errorf("TargetError must be positive, got %v", ap.TargetError)
	}
	if ap.MinEdgeLength <= 0 || ap.MaxEdgeLength <= ap.MinEdgeLength {
		return fmt.Errorf("need 0 < MinEdgeLength < MaxEdgeLength, got %v, %v",
			ap.MinEdgeLength, ap.MaxEdgeLength)
	}
	if ap.MaxAspectRatio < 0 {
		return fmt.Errorf("MaxAspectRatio must be non-negative, got %v", ap.MaxAspectRatio)
	}
	if n := len(ap.GeometryMetric); n != 0 && n != ap.Dimension*(ap.Dimension+1)/2 {
		return fmt.Errorf("GeometryMetric wants %d upper-triangle components in dimension %d, got %d",
			ap.Dimension*(ap.Dimension+1)/2, ap.Dimension, n)
	}
	return nil
}

func (ap *AdaptParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ap.Title)
	fmt.Printf("[%d]\t\t\t\t= Dimension\n", ap.Dimension)
	fmt.Printf("%8.5f\t\t= TargetError\n", ap.TargetError)
	fmt.Printf("%8.5f\t\t= MinEdgeLength\n", ap.MinEdgeLength)
	fmt.Printf("%8.5f\t\t= MaxEdgeLength\n", ap.MaxEdgeLength)
	fmt.Printf("%8.5f\t\t= MaxAspectRatio\n", ap.MaxAspectRatio)
	if len(ap.GeometryMetric) != 0 {
		fmt.Printf("%v\t= GeometryMetric\n", ap.GeometryMetric)
	}
	fmt.Printf("[%d]\t\t\t\t= Parallelism\n", ap.Parallelism)
}
