/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/anisomesh/adapt/adaptparams"
	"github.com/anisomesh/adapt/field"
)

type FieldModel struct {
	ParamsFile string
	GridN      int
	Profile    bool
}

// FieldCmd represents the field command
var FieldCmd = &cobra.Command{
	Use:   "field",
	Short: "Build a metric field over a structured box grid and report edge length statistics",
	Long: `Build a metric field over a structured box grid and report edge length statistics.

Fills the per-vertex metric field from an analytic shock/sine Hessian,
scales it to the target error, applies edge length and aspect ratio
bounds, optionally constrains against a uniform geometry metric, then
reports metric edge lengths over the grid edges.`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		fm := &FieldModel{}
		if fm.ParamsFile, err = cmd.Flags().GetString("paramsFile"); err != nil {
			panic(err)
		}
		fm.GridN, _ = cmd.Flags().GetInt("gridSize")
		fm.Profile, _ = cmd.Flags().GetBool("profile")
		ap := processInput(fm)
		RunField(fm, ap)
	},
}

func init() {
	rootCmd.AddCommand(FieldCmd)
	FieldCmd.Flags().StringP("paramsFile", "I", "", "parameters file in YAML format")
	FieldCmd.Flags().IntP("gridSize", "N", 50, "number of grid vertices per side")
	FieldCmd.Flags().Bool("profile", false, "write a CPU profile of the field sweep")
}

func processInput(fm *FieldModel) (ap *adaptparams.AdaptParameters) {
	ap = &adaptparams.AdaptParameters{
		Title:          "Shock Metric",
		Dimension:      2,
		TargetError:    0.05,
		MinEdgeLength:  0.001,
		MaxEdgeLength:  0.5,
		MaxAspectRatio: 0,
	}
	if len(fm.ParamsFile) != 0 {
		data, err := ioutil.ReadFile(fm.ParamsFile)
		if err != nil {
			fmt.Printf("error reading parameters file: %s\n", err.Error())
			exampleFile := `
########################################
Title: "Shock Metric"
Dimension: 2
TargetError: 0.05
MinEdgeLength: 0.001
MaxEdgeLength: 0.5
MaxAspectRatio: 10
GeometryMetric: [4, 0, 4]
Parallelism: 0
########################################
`
			fmt.Printf("Example parameters file:%s\n", exampleFile)
			os.Exit(1)
		}
		if err = ap.Parse(data); err != nil {
			fmt.Printf("error parsing parameters file: %s\n", err.Error())
			os.Exit(1)
		}
	}
	ap.Print()
	return
}

func RunField(fm *FieldModel, ap *adaptparams.AdaptParameters) {
	if fm.Profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}
	var (
		d             = ap.Dimension
		coords, edges = boxGrid(d, fm.GridN)
		nVerts        = len(coords) / d
	)
	fmt.Printf("building %dD metric field over %d vertices, %d edges\n",
		d, nVerts, len(edges))

	f := field.New(d, nVerts)
	if ap.Parallelism > 0 {
		f.NP = ap.Parallelism
	}
	g := field.NewGraph(nVerts, edges)

	start := time.Now()
	upper := make([]float64, d*(d+1)/2)
	for i := 0; i < nVerts; i++ {
		shockMetric(d, coords[i*d:i*d+d], upper)
		f.SetMetric(i, upper)
	}
	timeSet := time.Since(start)

	start = time.Now()
	f.Scale(1. / ap.TargetError)
	f.ApplyEdgeLengthBounds(ap.MinEdgeLength, ap.MaxEdgeLength)
	if ap.MaxAspectRatio > 0 {
		f.ApplyMaxAspectRatio(ap.MaxAspectRatio)
	}
	if len(ap.GeometryMetric) != 0 {
		f.ConstrainAll(ap.GeometryMetric, true)
	}
	timeCondition := time.Since(start)

	start = time.Now()
	min, max, mean := f.LengthStats(g, coords)
	timeStats := time.Since(start)

	fmt.Printf("metric edge lengths: min %v, max %v, mean %v\n", min, max, mean)
	fmt.Printf("BENCHMARK: time_set time_condition time_stats\n")
	fmt.Printf("BENCHMARK: %v %v %v\n", timeSet, timeCondition, timeStats)
}

// boxGrid lays out gridN vertices per side over the unit box with
// axis-aligned neighbour edges.
func boxGrid(d, gridN int) (coords []float64, edges [][2]int) {
	var (
		h = 1. / float64(gridN-1)
	)
	index2 := func(i, j int) int { return i*gridN + j }
	index3 := func(i, j, k int) int { return (i*gridN+j)*gridN + k }
	if d == 2 {
		coords = make([]float64, 0, 2*gridN*gridN)
		for i := 0; i < gridN; i++ {
			for j := 0; j < gridN; j++ {
				coords = append(coords, float64(i)*h, float64(j)*h)
				if i+1 < gridN {
					edges = append(edges, [2]int{index2(i, j), index2(i+1, j)})
				}
				if j+1 < gridN {
					edges = append(edges, [2]int{index2(i, j), index2(i, j+1)})
				}
			}
		}
		return
	}
	coords = make([]float64, 0, 3*gridN*gridN*gridN)
	for i := 0; i < gridN; i++ {
		for j := 0; j < gridN; j++ {
			for k := 0; k < gridN; k++ {
				coords = append(coords, float64(i)*h, float64(j)*h, float64(k)*h)
				if i+1 < gridN {
					edges = append(edges, [2]int{index3(i, j, k), index3(i+1, j, k)})
				}
				if j+1 < gridN {
					edges = append(edges, [2]int{index3(i, j, k), index3(i, j+1, k)})
				}
				if k+1 < gridN {
					edges = append(edges, [2]int{index3(i, j, k), index3(i, j, k+1)})
				}
			}
		}
	}
	return
}

// shockMetric evaluates the Hessian of a moving shock crossed with a sine
// wave at the given vertex, writing the upper triangle of the metric into
// upper. The z direction carries no curvature in 3D.
func shockMetric(d int, xyz, upper []float64) {
	var (
		x   = 2*xyz[0] - 1
		y   = 2*xyz[1] - 1
		s5y = math.Sin(5 * y)
		c5y = math.Cos(5 * y)
		den = (2*x-s5y)*(2*x-s5y) + 0.01
	)
	m00 := 0.2*(-8*x+4*s5y)/(den*den) - 250.0*math.Sin(50*x)
	m01 := 2.0 * (2*x - s5y) * c5y / (den * den)
	m11 := -5.0*(2*x-s5y)*c5y*c5y/(den*den) + 2.5*s5y/den
	if d == 2 {
		upper[0], upper[1], upper[2] = m00, m01, m11
		return
	}
	upper[0], upper[1], upper[2] = m00, m01, 0
	upper[3], upper[4], upper[5] = m11, 0, 0
}
