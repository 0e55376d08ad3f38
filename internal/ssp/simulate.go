package ssp

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/banshee-data/ssp.report/internal/projection"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Simulation describes a synthetic sensor recording: two oscillating brain
// sources with random sensor topographies, plus a heartbeat artifact with a
// fixed topography and white sensor noise.
type Simulation struct {
	Channels   int
	Samples    int
	SampleRate float64 // Hz
	HeartRate  float64 // beats per second
	Noise      float64 // standard deviation of the sensor noise
	Seed       uint64
}

// DefaultSimulation is 8 channels, 3 s at 200 Hz, 72 beats per minute.
func DefaultSimulation() Simulation {
	return Simulation{
		Channels:   8,
		Samples:    600,
		SampleRate: 200,
		HeartRate:  1.2,
		Noise:      0.05,
		Seed:       1,
	}
}

// Recording is the output of Simulate. All matrices are channels x samples.
type Recording struct {
	// Data is brain activity plus artifact plus noise.
	Data *mat.Dense
	// Artifact is the artifact alone, with independent noise, standing in
	// for the artifact epochs a projector is estimated from.
	Artifact *mat.Dense
	// Topography is the unit-norm sensor pattern of the artifact.
	Topography []float64
}

// brainSources are the frequencies (Hz) and amplitudes of the simulated
// brain activity.
var brainSources = []struct{ freq, amp float64 }{
	{10, 1},
	{6, 0.6},
}

const (
	beatAmplitude = 6
	beatWidth     = 0.02 // seconds
)

func (s Simulation) validate() error {
	if s.Channels < 2 || s.Samples < 2 {
		return fmt.Errorf("%w: simulation needs at least 2 channels and 2 samples, got %dx%d",
			projection.ErrInvalidArgument, s.Channels, s.Samples)
	}
	for name, v := range map[string]float64{"sample rate": s.SampleRate, "heart rate": s.HeartRate} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", projection.ErrInvalidArgument, name, v)
		}
	}
	if !(s.Noise >= 0) || math.IsInf(s.Noise, 0) {
		return fmt.Errorf("%w: noise must be non-negative, got %v", projection.ErrInvalidArgument, s.Noise)
	}
	return nil
}

// Simulate generates a recording. The result is deterministic for a given
// Seed.
func (s Simulation) Simulate() (*Recording, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	src := rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15)
	unit := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	noise := distuv.Normal{Mu: 0, Sigma: s.Noise, Src: src}

	// The artifact is strongest on the first sensors and changes sign
	// across the array.
	topo := make([]float64, s.Channels)
	for i := range topo {
		topo[i] = math.Cos(math.Pi * float64(i) / float64(s.Channels-1) * 0.8)
	}
	floats.Scale(1/floats.Norm(topo, 2), topo)

	brainTopo := make([][]float64, len(brainSources))
	for k := range brainTopo {
		brainTopo[k] = make([]float64, s.Channels)
		for i := range brainTopo[k] {
			brainTopo[k][i] = unit.Rand()
		}
	}

	data := mat.NewDense(s.Channels, s.Samples, nil)
	artifact := mat.NewDense(s.Channels, s.Samples, nil)
	for j := 0; j < s.Samples; j++ {
		t := float64(j) / s.SampleRate
		beat := s.heartbeat(t)
		for i := 0; i < s.Channels; i++ {
			var brain float64
			for k, b := range brainSources {
				brain += brainTopo[k][i] * b.amp * math.Sin(2*math.Pi*b.freq*t)
			}
			a := topo[i] * beat
			data.Set(i, j, brain+a+noise.Rand())
			artifact.Set(i, j, a+noise.Rand())
		}
	}

	return &Recording{Data: data, Artifact: artifact, Topography: topo}, nil
}

// heartbeat is a train of Gaussian pulses centred on multiples of the
// beat period.
func (s Simulation) heartbeat(t float64) float64 {
	period := 1 / s.HeartRate
	phase := math.Mod(t+period/2, period) - period/2
	return beatAmplitude * math.Exp(-0.5*(phase/beatWidth)*(phase/beatWidth))
}
