package scan

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// SpectrumBins is the horizontal resolution of the sweep display.
const SpectrumBins = 128

// noiseQuantile is the share of the band assumed to hold no signal.
const noiseQuantile = 0.25

// Point is one bin of the sweep display.
type Point struct {
	Frequency uint32 `json:"frequency"`
	RSSI      uint16 `json:"rssi"`
}

// Spectrum accumulates the latest RSSI seen per display bin of one band.
type Spectrum struct {
	start, end uint32
	bins       [SpectrumBins]uint16
	seen       [SpectrumBins]bool
}

// Reset clears the accumulator and spreads its bins over [start, end].
func (sp *Spectrum) Reset(start, end uint32) {
	*sp = Spectrum{start: start, end: end}
}

func (sp *Spectrum) bin(freq uint32) (int, bool) {
	if freq < sp.start || freq > sp.end {
		return 0, false
	}
	if sp.end == sp.start {
		return 0, true
	}
	return int(uint64(freq-sp.start) * (SpectrumBins - 1) / uint64(sp.end-sp.start)), true
}

// Add records a sample. Frequencies outside the band are ignored.
func (sp *Spectrum) Add(freq uint32, rssi uint16) {
	i, ok := sp.bin(freq)
	if !ok {
		return
	}
	sp.bins[i] = rssi
	sp.seen[i] = true
}

// Points returns the filled bins in frequency order.
func (sp *Spectrum) Points() []Point {
	var points []Point
	span := uint64(sp.end - sp.start)
	for i := range sp.bins {
		if !sp.seen[i] {
			continue
		}
		f := sp.start + uint32(span*uint64(i)/(SpectrumBins-1))
		points = append(points, Point{Frequency: f, RSSI: sp.bins[i]})
	}
	return points
}

// NoiseFloor estimates the band's noise level as the lower quartile of the
// filled bins, or zero before anything was recorded.
func (sp *Spectrum) NoiseFloor() uint16 {
	values := make([]float64, 0, SpectrumBins)
	for i, ok := range sp.seen {
		if ok {
			values = append(values, float64(sp.bins[i]))
		}
	}
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	return uint16(stat.Quantile(noiseQuantile, stat.Empirical, values, nil))
}
