package scan

import (
	"errors"

	"github.com/dougsko/rxcore/pkg/radio"
)

// ErrNoBands is returned when a scanlist selects no band to sweep.
var ErrNoBands = errors.New("scan: no bands in scanlist")

// KeepStep leaves the VFO's tuning step alone when a band is applied.
const KeepStep uint8 = 0xFF

// Band is a sweep range. Scanlists is the bitmask of scanlists it is a
// member of.
type Band struct {
	Name      string `json:"name"`
	Start     uint32 `json:"start"`
	End       uint32 `json:"end"`
	Step      uint8  `json:"step"`
	Scanlists uint16 `json:"scanlists"`
}

// BandFromRecord converts a stored band record.
func BandFromRecord(rec radio.Record) Band {
	return Band{
		Name:      rec.Name,
		Start:     rec.Frequency,
		End:       rec.EndFrequency,
		Step:      rec.Step,
		Scanlists: rec.Scanlists,
	}
}

// WholeBand is a sweep over all of fb with the VFO's own step.
func WholeBand(fb *radio.FreqBand) Band {
	return Band{Name: fb.Name, Start: fb.Min, End: fb.Max, Step: KeepStep}
}

// BandList rotates through the bands selected by a scanlist mask.
type BandList struct {
	bands   []Band
	mask    uint16
	current int
}

// NewBandList selects the members of mask from bands.
func NewBandList(bands []Band, mask uint16) (*BandList, error) {
	l := &BandList{bands: bands}
	if err := l.SelectScanlists(mask); err != nil {
		return nil, err
	}
	return l, nil
}

// SelectScanlists changes the mask and moves to its first band.
func (l *BandList) SelectScanlists(mask uint16) error {
	for i, b := range l.bands {
		if b.Scanlists&mask != 0 {
			l.mask = mask
			l.current = i
			return nil
		}
	}
	return ErrNoBands
}

func (l *BandList) Mask() uint16 { return l.mask }

func (l *BandList) Current() Band { return l.bands[l.current] }

// Len counts the bands selected by the mask.
func (l *BandList) Len() int {
	n := 0
	for _, b := range l.bands {
		if b.Scanlists&l.mask != 0 {
			n++
		}
	}
	return n
}

// Next moves to the following selected band, wrapping around.
func (l *BandList) Next() Band {
	return l.rotate(1)
}

// Prev moves to the preceding selected band, wrapping around.
func (l *BandList) Prev() Band {
	return l.rotate(len(l.bands) - 1)
}

func (l *BandList) rotate(by int) Band {
	n := len(l.bands)
	for i := 1; i <= n; i++ {
		j := (l.current + by*i) % n
		if l.bands[j].Scanlists&l.mask != 0 {
			l.current = j
			break
		}
	}
	return l.bands[l.current]
}
