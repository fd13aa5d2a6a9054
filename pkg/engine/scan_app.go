package engine

import (
	"fmt"
	"strconv"

	"github.com/dougsko/rxcore/pkg/logging"
	"github.com/dougsko/rxcore/pkg/protocol"
	"github.com/dougsko/rxcore/pkg/radio"
	"github.com/dougsko/rxcore/pkg/scan"
)

func (e *CoreEngine) handleScan(cmd *protocol.Command) *protocol.Response {
	var err error
	switch action := cmd.Arg("action"); action {
	case "start", "sweep":
		err = e.startSweep(AppScan)
	case "analyser", "analyzer":
		err = e.startSweep(AppAnalyser)
	case "channels":
		err = e.startChannelScan()
	case "stop":
		e.stopScan()
	case "next", "prev":
		err = e.scanStep(action == "next")
	case "range":
		err = e.scanRange(cmd.Arg("start"), cmd.Arg("end"))
	case "lists":
		err = e.scanLists(cmd.Arg("value"))
	case "step":
		err = e.scanSetStep(cmd.Arg("value"))
	default:
		return protocol.NewErrorResponse(fmt.Sprintf("unknown scan action %q", action))
	}
	if err != nil {
		return protocol.NewErrorResponse(err.Error())
	}
	return protocol.NewSuccessResponse(map[string]interface{}{
		"app":  string(e.app),
		"scan": e.scanStatus(),
	})
}

// startSweep puts the active VFO under a scanner. Multiband sweeps
// rotate through the stored band records of the selected scanlists.
func (e *CoreEngine) startSweep(app App) error {
	if e.radio.TxActive() {
		return fmt.Errorf("cannot scan while transmitting")
	}
	if e.app != AppVFO {
		e.stopScan()
	}

	active := e.radio.ActiveIndex()
	s := scan.New(e.radio.Handle(active), e.clock, e.catalog, e.scanCfg)

	multiband := e.config.Scan.Multiband && app == AppScan
	if multiband {
		list, err := e.bandList()
		if err != nil {
			return err
		}
		s.SetBands(list)
	}
	if err := s.Init(multiband); err != nil {
		return err
	}

	e.scanner = s
	e.scanSlot = active
	e.app = app
	return nil
}

func (e *CoreEngine) bandList() (*scan.BandList, error) {
	recs, err := e.store.Bands(e.scanlists)
	if err != nil {
		return nil, fmt.Errorf("failed to load bands: %w", err)
	}
	bands := make([]scan.Band, 0, len(recs))
	for _, rec := range recs {
		bands = append(bands, scan.BandFromRecord(rec))
	}
	return scan.NewBandList(bands, e.scanlists)
}

func (e *CoreEngine) startChannelScan() error {
	if e.radio.TxActive() {
		return fmt.Errorf("cannot scan while transmitting")
	}
	if e.app != AppVFO {
		e.stopScan()
	}

	channels, err := e.store.ChannelIndexes(e.scanlists)
	if err != nil {
		return fmt.Errorf("failed to load channels: %w", err)
	}
	active := e.radio.ActiveIndex()
	cs := scan.NewChannelScanner(e.radio.Handle(active), e.clock, e.scanCfg)
	if err := cs.Init(channels); err != nil {
		return err
	}

	e.channels = cs
	e.scanSlot = active
	e.app = AppChannelScan
	return nil
}

// stopScan returns to the VFO app, leaving the VFO on the last scanned
// frequency or channel.
func (e *CoreEngine) stopScan() {
	if e.app == AppVFO {
		return
	}
	active := e.radio.ActiveIndex()
	e.radio.Handle(active).Mute()
	e.radio.MarkForPersist(active)

	logging.Info("engine", "scan stopped", map[string]interface{}{
		"app":       string(e.app),
		"frequency": e.radio.Handle(active).Frequency(),
	})
	e.scanner = nil
	e.channels = nil
	e.app = AppVFO
}

func (e *CoreEngine) scanStep(up bool) error {
	switch e.app {
	case AppScan, AppAnalyser:
		e.scanner.Next(up)
	case AppChannelScan:
		e.channels.Next()
	default:
		return fmt.Errorf("no scan running")
	}
	return nil
}

func (e *CoreEngine) scanRange(start, end string) error {
	if e.scanner == nil {
		return fmt.Errorf("no sweep running")
	}
	lo, err := strconv.ParseUint(start, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid start %q", start)
	}
	hi, err := strconv.ParseUint(end, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid end %q", end)
	}
	e.scanner.SetRange(uint32(lo), uint32(hi))
	return nil
}

// scanLists changes the scanlist mask and restarts a running scan over it.
func (e *CoreEngine) scanLists(value string) error {
	mask, err := strconv.ParseUint(value, 0, 16)
	if err != nil || mask == 0 {
		return fmt.Errorf("invalid scanlist mask %q", value)
	}
	e.scanlists = uint16(mask)

	switch e.app {
	case AppScan:
		if e.config.Scan.Multiband {
			return e.startSweep(AppScan)
		}
	case AppChannelScan:
		return e.startChannelScan()
	}
	return nil
}

func (e *CoreEngine) scanSetStep(value string) error {
	idx, err := strconv.ParseUint(value, 10, 8)
	if err != nil || idx >= uint64(len(radio.StepFrequencyTable)) {
		return fmt.Errorf("invalid step index %q", value)
	}
	active := e.radio.ActiveIndex()
	if !e.radio.Handle(active).SetStep(uint8(idx)) {
		return fmt.Errorf("step rejected")
	}
	if e.scanner != nil {
		// restart so the pointer lands on the new grid
		e.scanner.SetBand(e.scanner.Band())
	}
	return nil
}

func (e *CoreEngine) scanStatus() *protocol.ScanStatus {
	switch e.app {
	case AppScan, AppAnalyser:
		b := e.scanner.Band()
		loot := e.scanner.Loot()
		mode := "sweep"
		if e.app == AppAnalyser {
			mode = "analyser"
		}
		return &protocol.ScanStatus{
			Mode:       mode,
			Band:       b.Name,
			Start:      b.Start,
			End:        b.End,
			Frequency:  loot.Frequency,
			Open:       loot.Open,
			Cps:        e.lastCps,
			Threshold:  e.scanner.Threshold(),
			NoiseFloor: e.scanner.NoiseFloor(),
			Thinking:   e.scanner.Thinking(),
		}
	case AppChannelScan:
		h := e.radio.Handle(e.radio.ActiveIndex())
		ch, _ := e.channels.Current()
		return &protocol.ScanStatus{
			Mode:      "channels",
			Frequency: h.Frequency(),
			Channel:   ch,
			Open:      e.channels.Waiting(),
		}
	}
	return nil
}
