package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/dougsko/rxcore/pkg/config"
	"github.com/dougsko/rxcore/pkg/hardware"
	"github.com/dougsko/rxcore/pkg/input"
	"github.com/dougsko/rxcore/pkg/logging"
	"github.com/dougsko/rxcore/pkg/protocol"
	"github.com/dougsko/rxcore/pkg/radio"
	"github.com/dougsko/rxcore/pkg/scan"
	"github.com/dougsko/rxcore/pkg/storage"
	"github.com/dougsko/rxcore/pkg/telemetry"
	"github.com/dougsko/rxcore/pkg/timing"
)

// Version is reported by STATUS.
const Version = "0.3.0"

// Loop timing.
const (
	TickInterval      = 2 * time.Millisecond
	SquelchPollMs     = 50
	TelemetryPeriodMs = 1000
	recentLootSize    = 64
)

// App is the foreground application the loop drives.
type App string

const (
	AppVFO         App = "vfo"
	AppScan        App = "scan"
	AppAnalyser    App = "analyser"
	AppChannelScan App = "channels"
)

type request struct {
	cmd   *protocol.Command
	reply chan *protocol.Response
}

// Options wires a CoreEngine to its collaborators. Hardware, Catalog,
// Metrics and SocketPath are optional.
type Options struct {
	Config     *config.Config
	SocketPath string
	Backends   radio.Backends
	Battery    radio.Battery
	Clock      timing.Clock
	Store      Store
	Hardware   *hardware.HardwareManager
	Catalog    telemetry.Catalog
	Metrics    *telemetry.Metrics
}

// CoreEngine runs the radio on a single loop goroutine. Socket clients
// only enqueue commands; every radio operation runs on the loop.
type CoreEngine struct {
	config     *config.Config
	socketPath string
	listener   net.Listener
	running    bool
	mutex      sync.RWMutex
	startTime  time.Time

	clock    timing.Clock
	radio    *radio.Engine
	settings radio.Settings
	scanCfg  scan.Config
	store    Store
	hardware *hardware.HardwareManager
	battery  radio.Battery

	app       App
	scanner   *scan.Scanner
	channels  *scan.ChannelScanner
	scanSlot  int
	scanlists uint16
	lock      input.Lock

	recent  *telemetry.Recent
	catalog telemetry.Fanout
	metrics *telemetry.Metrics

	lastSquelch   uint32
	lastTelemetry uint32
	lastCps       uint32

	requests chan request
	done     chan struct{}
}

// NewCoreEngine builds the production engine: simulated or GPIO-backed
// hardware, the SQLite record store and the configured telemetry sinks.
func NewCoreEngine(cfg *config.Config, socketPath string) (*CoreEngine, error) {
	hw := hardware.NewHardwareManager(hardware.ConfigFromFile(cfg))
	if err := hw.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize hardware: %w", err)
	}

	store, err := storage.NewRecordStore(cfg.Storage.DatabasePath)
	if err != nil {
		hw.Close()
		return nil, err
	}

	var catalog telemetry.Catalog
	publisher, err := telemetry.NewLootPublisher(cfg)
	if err != nil {
		logging.Warn("engine", "loot publishing disabled", map[string]interface{}{"error": err.Error()})
	} else if publisher != nil {
		catalog = publisher
	}

	e := NewCoreEngineWithOptions(Options{
		Config:     cfg,
		Backends:   hw.Backends(),
		Battery:    hw.Battery(),
		Store:      store,
		Hardware:   hw,
		Catalog:    catalog,
		Metrics:    telemetry.NewMetrics(cfg),
		SocketPath: socketPath,
	})
	return e, nil
}

// NewCoreEngineWithOptions builds an engine around existing parts.
func NewCoreEngineWithOptions(opts Options) *CoreEngine {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Clock == nil {
		opts.Clock = timing.NewSystemClock()
	}

	scanCfg, err := ScanConfigFromConfig(cfg)
	if err != nil {
		logging.Warn("engine", "invalid scan settings, using defaults", map[string]interface{}{"error": err.Error()})
	}

	e := &CoreEngine{
		config:     cfg,
		socketPath: opts.SocketPath,
		startTime:  time.Now(),
		clock:      opts.Clock,
		settings:   SettingsFromConfig(cfg),
		scanCfg:    scanCfg,
		store:      opts.Store,
		hardware:   opts.Hardware,
		battery:    opts.Battery,
		app:        AppVFO,
		scanlists:  cfg.Scan.Scanlists,
		recent:     telemetry.NewRecent(recentLootSize),
		metrics:    opts.Metrics,
		requests:   make(chan request),
		done:       make(chan struct{}),
	}
	e.catalog = telemetry.Fanout{e.recent}
	if opts.Catalog != nil {
		e.catalog = append(e.catalog, opts.Catalog)
	}

	e.radio = radio.NewEngine(radio.Options{
		Backends: opts.Backends,
		Storage:  opts.Store,
		Battery:  opts.Battery,
		Clock:    opts.Clock,
		Settings: e.settings,
		MaxVFOs:  cfg.Radio.MaxVFOs,
	})
	return e
}

// Boot prepares storage, loads the VFOs and applies the configured
// multiwatch and routing modes.
func (e *CoreEngine) Boot() error {
	if err := prepareStorage(e.store, e.config.Battery.Calibration); err != nil {
		return err
	}
	if err := e.radio.LoadFromStorage(); err != nil {
		return fmt.Errorf("failed to load VFOs: %w", err)
	}
	if e.config.Radio.Multiwatch {
		e.radio.ToggleMultiwatch(true)
	}
	if e.config.Radio.AudioRouting {
		e.radio.EnableAudioRouting(true)
	}

	now := e.clock.Now()
	e.lastSquelch = now
	e.lastTelemetry = now
	logging.Info("engine", "radio booted", map[string]interface{}{
		"vfos":   e.radio.Count(),
		"active": e.radio.ActiveIndex(),
	})
	return nil
}

// Run boots, serves the socket and drives the loop until ctx ends.
func (e *CoreEngine) Run(ctx context.Context) error {
	if err := e.Boot(); err != nil {
		return err
	}
	if e.socketPath != "" {
		if err := e.listen(); err != nil {
			return err
		}
	}

	e.mutex.Lock()
	e.running = true
	e.mutex.Unlock()
	defer e.shutdown()

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-e.requests:
			req.reply <- e.execute(req.cmd)
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Tick runs one pass of the foreground app plus the periodic jobs.
func (e *CoreEngine) Tick() {
	e.radio.SetSettings(e.settings)

	switch e.app {
	case AppVFO:
		if timing.Elapsed(e.clock, e.lastSquelch) >= SquelchPollMs {
			e.lastSquelch = e.clock.Now()
			e.radio.UpdateSquelch()
		}
		if e.radio.MultiwatchEnabled() {
			e.radio.UpdateMultiwatch()
		} else {
			e.radio.UpdateAudioRouting()
		}
		e.radio.CheckAndPersist()

	// The scanner owns the slot it was started on; multiwatch stays
	// suspended until the scan ends.
	case AppScan, AppAnalyser:
		if e.scanOwnerLost() {
			break
		}
		e.radio.CheckAndPersist()
		e.scanner.Check(e.app == AppAnalyser)

	case AppChannelScan:
		if e.scanOwnerLost() {
			break
		}
		e.channels.Update()
		e.radio.CheckAndPersist()
	}

	if timing.Elapsed(e.clock, e.lastTelemetry) >= TelemetryPeriodMs {
		e.lastTelemetry = e.clock.Now()
		e.sampleTelemetry()
	}
}

// scanOwnerLost stops a scan whose slot is no longer the active one.
func (e *CoreEngine) scanOwnerLost() bool {
	if e.radio.ActiveIndex() == e.scanSlot {
		return false
	}
	logging.Warn("engine", "active VFO changed under the scanner", map[string]interface{}{
		"scan_vfo":   e.scanSlot,
		"active_vfo": e.radio.ActiveIndex(),
	})
	e.stopScan()
	return true
}

func (e *CoreEngine) sampleTelemetry() {
	active := e.radio.ActiveIndex()
	vfo, _ := e.radio.VFO(active)
	s := telemetry.Sample{
		App:       string(e.app),
		ActiveVFO: active,
		Frequency: vfo.Context.Frequency(),
		RSSI:      uint16(e.radio.Get(active, radio.ParamRSSI)),
		Open:      vfo.Open,
		TxStatus:  vfo.Context.Tx().LastError,
		Time:      time.Now(),
	}
	if e.scanner != nil && (e.app == AppScan || e.app == AppAnalyser) {
		e.lastCps = e.scanner.Cps()
		s.Cps = e.lastCps
		s.Threshold = e.scanner.Threshold()
		s.NoiseFloor = e.scanner.NoiseFloor()
	}
	e.metrics.Record(s)
	logging.Debug("engine", "telemetry", map[string]interface{}{
		"app":       s.App,
		"frequency": s.Frequency,
		"rssi":      s.RSSI,
		"cps":       s.Cps,
	})
}

// Submit hands cmd to the loop and waits for its answer.
func (e *CoreEngine) Submit(ctx context.Context, cmd *protocol.Command) *protocol.Response {
	reply := make(chan *protocol.Response, 1)
	select {
	case e.requests <- request{cmd: cmd, reply: reply}:
	case <-ctx.Done():
		return protocol.NewErrorResponse("engine busy")
	case <-e.done:
		return protocol.NewErrorResponse("engine stopped")
	}
	select {
	case resp := <-reply:
		return resp
	case <-ctx.Done():
		return protocol.NewErrorResponse("engine busy")
	}
}

// listen opens the Unix socket
func (e *CoreEngine) listen() error {
	os.Remove(e.socketPath)

	listener, err := net.Listen("unix", e.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create Unix socket: %w", err)
	}
	e.listener = listener

	if err := os.Chmod(e.socketPath, 0660); err != nil {
		logging.Warn("engine", "failed to set socket permissions", map[string]interface{}{"error": err.Error()})
	}
	logging.Info("engine", "core engine listening", map[string]interface{}{"socket": e.socketPath})

	go e.acceptConnections()
	return nil
}

func (e *CoreEngine) isRunning() bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.running
}

// acceptConnections accepts and handles socket connections
func (e *CoreEngine) acceptConnections() {
	for {
		conn, err := e.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if e.isRunning() {
				logging.Warn("engine", "socket accept error", map[string]interface{}{"error": err.Error()})
			}
			continue
		}

		go e.handleConnection(conn)
	}
}

// handleConnection serves one client until QUIT or disconnect
func (e *CoreEngine) handleConnection(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		cmd, err := protocol.ParseCommand(line)
		if err != nil {
			response := protocol.NewErrorResponse(fmt.Sprintf("parse error: %v", err))
			conn.Write([]byte(response.String() + "\n"))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		response := e.Submit(ctx, cmd)
		cancel()
		conn.Write([]byte(response.String() + "\n"))

		if cmd.Type == protocol.CmdQuit {
			break
		}
	}
}

// shutdown unkeys, flushes pending state and releases everything.
func (e *CoreEngine) shutdown() {
	e.mutex.Lock()
	e.running = false
	e.mutex.Unlock()
	close(e.done)

	if e.listener != nil {
		e.listener.Close()
		os.Remove(e.socketPath)
	}

	if e.radio.TxActive() {
		e.radio.StopTx()
	}
	if vfo, ok := e.radio.VFO(e.radio.ActiveIndex()); ok && vfo.Context.NeedsPersist() {
		if err := e.radio.SaveActive(); err != nil {
			logging.Error("engine", "failed to save VFO on shutdown", map[string]interface{}{"error": err.Error()})
		}
	}

	e.metrics.Close()
	if closer, ok := e.store.(interface{ Close() error }); ok {
		closer.Close()
	}
	if e.hardware != nil {
		e.hardware.Close()
	}
	logging.Info("engine", "core engine stopped")
}

// Radio exposes the radio core, for tests and tools running on the loop.
func (e *CoreEngine) Radio() *radio.Engine { return e.radio }

// App is the foreground application.
func (e *CoreEngine) App() App { return e.app }
