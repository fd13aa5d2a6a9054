package telemetry

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/influxdata/influxdb-client-go/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dougsko/rxcore/pkg/radio"
	"github.com/dougsko/rxcore/pkg/scan"
)

var (
	_ scan.Catalog = (*Recent)(nil)
	_ scan.Catalog = (*LootPublisher)(nil)
	_ scan.Catalog = Fanout{}
)

func open(freq uint32, rssi uint16) radio.Measurement {
	return radio.Measurement{Frequency: freq, RSSI: rssi, SNR: 20, Open: true}
}

func TestRecent(t *testing.T) {
	r := NewRecent(2)

	r.Update(radio.Measurement{Frequency: 14550000, RSSI: 100})
	assert.Empty(t, r.Items(), "closed samples are not loot")

	r.Update(open(14550000, 180))
	r.Update(open(43350000, 170))
	r.Update(open(14550000, 190))

	items := r.Items()
	require.Len(t, items, 2)
	assert.Equal(t, uint32(14550000), items[0].Frequency)
	assert.Equal(t, 2, items[0].Hits)
	assert.Equal(t, uint16(190), items[0].RSSI)
	assert.Equal(t, "145.50000", items[0].FrequencyMHz)

	r.Update(open(44600000, 160))
	items = r.Items()
	require.Len(t, items, 2, "bounded")
	assert.Equal(t, uint32(44600000), items[0].Frequency)
	assert.Equal(t, uint32(14550000), items[1].Frequency)

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, uint32(44600000), last.Frequency)
}

func TestLootCode(t *testing.T) {
	m := open(14550000, 180)
	m.Code = radio.Code{Type: radio.CodeCTCSS, Value: 0}
	l := lootFrom(m, time.Unix(0, 0))
	assert.Equal(t, "CT:67.0", l.Code)
	assert.InDelta(t, -70.0, l.DBm, 0.01)

	l = lootFrom(open(14550000, 180), time.Unix(0, 0))
	assert.Empty(t, l.Code)
}

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type fakeClient struct {
	mu        sync.Mutex
	connected bool
	topics    []string
	payloads  [][]byte
}

func (f *fakeClient) IsConnected() bool { return f.connected }

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload.([]byte))
	return doneToken{}
}

func TestLootPublisher(t *testing.T) {
	client := &fakeClient{connected: true}
	p := newLootPublisher(client, "rxcore/loot", 0)

	p.Update(radio.Measurement{Frequency: 14550000})
	p.Update(open(14550000, 180))
	p.Update(open(14550000, 182))
	assert.Equal(t, 1, p.Sent(), "one message per opening")

	p.Update(radio.Measurement{Frequency: 14550000})
	p.Update(open(14550000, 181))
	assert.Equal(t, 2, p.Sent(), "reopening publishes again")

	p.Replace(14550250)
	p.Update(open(14550250, 175))
	assert.Equal(t, 3, p.Sent())

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, "rxcore/loot/14550000", client.topics[0])

	var l Loot
	require.NoError(t, json.Unmarshal(client.payloads[0], &l))
	assert.Equal(t, uint32(14550000), l.Frequency)
	assert.Equal(t, uint16(180), l.RSSI)
}

func TestLootPublisherDisconnected(t *testing.T) {
	client := &fakeClient{}
	p := newLootPublisher(client, "rxcore/loot", 1)
	p.Update(open(14550000, 180))
	assert.Zero(t, p.Sent())

	var nilPublisher *LootPublisher
	assert.NotPanics(t, func() {
		nilPublisher.Update(open(14550000, 180))
		nilPublisher.Replace(14550000)
	})
}

func TestFanout(t *testing.T) {
	a, b := NewRecent(4), NewRecent(4)
	f := Fanout{a, b}
	f.Update(open(14550000, 180))
	f.Replace(14550250)
	assert.Len(t, a.Items(), 1)
	assert.Len(t, b.Items(), 1)
}

type recordingWriteAPI struct {
	points  []*write.Point
	flushed int
}

func (m *recordingWriteAPI) WriteRecord(line string)       {}
func (m *recordingWriteAPI) WritePoint(point *write.Point) { m.points = append(m.points, point) }
func (m *recordingWriteAPI) Flush()                        { m.flushed++ }
func (m *recordingWriteAPI) Close()                        {}
func (m *recordingWriteAPI) Errors() <-chan error          { return nil }

func TestMetrics(t *testing.T) {
	w := &recordingWriteAPI{}
	m := NewMetricsWithAPI(w, "K3DEP")

	m.Record(Sample{App: "vfo", Frequency: 14550000, RSSI: 180, Time: time.Unix(10, 0)})
	require.Len(t, w.points, 1)
	assert.Equal(t, "radio.vfo", w.points[0].Name())

	m.Record(Sample{App: "scan", Frequency: 14550000, Cps: 800, Time: time.Unix(11, 0)})
	require.Len(t, w.points, 3)
	assert.Equal(t, "radio.scan", w.points[2].Name())

	fields := map[string]interface{}{}
	for _, f := range w.points[2].FieldList() {
		fields[f.Key] = f.Value
	}
	assert.EqualValues(t, 800, fields["cps"])
	assert.Equal(t, uint32(800), m.Last().Cps)

	m.Close()
	assert.Equal(t, 1, w.flushed)

	var disabled *Metrics
	assert.NotPanics(t, func() {
		disabled.Record(Sample{})
		disabled.Close()
	})
}
