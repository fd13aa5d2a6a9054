package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/dougsko/rxcore/pkg/protocol"
	"github.com/dougsko/rxcore/pkg/radio"
)

// SocketClient represents a client connection to the core engine
type SocketClient struct {
	socketPath string
	timeout    time.Duration
}

// NewSocketClient creates a new socket client
func NewSocketClient(socketPath string) *SocketClient {
	return &SocketClient{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// SendCommand sends a command and returns the response
func (c *SocketClient) SendCommand(cmd string) (*protocol.Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to socket: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	_, err = conn.Write([]byte(cmd + "\n"))
	if err != nil {
		return nil, fmt.Errorf("send error: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		return nil, fmt.Errorf("no response received")
	}

	var response protocol.Response
	if err := json.Unmarshal(scanner.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	return &response, nil
}

// do sends cmd and fails on an unsuccessful response
func (c *SocketClient) do(cmd string) (*protocol.Response, error) {
	resp, err := c.SendCommand(cmd)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		name := strings.ToLower(strings.SplitN(cmd, ":", 2)[0])
		return nil, fmt.Errorf("%s error: %s", name, resp.Error)
	}
	return resp, nil
}

// decode converts one field of the response data into out
func decode(resp *protocol.Response, key string, out interface{}) error {
	raw, ok := resp.Data[key]
	if !ok {
		return fmt.Errorf("%s not found in response", key)
	}
	data, _ := json.Marshal(raw)
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return nil
}

// GetStatus gets the current radio status
func (c *SocketClient) GetStatus() (*protocol.Status, error) {
	resp, err := c.do(protocol.CmdStatus)
	if err != nil {
		return nil, err
	}
	var status protocol.Status
	if err := decode(resp, "status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetVFOs lists every VFO slot
func (c *SocketClient) GetVFOs() ([]radio.VFOStatus, error) {
	resp, err := c.do(protocol.CmdVFOs)
	if err != nil {
		return nil, err
	}
	var vfos []radio.VFOStatus
	if err := decode(resp, "vfos", &vfos); err != nil {
		return nil, err
	}
	return vfos, nil
}

// SwitchVFO activates slot index
func (c *SocketClient) SwitchVFO(index int) error {
	_, err := c.do(fmt.Sprintf("%s:%d", protocol.CmdVFO, index))
	return err
}

// NextVFO activates the following slot
func (c *SocketClient) NextVFO() error {
	_, err := c.do(protocol.CmdVFO + ":next")
	return err
}

// SetParam sets a parameter of the active VFO and returns its display value
func (c *SocketClient) SetParam(param string, value uint32) (string, error) {
	resp, err := c.do(fmt.Sprintf("%s:%s:%d", protocol.CmdSet, param, value))
	if err != nil {
		return "", err
	}
	v, _ := resp.Data["display"].(string)
	return v, nil
}

// AdjustParam moves a parameter by delta with wraparound
func (c *SocketClient) AdjustParam(param string, delta int) (string, error) {
	resp, err := c.do(fmt.Sprintf("%s:%s:%d", protocol.CmdAdjust, param, delta))
	if err != nil {
		return "", err
	}
	v, _ := resp.Data["display"].(string)
	return v, nil
}

// ToggleMode flips the active VFO between frequency and channel mode
func (c *SocketClient) ToggleMode() error {
	_, err := c.do(protocol.CmdMode)
	return err
}

// LoadChannel loads a stored channel into the active VFO
func (c *SocketClient) LoadChannel(channel int) error {
	_, err := c.do(fmt.Sprintf("%s:%d", protocol.CmdChannel, channel))
	return err
}

// SetTX keys or unkeys the transmitter and returns the resulting state
func (c *SocketClient) SetTX(on bool) (string, error) {
	state := "off"
	if on {
		state = "on"
	}
	resp, err := c.do(protocol.CmdTX + ":" + state)
	if err != nil {
		return "", err
	}
	v, _ := resp.Data["tx_state"].(string)
	return v, nil
}

// Scan runs a scanner action such as start, stop, channels or next
func (c *SocketClient) Scan(action string, args ...string) (*protocol.ScanStatus, error) {
	cmd := protocol.CmdScan + ":" + action
	if len(args) > 0 {
		cmd += ":" + strings.Join(args, ":")
	}
	resp, err := c.do(cmd)
	if err != nil {
		return nil, err
	}
	if _, ok := resp.Data["scan"]; !ok {
		return nil, nil
	}
	var st protocol.ScanStatus
	if err := decode(resp, "scan", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Cps returns the scanner's cycles per second
func (c *SocketClient) Cps() (uint32, error) {
	resp, err := c.do(protocol.CmdCps)
	if err != nil {
		return 0, err
	}
	v, _ := resp.Data["cps"].(float64)
	return uint32(v), nil
}

// Key injects a key event
func (c *SocketClient) Key(key, state string) error {
	_, err := c.do(fmt.Sprintf("%s:%s:%s", protocol.CmdKey, key, state))
	return err
}

// SetToggle switches MULTIWATCH, ROUTING or MONITOR on, off or toggle
func (c *SocketClient) SetToggle(cmd, state string) (bool, error) {
	resp, err := c.do(cmd + ":" + state)
	if err != nil {
		return false, err
	}
	v, _ := resp.Data["enabled"].(bool)
	return v, nil
}

// SelectBand moves the active VFO onto a named band of its backend
func (c *SocketClient) SelectBand(name string) error {
	_, err := c.do(protocol.CmdBand + ":" + name)
	return err
}

// GetLoot returns recently heard signals
func (c *SocketClient) GetLoot(limit int) ([]map[string]interface{}, error) {
	cmd := protocol.CmdLoot
	if limit > 0 {
		cmd = fmt.Sprintf("%s:%d", protocol.CmdLoot, limit)
	}
	resp, err := c.do(cmd)
	if err != nil {
		return nil, err
	}
	var loot []map[string]interface{}
	if _, ok := resp.Data["loot"]; !ok {
		return loot, nil
	}
	if err := decode(resp, "loot", &loot); err != nil {
		return nil, err
	}
	return loot, nil
}

// Ping tests the connection
func (c *SocketClient) Ping() error {
	_, err := c.do(protocol.CmdPing)
	return err
}

// IsConnected tests if the daemon is reachable
func (c *SocketClient) IsConnected() bool {
	return c.Ping() == nil
}
