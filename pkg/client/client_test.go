package client

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dougsko/rxcore/pkg/protocol"
	"github.com/dougsko/rxcore/pkg/radio"
)

// serve answers every connection with handler's response to its one line.
func serve(t *testing.T, handler func(cmd *protocol.Command) *protocol.Response) string {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "rxc")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	socketPath := filepath.Join(tempDir, "s.sock")
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			scanner := bufio.NewScanner(conn)
			if scanner.Scan() {
				var resp *protocol.Response
				cmd, err := protocol.ParseCommand(scanner.Text())
				if err != nil {
					resp = protocol.NewErrorResponse(err.Error())
				} else {
					resp = handler(cmd)
				}
				conn.Write([]byte(resp.String() + "\n"))
			}
			conn.Close()
		}
	}()
	return socketPath
}

func TestSocketClient(t *testing.T) {
	socketPath := serve(t, func(cmd *protocol.Command) *protocol.Response {
		switch cmd.Type {
		case protocol.CmdPing:
			return protocol.NewSuccessResponse(map[string]interface{}{"pong": true})
		case protocol.CmdStatus:
			return protocol.NewSuccessResponse(map[string]interface{}{
				"status": protocol.Status{Callsign: "K3DEP", ActiveVFO: 1, VFOCount: 2},
			})
		case protocol.CmdVFOs:
			return protocol.NewSuccessResponse(map[string]interface{}{
				"vfos": []radio.VFOStatus{{Index: 0}, {Index: 1, Active: true, Frequency: 14550000}},
			})
		case protocol.CmdSet:
			if cmd.Arg("param") != "frequency" {
				return protocol.NewErrorResponse("unknown parameter")
			}
			return protocol.NewSuccessResponse(map[string]interface{}{"display": "145.50000"})
		case protocol.CmdCps:
			return protocol.NewSuccessResponse(map[string]interface{}{"cps": 812})
		case protocol.CmdTX:
			return protocol.NewSuccessResponse(map[string]interface{}{"tx_state": "BAT LOW"})
		}
		return protocol.NewErrorResponse("unknown command")
	})

	c := NewSocketClient(socketPath)

	t.Run("Ping", func(t *testing.T) {
		if !c.IsConnected() {
			t.Fatal("Expected client to reach server")
		}
	})

	t.Run("Status", func(t *testing.T) {
		status, err := c.GetStatus()
		if err != nil {
			t.Fatalf("Failed to get status: %v", err)
		}
		if status.Callsign != "K3DEP" || status.ActiveVFO != 1 || status.VFOCount != 2 {
			t.Errorf("Unexpected status %+v", status)
		}
	})

	t.Run("VFOs", func(t *testing.T) {
		vfos, err := c.GetVFOs()
		if err != nil {
			t.Fatalf("Failed to list VFOs: %v", err)
		}
		if len(vfos) != 2 || !vfos[1].Active || vfos[1].Frequency != 14550000 {
			t.Errorf("Unexpected VFOs %+v", vfos)
		}
	})

	t.Run("Set Param", func(t *testing.T) {
		display, err := c.SetParam("frequency", 14550000)
		if err != nil {
			t.Fatalf("Failed to set: %v", err)
		}
		if display != "145.50000" {
			t.Errorf("Expected display 145.50000, got %q", display)
		}

		_, err = c.SetParam("bogus", 1)
		if err == nil || !strings.Contains(err.Error(), "set error: unknown parameter") {
			t.Errorf("Expected server error to surface, got %v", err)
		}
	})

	t.Run("Cps And TX", func(t *testing.T) {
		cps, err := c.Cps()
		if err != nil || cps != 812 {
			t.Errorf("Expected cps 812, got %d (%v)", cps, err)
		}
		state, err := c.SetTX(true)
		if err != nil || state != "BAT LOW" {
			t.Errorf("Expected BAT LOW, got %q (%v)", state, err)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		if err := c.ToggleMode(); err == nil {
			t.Error("Expected error for unhandled command")
		}
	})
}

func TestSocketClientNoServer(t *testing.T) {
	c := NewSocketClient(filepath.Join(os.TempDir(), "rxcore-missing.sock"))
	if c.IsConnected() {
		t.Error("Expected no connection without a server")
	}
	if _, err := c.SendCommand("PING"); err == nil || !strings.Contains(err.Error(), "failed to connect") {
		t.Errorf("Expected connect error, got %v", err)
	}
}
