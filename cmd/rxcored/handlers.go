package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dougsko/rxcore/pkg/logging"
)

func errorJSON(c *gin.Context, code int, err error) {
	c.JSON(code, gin.H{"error": err.Error()})
}

// handleGetStatus returns the radio summary via socket
func (d *Daemon) handleGetStatus(c *gin.Context) {
	status, err := d.socketClient.GetStatus()
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// handleGetVFOs lists every VFO slot
func (d *Daemon) handleGetVFOs(c *gin.Context) {
	vfos, err := d.socketClient.GetVFOs()
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vfos":  vfos,
		"count": len(vfos),
	})
}

// switchTo makes :index the active VFO. Mode changes only apply to the
// active VFO, so every per-slot route goes through here.
func (d *Daemon) switchTo(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid VFO index"})
		return 0, false
	}
	if err := d.socketClient.SwitchVFO(index); err != nil {
		errorJSON(c, http.StatusConflict, err)
		return 0, false
	}
	return index, true
}

func (d *Daemon) handleSwitchVFO(c *gin.Context) {
	index, ok := d.switchTo(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": index})
}

func (d *Daemon) handleToggleMode(c *gin.Context) {
	index, ok := d.switchTo(c)
	if !ok {
		return
	}
	if err := d.socketClient.ToggleMode(); err != nil {
		errorJSON(c, http.StatusConflict, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": index, "status": "toggled"})
}

// handleSetParam sets (value) or adjusts (delta) one parameter of the
// active VFO.
func (d *Daemon) handleSetParam(c *gin.Context) {
	var req struct {
		Value *uint32 `json:"value"`
		Delta *int    `json:"delta"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	param := c.Param("param")
	var (
		display string
		err     error
	)
	switch {
	case req.Value != nil:
		display, err = d.socketClient.SetParam(param, *req.Value)
	case req.Delta != nil:
		display, err = d.socketClient.AdjustParam(param, *req.Delta)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "value or delta is required"})
		return
	}
	if err != nil {
		errorJSON(c, http.StatusUnprocessableEntity, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"param": param, "display": display})
}

func (d *Daemon) handleTX(c *gin.Context) {
	var req struct {
		On bool `json:"on"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	state, err := d.socketClient.SetTX(req.On)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "tx_state": state})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tx_state": state, "on": req.On})
}

func (d *Daemon) handleScan(c *gin.Context) {
	var req struct {
		Action string   `json:"action" binding:"required"`
		Args   []string `json:"args"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	st, err := d.socketClient.Scan(req.Action, req.Args...)
	if err != nil {
		errorJSON(c, http.StatusUnprocessableEntity, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scan": st})
}

func (d *Daemon) handleGetCps(c *gin.Context) {
	cps, err := d.socketClient.Cps()
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cps": cps})
}

func (d *Daemon) handleKey(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required"`
		State string `json:"state"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	if req.State == "" {
		req.State = "released"
	}
	if err := d.socketClient.Key(req.Key, req.State); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": req.Key, "state": req.State})
}

func (d *Daemon) handleGetLoot(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		limit = 20
	}
	loot, err := d.socketClient.GetLoot(limit)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"loot": loot, "count": len(loot)})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleStatusWebSocket streams STATUS snapshots until the client goes away.
func (d *Daemon) handleStatusWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn("web", "websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()

	// Reads only detect the close; clients send nothing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			status, err := d.socketClient.GetStatus()
			if err != nil {
				conn.WriteJSON(gin.H{"type": "error", "error": err.Error()})
				continue
			}
			if err := conn.WriteJSON(gin.H{"type": "status", "status": status}); err != nil {
				return
			}
		}
	}
}
