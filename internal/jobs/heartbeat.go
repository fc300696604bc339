/*
Package jobs
File: heartbeat.go
Description:
    The bakery heartbeat. On a cron schedule it re-broadcasts the current
    sales snapshot so renderers that missed a push resync.
*/

package jobs

import (
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/everforgeworks/dessert-clicker/internal/api"
	"github.com/everforgeworks/dessert-clicker/internal/game"
)

// Publisher is the part of api.Hub the heartbeat needs.
type Publisher interface {
	ClientCount() int
	Publish(msg api.Message) error
}

// Heartbeat manages the periodic resync job.
type Heartbeat struct {
	cron   *cron.Cron
	spec   string
	engine *game.Engine
	pub    Publisher
}

// NewHeartbeat creates a heartbeat; an empty spec disables it.
func NewHeartbeat(spec string, engine *game.Engine, pub Publisher) *Heartbeat {
	return &Heartbeat{
		cron:   cron.New(),
		spec:   spec,
		engine: engine,
		pub:    pub,
	}
}

// Start schedules the pulse and starts the cron runner.
func (h *Heartbeat) Start() error {
	if h.spec == "" {
		log.Info("[CRON] Heartbeat disabled")
		return nil
	}
	if _, err := h.cron.AddFunc(h.spec, h.Pulse); err != nil {
		return fmt.Errorf("heartbeat schedule %q: %w", h.spec, err)
	}
	h.cron.Start()
	log.WithField("spec", h.spec).Info("[CRON] Heartbeat started")
	return nil
}

// Stop halts scheduling and waits for a running pulse to finish.
func (h *Heartbeat) Stop() {
	<-h.cron.Stop().Done()
}

// Pulse pushes the current snapshot to every connected renderer.
func (h *Heartbeat) Pulse() {
	h.pulse()
}

// pulse reports whether a snapshot was sent.
func (h *Heartbeat) pulse() bool {
	if h.pub.ClientCount() == 0 {
		return false
	}
	// Published under the engine lock so a pulse never overtakes a newer sales_update
	var err error
	snap := h.engine.Republish(func(s game.Snapshot) {
		err = h.pub.Publish(api.Message{Type: api.MsgSalesPulse, Payload: s})
	})
	if err != nil {
		log.WithError(err).Warn("[CRON] Heartbeat publish failed")
		return false
	}
	log.WithField("units_sold", snap.UnitsSold).Debug("[CRON] Sales pulse")
	return true
}
