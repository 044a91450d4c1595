package smbfs

import (
	"context"
	"time"
)

// startKeepalive launches the idle ticker that pings one mounted unit per
// interval, round robin. The ping shares the driver mutex with dispatch,
// so it never races a request; errors are logged and otherwise ignored,
// the point is only to keep the server from expiring the session.
func (d *Driver) startKeepalive() {
	if d.keepAliveEvery <= 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		t := time.NewTicker(d.keepAliveEvery)
		defer t.Stop()
		for {
			select {
			case <-d.done:
				return
			case <-t.C:
				d.keepaliveTick()
			}
		}
	}()
}

func (d *Driver) keepaliveTick() {
	d.mu.Lock()
	defer d.mu.Unlock()

	unit := d.kaUnit
	d.kaUnit = (d.kaUnit + 1) % d.units
	if conn := d.slots[unit].conn; conn != nil {
		if err := conn.Ping(context.Background()); err != nil {
			d.log.Debug("keepalive", "unit", unit, "error", err)
		}
	}
}
