package card

import "time"

// press is one live press on a player tile.
type press struct {
	seq   uint64
	timer *time.Timer
	fired bool
}

// PressStart begins a press on playerID. A press already live on the same tile is replaced.
func (c *Card) PressStart(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopPress(playerID)
	c.seq++
	p := &press{seq: c.seq}
	p.timer = time.AfterFunc(c.longPressDelay, func() { c.expire(playerID, p.seq) })
	c.presses[playerID] = p
}

// PressEnd ends the press on playerID and reports whether it counts as a tap.
// A press whose timer already fired is not a tap.
func (c *Card) PressEnd(playerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.presses[playerID]
	if !ok {
		return false
	}
	tap := !p.fired
	c.stopPress(playerID)
	return tap
}

// PressCancel abandons the press on playerID without a tap, as on pointer leave.
func (c *Card) PressCancel(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopPress(playerID)
}

// Pressing reports whether a press is live on playerID.
func (c *Card) Pressing(playerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.presses[playerID]
	return ok
}

// stopPress stops and forgets the timer for playerID. Callers hold c.mu.
func (c *Card) stopPress(playerID string) {
	if p, ok := c.presses[playerID]; ok {
		p.timer.Stop()
		delete(c.presses, playerID)
	}
}

func (c *Card) expire(playerID string, seq uint64) {
	c.mu.Lock()
	p, ok := c.presses[playerID]
	if !ok || p.seq != seq || p.fired {
		// cancelled or replaced after the timer was already running
		c.mu.Unlock()
		return
	}
	p.fired = true
	show := c.events.ShowDetails
	c.mu.Unlock()

	c.logger.Debug("long press", "player", playerID)
	if show != nil {
		show(playerID)
	}
}

// Close stops every live press timer.
func (c *Card) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.presses {
		c.stopPress(id)
	}
}
