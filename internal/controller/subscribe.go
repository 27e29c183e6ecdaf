// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package controller

// Subscribe returns a channel receiving every display change, starting with the current
// state. A subscriber that falls behind loses the oldest pending update, never the newest.
// The returned func unsubscribes and closes the channel.
func (c *Controller) Subscribe(buffer int) (<-chan DisplayState, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan DisplayState, buffer)

	c.subMu.Lock()
	if c.closed.Load() {
		c.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.State()
	c.subMu.Unlock()

	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

func (c *Controller) broadcast(ds DisplayState) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- ds:
			continue
		default:
		}
		select {
		case <-ch:
			subscriberDropsTotal.Inc()
		default:
		}
		select {
		case ch <- ds:
		default:
		}
	}
}
