package pool

import "time"

func (p *Pool) reclaimLoop() {
	defer close(p.done)

	ticker := p.clock.NewTicker(p.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.Chan():
			p.reclaim()
		}
	}
}

type reclaimed struct {
	id    int
	owner Owner
	held  time.Duration
}

// reclaim takes back every handle whose last acquire is at least
// idleTimeout old and returns how many it took.
func (p *Pool) reclaim() int {
	now := p.clock.Now()

	var expired []*Handle
	var report []reclaimed
	p.mu.Lock()
	for _, h := range p.handles {
		if !h.checkedOut {
			continue
		}
		held := now.Sub(h.lastUsedAt)
		if held < p.idleTimeout {
			continue
		}
		report = append(report, reclaimed{id: h.id, owner: h.owner, held: held})
		p.detachLocked(h)
		expired = append(expired, h)
	}
	p.reclaimed += uint64(len(expired))
	p.mu.Unlock()

	for _, r := range report {
		p.log.Warn("pool: reclaimed connection %d from owner %q after %s", r.id, r.owner, r.held)
	}
	for _, h := range expired {
		p.recycle(h)
	}
	return len(expired)
}
