package alerts

import "sync"

// portLocks serializes evaluation per port code
type portLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPortLocks() *portLocks {
	return &portLocks{locks: make(map[string]*sync.Mutex)}
}

func (p *portLocks) lock(portCode string) func() {
	p.mu.Lock()
	portLock, ok := p.locks[portCode]
	if !ok {
		portLock = &sync.Mutex{}
		p.locks[portCode] = portLock
	}
	p.mu.Unlock()

	portLock.Lock()
	return portLock.Unlock
}
