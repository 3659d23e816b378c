package node

import (
	"sync"

	"ergo.services/actor/gen"
)

// links keeps the bidirectional links between the processes. Both
// directions of a link are added and removed within one critical section,
// so nobody can observe a half-made link.
type links struct {
	mutex sync.RWMutex
	links map[gen.PID][]gen.PID
}

func newLinks() *links {
	return &links{
		links: make(map[gen.PID][]gen.PID),
	}
}

// link creates the link between a and b. Links are bidirectional and there
// can only be one link between two processes; repeated calls have no effect.
// The alive check runs under the lock, so a process that has started
// terminating (it removes its links under the same lock) can not be linked.
func (l *links) link(a, b gen.PID, alive func(gen.PID) bool) error {
	if a == b {
		return gen.ErrNotAllowed
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if alive(a) == false || alive(b) == false {
		return gen.ErrProcessTerminated
	}

	for _, pid := range l.links[a] {
		if pid == b {
			return nil
		}
	}
	l.links[a] = append(l.links[a], b)
	l.links[b] = append(l.links[b], a)
	return nil
}

// unlink removes the link between a and b if it exists.
func (l *links) unlink(a, b gen.PID) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.drop(a, b)
	l.drop(b, a)
}

func (l *links) isLinked(a, b gen.PID) bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	for _, pid := range l.links[a] {
		if pid == b {
			return true
		}
	}
	return false
}

func (l *links) linksOf(pid gen.PID) []gen.PID {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	peers := make([]gen.PID, len(l.links[pid]))
	copy(peers, l.links[pid])
	return peers
}

// remove deletes all the links of the process and returns its peers.
func (l *links) remove(pid gen.PID) []gen.PID {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	peers := l.links[pid]
	delete(l.links, pid)
	for _, peer := range peers {
		l.drop(peer, pid)
	}
	return peers
}

// drop removes b from the link list of a. Must be called with the lock held.
func (l *links) drop(a, b gen.PID) {
	list := l.links[a]
	for i := range list {
		if list[i] != b {
			continue
		}
		list[i] = list[len(list)-1]
		list = list[:len(list)-1]
		break
	}
	if len(list) == 0 {
		delete(l.links, a)
		return
	}
	l.links[a] = list
}
