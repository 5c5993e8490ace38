package reactor

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// fdReady is a readiness notification for a single descriptor, as reported
// by the platform backend. Error and hangup conditions are reported as
// Read|Write.
type fdReady struct {
	fd     int
	events Interest
}

// watchEntry is a single event's interest in a descriptor.
type watchEntry struct {
	id       EventID
	gen      uint64
	interest Interest
}

// readyEvent is an (event, trigger) pair produced by a multiplexer wait.
type readyEvent struct {
	id      EventID
	gen     uint64
	trigger Interest
}

// multiplexer composes the platform poller with the watch set, which maps
// each descriptor to the events watching it, in registration order.
//
// Only wakeup is safe to call concurrently, all other methods must be
// called from the goroutine that owns the Context.
type multiplexer struct { // betteralign:ignore
	poller  poller
	watches map[int][]watchEntry
	buf     []fdReady
	order   []int
	merged  map[int]Interest
	ready   []readyEvent
	wakeBuf [8]byte

	wakeMu      sync.RWMutex
	wakeFd      int
	wakeWriteFd int
	wakePending atomic.Bool
	closed      bool
}

func newMultiplexer(bufSize int) (*multiplexer, error) {
	m := &multiplexer{
		watches: make(map[int][]watchEntry),
		buf:     make([]fdReady, 0, bufSize),
		merged:  make(map[int]Interest),
	}

	if err := m.poller.init(bufSize); err != nil {
		if errors.Is(err, ErrUnsupportedPlatform) {
			return nil, err
		}
		return nil, &MultiplexerError{Op: "create", Err: err}
	}

	wakeFd, wakeWriteFd, err := createWakeFd()
	if err != nil {
		_ = m.poller.close()
		return nil, &MultiplexerError{Op: "create wake descriptor", Err: err}
	}
	m.wakeFd = wakeFd
	m.wakeWriteFd = wakeWriteFd

	if err := m.poller.control(wakeFd, 0, Read); err != nil {
		_ = m.poller.close()
		closeWakeFd(wakeFd, wakeWriteFd)
		return nil, &MultiplexerError{Op: "add wake descriptor", Err: err}
	}

	return m, nil
}

// union returns the combined interest of every entry watching fd.
func union(entries []watchEntry) (v Interest) {
	for _, e := range entries {
		v |= e.interest
	}
	return
}

// watch adds an entry for fd, updating the backend registration if the
// union of interests changed.
func (m *multiplexer) watch(fd int, id EventID, gen uint64, interest Interest) error {
	interest &= ioInterest
	entries := m.watches[fd]
	prev := union(entries)
	next := prev | interest
	if next != prev {
		if err := m.poller.control(fd, prev, next); err != nil {
			return &MultiplexerError{Op: controlOp(prev, next), Err: err}
		}
	}
	m.watches[fd] = append(entries, watchEntry{id: id, gen: gen, interest: interest})
	return nil
}

// unwatch removes the entry for id from fd, if any. The watch set is
// always updated, even if the backend fails.
func (m *multiplexer) unwatch(fd int, id EventID) error {
	entries := m.watches[fd]
	i := -1
	for j, e := range entries {
		if e.id == id {
			i = j
			break
		}
	}
	if i < 0 {
		return nil
	}

	prev := union(entries)
	entries = append(entries[:i], entries[i+1:]...)
	next := union(entries)
	if len(entries) == 0 {
		delete(m.watches, fd)
	} else {
		m.watches[fd] = entries
	}

	if next != prev {
		if err := m.poller.control(fd, prev, next); err != nil {
			return &MultiplexerError{Op: controlOp(prev, next), Err: err}
		}
	}
	return nil
}

func controlOp(prev, next Interest) string {
	switch {
	case prev == 0:
		return "add"
	case next == 0:
		return "delete"
	default:
		return "modify"
	}
}

// watching returns the number of descriptors in the watch set.
func (m *multiplexer) watching() int {
	return len(m.watches)
}

// reset removes every watch, ignoring backend failures.
func (m *multiplexer) reset() {
	for fd, entries := range m.watches {
		_ = m.poller.control(fd, union(entries), 0)
	}
	clear(m.watches)
}

// wait blocks for readiness, a wakeup, or until timeout elapses (forever if
// timeout is negative), returning the ready (event, trigger) pairs. The
// returned slice is only valid until the next call.
func (m *multiplexer) wait(timeout time.Duration) ([]readyEvent, error) {
	buf, err := m.poller.wait(timeoutMillis(timeout), m.buf[:0])
	if err != nil {
		return nil, &MultiplexerError{Op: "wait", Err: err}
	}
	m.buf = buf[:0]

	// kqueue reports each filter separately, so merge by descriptor
	m.order = m.order[:0]
	for _, r := range buf {
		if r.fd == m.wakeFd {
			m.drainWakeup()
			continue
		}
		if prev, ok := m.merged[r.fd]; ok {
			m.merged[r.fd] = prev | r.events
			continue
		}
		m.merged[r.fd] = r.events
		m.order = append(m.order, r.fd)
	}

	m.ready = m.ready[:0]
	for _, fd := range m.order {
		events := m.merged[fd]
		delete(m.merged, fd)
		for _, e := range m.watches[fd] {
			if trigger := events & e.interest; trigger != 0 {
				m.ready = append(m.ready, readyEvent{id: e.id, gen: e.gen, trigger: trigger})
			}
		}
	}
	return m.ready, nil
}

// timeoutMillis rounds up to whole milliseconds, so a wait never returns
// before a deadline.
func timeoutMillis(timeout time.Duration) int {
	if timeout < 0 {
		return -1
	}
	ms := (timeout + time.Millisecond - 1) / time.Millisecond
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}

// wakeup interrupts a blocked (or the next) wait. Concurrent wakeups are
// coalesced. Safe to call from any goroutine.
func (m *multiplexer) wakeup() error {
	m.wakeMu.RLock()
	defer m.wakeMu.RUnlock()
	if m.closed {
		return ErrContextClosed
	}
	if !m.wakePending.CompareAndSwap(false, true) {
		return nil
	}
	if err := writeWakeFd(m.wakeWriteFd); err != nil {
		m.wakePending.Store(false)
		return err
	}
	return nil
}

func (m *multiplexer) drainWakeup() {
	m.wakePending.Store(false)
	drainWakeFd(m.wakeFd, m.wakeBuf[:])
}

func (m *multiplexer) close() error {
	m.wakeMu.Lock()
	defer m.wakeMu.Unlock()
	if m.closed {
		return ErrContextClosed
	}
	m.closed = true
	clear(m.watches)
	err := m.poller.close()
	closeWakeFd(m.wakeFd, m.wakeWriteFd)
	if err != nil {
		return &MultiplexerError{Op: "close", Err: err}
	}
	return nil
}
