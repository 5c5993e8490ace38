package reactor

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// maxSignal bounds the signal numbers that may be watched, exclusive.
const maxSignal = 65

// signalBridge relays asynchronous signal deliveries into the loop.
//
// The relay goroutine marks per-signal pending flags then wakes the
// multiplexer, and the loop consumes the flags via drain. Subscriptions are
// only accessed by the loop goroutine.
type signalBridge struct {
	wake     func()
	ch       chan os.Signal
	stop     chan struct{}
	done     chan struct{}
	subs     map[int][]EventID
	pending  [maxSignal]atomic.Bool
	captured [maxSignal]bool
	batch    int
	running  bool
	closed   bool
}

func newSignalBridge(batch int, wake func()) *signalBridge {
	return &signalBridge{
		wake:  wake,
		ch:    make(chan os.Signal, signalChannelBufferSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		subs:  make(map[int][]EventID),
		batch: batch,
	}
}

// subscribe adds id to the subscribers of sig, capturing sig on first use.
// A captured signal stays captured until close.
func (b *signalBridge) subscribe(sig int, id EventID) error {
	if b.closed {
		return ErrContextClosed
	}
	if sig <= 0 || sig >= maxSignal {
		return ErrSignalOutOfRange
	}
	if !b.captured[sig] {
		b.captured[sig] = true
		signal.Notify(b.ch, syscall.Signal(sig))
	}
	if !b.running {
		b.running = true
		go b.relay()
	}
	b.subs[sig] = append(b.subs[sig], id)
	return nil
}

// unsubscribe removes id from the subscribers of sig.
func (b *signalBridge) unsubscribe(sig int, id EventID) {
	subs := b.subs[sig]
	for i, v := range subs {
		if v == id {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(b.subs, sig)
	} else {
		b.subs[sig] = subs
	}
}

// subscribers returns a copy of the subscribers of sig, in subscription
// order.
func (b *signalBridge) subscribers(sig int) []EventID {
	return append([]EventID(nil), b.subs[sig]...)
}

// drain consumes the pending flags, returning the signals delivered since
// the last drain, ascending.
func (b *signalBridge) drain() []int {
	var sigs []int
	for sig := 1; sig < maxSignal; sig++ {
		if b.captured[sig] && b.pending[sig].Swap(false) {
			sigs = append(sigs, sig)
		}
	}
	return sigs
}

// restore marks sigs as pending again.
func (b *signalBridge) restore(sigs []int) {
	for _, sig := range sigs {
		b.pending[sig].Store(true)
	}
}

// mark flags a delivery, returning false if the signal cannot be watched.
func (b *signalBridge) mark(s os.Signal) bool {
	sig, ok := s.(syscall.Signal)
	if !ok || sig <= 0 || int(sig) >= maxSignal {
		return false
	}
	b.pending[sig].Store(true)
	return true
}

// relay runs until close, receiving up to batch deliveries per wake.
func (b *signalBridge) relay() {
	defer close(b.done)
	for {
		var marked bool
		select {
		case <-b.stop:
			return
		case s := <-b.ch:
			marked = b.mark(s)
		}
	batch:
		for i := 1; i < b.batch; i++ {
			select {
			case s := <-b.ch:
				marked = b.mark(s) || marked
			default:
				break batch
			}
		}
		if marked {
			b.wake()
		}
	}
}

// reset removes every subscription, leaving signals captured.
func (b *signalBridge) reset() {
	clear(b.subs)
}

// close releases every captured signal, and stops the relay.
func (b *signalBridge) close() {
	if b.closed {
		return
	}
	b.closed = true
	signal.Stop(b.ch)
	close(b.stop)
	if b.running {
		<-b.done
	}
	clear(b.subs)
}
