//go:build darwin

package reactor

import (
	"time"

	"golang.org/x/sys/unix"
)

// poller is the kqueue backend.
type poller struct {
	events []unix.Kevent_t
	kq     int
}

func (p *poller) init(bufSize int) error {
	kq, err := unix.Kqueue()
	if err != nil {
		return err
	}
	unix.CloseOnExec(kq)
	p.kq = kq
	p.events = make([]unix.Kevent_t, bufSize)
	return nil
}

func (p *poller) close() error {
	return unix.Close(p.kq)
}

// control moves the registration of fd from prev to next interest, deleting
// the filters that are no longer wanted, and adding the new ones.
func (p *poller) control(fd int, prev, next Interest) error {
	if removed := prev &^ next; removed != 0 {
		if kevents := interestToKevents(fd, removed, unix.EV_DELETE); len(kevents) > 0 {
			_, _ = unix.Kevent(p.kq, kevents, nil, nil) // Ignore errors, fd may already be closed
		}
	}
	if added := next &^ prev; added != 0 {
		if kevents := interestToKevents(fd, added, unix.EV_ADD|unix.EV_ENABLE); len(kevents) > 0 {
			if _, err := unix.Kevent(p.kq, kevents, nil, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// wait appends readiness to out, which is returned. EINTR is reported as a
// wait with nothing ready.
func (p *poller) wait(timeoutMs int, out []fdReady) ([]fdReady, error) {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		v := unix.NsecToTimespec(int64(timeoutMs) * int64(time.Millisecond))
		ts = &v
	}

	n, err := unix.Kevent(p.kq, nil, p.events, ts)
	if err != nil {
		if err == unix.EINTR {
			return out, nil
		}
		return out, err
	}
	for i := 0; i < n; i++ {
		out = append(out, fdReady{
			fd:     int(p.events[i].Ident),
			events: keventToInterest(&p.events[i]),
		})
	}
	return out, nil
}

// interestToKevents converts Interest to kevent changes.
func interestToKevents(fd int, interest Interest, flags uint16) []unix.Kevent_t {
	var kevents []unix.Kevent_t
	if interest&Read != 0 {
		kevents = append(kevents, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_READ,
			Flags:  flags,
		})
	}
	if interest&Write != 0 {
		kevents = append(kevents, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_WRITE,
			Flags:  flags,
		})
	}
	return kevents
}

// keventToInterest converts a kqueue event to Interest.
func keventToInterest(kev *unix.Kevent_t) Interest {
	if kev.Flags&unix.EV_ERROR != 0 {
		return ioInterest
	}
	var interest Interest
	switch kev.Filter {
	case unix.EVFILT_READ:
		interest |= Read
	case unix.EVFILT_WRITE:
		interest |= Write
	}
	return interest
}
