//go:build linux

package reactor

import (
	"golang.org/x/sys/unix"
)

// poller is the epoll backend.
type poller struct {
	events []unix.EpollEvent
	epfd   int
}

func (p *poller) init(bufSize int) error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	p.epfd = epfd
	p.events = make([]unix.EpollEvent, bufSize)
	return nil
}

func (p *poller) close() error {
	return unix.Close(p.epfd)
}

// control moves the registration of fd from prev to next interest.
func (p *poller) control(fd int, prev, next Interest) error {
	switch {
	case prev == next:
		return nil
	case next == 0:
		err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
		if err == unix.ENOENT || err == unix.EBADF {
			// already closed by the caller, which also removes it from the epoll set
			return nil
		}
		return err
	case prev == 0:
		return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
			Events: interestToEpoll(next),
			Fd:     int32(fd),
		})
	default:
		return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
			Events: interestToEpoll(next),
			Fd:     int32(fd),
		})
	}
}

// wait appends readiness to out, which is returned. EINTR is reported as a
// wait with nothing ready.
func (p *poller) wait(timeoutMs int, out []fdReady) ([]fdReady, error) {
	n, err := unix.EpollWait(p.epfd, p.events, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return out, nil
		}
		return out, err
	}
	for i := 0; i < n; i++ {
		out = append(out, fdReady{
			fd:     int(p.events[i].Fd),
			events: epollToInterest(p.events[i].Events),
		})
	}
	return out, nil
}

// interestToEpoll converts Interest to epoll event flags.
func interestToEpoll(interest Interest) uint32 {
	var events uint32
	if interest&Read != 0 {
		events |= unix.EPOLLIN
	}
	if interest&Write != 0 {
		events |= unix.EPOLLOUT
	}
	return events
}

// epollToInterest converts epoll event flags to Interest.
func epollToInterest(events uint32) Interest {
	var interest Interest
	if events&(unix.EPOLLIN|unix.EPOLLRDHUP|unix.EPOLLPRI) != 0 {
		interest |= Read
	}
	if events&unix.EPOLLOUT != 0 {
		interest |= Write
	}
	if events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		interest |= ioInterest
	}
	return interest
}
