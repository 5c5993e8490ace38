package reactor

import (
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// signalRaceRates limits logging of signals delivered with no subscriber,
// per signal.
var signalRaceRates = map[time.Duration]int{
	time.Second: 1,
	time.Minute: 10,
}

// contextLogger wraps the optional logger of a Context. All methods are
// safe to call with a nil logger.
type contextLogger struct {
	logger  *logiface.Logger[logiface.Event]
	limiter *catrate.Limiter
	id      uint64
}

func newContextLogger(logger *logiface.Logger[logiface.Event], id uint64) *contextLogger {
	return &contextLogger{
		logger:  logger,
		limiter: catrate.NewLimiter(signalRaceRates),
		id:      id,
	}
}

func (l *contextLogger) dispatchStarted(armed int) {
	l.logger.Debug().
		Uint64(`context`, l.id).
		Int(`armed`, armed).
		Log(`dispatch started`)
}

func (l *contextLogger) dispatchStopped(reason StopReason, err error) {
	b := l.logger.Debug()
	if !b.Enabled() {
		return
	}
	b = b.Uint64(`context`, l.id).
		Stringer(`reason`, reason)
	if err != nil {
		b = b.Err(err)
	}
	b.Log(`dispatch stopped`)
}

func (l *contextLogger) callbackFailed(failure *CallbackFailure) {
	l.logger.Err().
		Uint64(`context`, l.id).
		Uint64(`event`, uint64(failure.ID)).
		Stringer(`trigger`, failure.Trigger).
		Err(failure.Err).
		Log(`callback failed`)
}

func (l *contextLogger) multiplexerFailed(err error) {
	l.logger.Crit().
		Uint64(`context`, l.id).
		Err(err).
		Log(`multiplexer failed`)
}

func (l *contextLogger) unwatchFailed(ev *Event, err error) {
	l.logger.Warning().
		Uint64(`context`, l.id).
		Uint64(`event`, uint64(ev.id)).
		Int(`fd`, ev.fd).
		Err(err).
		Log(`failed to unwatch descriptor`)
}

// signalRace logs a signal that was delivered with no armed subscriber.
func (l *contextLogger) signalRace(sig int) {
	b := l.logger.Debug()
	if !b.Enabled() {
		return
	}
	if _, ok := l.limiter.Allow(sig); !ok {
		b.Release()
		return
	}
	b.Uint64(`context`, l.id).
		Int(`signal`, sig).
		Log(`signal delivered with no subscriber`)
}
