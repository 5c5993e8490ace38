//go:build !linux && !darwin

package reactor

// poller is unavailable on this platform.
type poller struct{}

func (p *poller) init(int) error { return ErrUnsupportedPlatform }

func (p *poller) close() error { return ErrUnsupportedPlatform }

func (p *poller) control(int, Interest, Interest) error { return ErrUnsupportedPlatform }

func (p *poller) wait(_ int, out []fdReady) ([]fdReady, error) { return out, ErrUnsupportedPlatform }

func createWakeFd() (int, int, error) { return -1, -1, ErrUnsupportedPlatform }

func writeWakeFd(int) error { return ErrUnsupportedPlatform }

func drainWakeFd(int, []byte) {}

func closeWakeFd(int, int) {}
