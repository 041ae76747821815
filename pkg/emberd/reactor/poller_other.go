//go:build !linux && !darwin

package reactor

import "errors"

// No readiness primitive is implemented for this platform; the reactor
// mandates one and refuses to fall back to a blocking, goroutine-per-
// connection model, so NewLoop fails here instead of degrading.
func newPoller() (Poller, error) {
	return nil, errors.New("reactor: no epoll/kqueue poller available on this platform")
}
