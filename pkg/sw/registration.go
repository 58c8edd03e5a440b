package sw

import (
	"context"
	"net/http"
	"sync"

	"github.com/Sternrassler/northwest-bus-cache/pkg/network"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Registration is the host side of the lifecycle. It installs new
// controllers, keeps at most one waiting, and promotes the waiting one once
// the active controller has no clients or skip-waiting was requested.
type Registration struct {
	network network.Fetcher
	logger  zerolog.Logger

	// jobs serializes install and activate steps across controllers.
	jobs sync.Mutex

	mu         sync.Mutex
	active     *Controller
	waiting    *Controller
	activating *Controller
	clients    int
}

// NewRegistration creates an empty registration. Requests arriving before
// any controller is active go straight to fetcher.
func NewRegistration(fetcher network.Fetcher) *Registration {
	return &Registration{
		network: fetcher,
		logger:  log.With().Str("component", "registration").Logger(),
	}
}

// Register installs c. If install fails the current active controller keeps
// serving and the error is returned. On success c becomes the waiting
// controller (replacing any previous one) and is activated as soon as the
// handshake allows.
func (r *Registration) Register(ctx context.Context, c *Controller) error {
	r.jobs.Lock()
	err := c.OnInstall(ctx)
	if err == nil {
		r.mu.Lock()
		if r.waiting != nil && r.waiting != c {
			r.waiting.retire()
		}
		r.waiting = c
		r.mu.Unlock()
	}
	r.jobs.Unlock()

	if err != nil {
		r.logger.Error().
			Err(err).
			Str("cache_name", c.CacheName()).
			Msg("Registration failed, keeping current controller")
		return err
	}

	r.logger.Info().Str("cache_name", c.CacheName()).Msg("Controller installed and waiting")
	return r.promote(ctx)
}

// canPromote reports whether the waiting controller may activate now.
func (r *Registration) canPromote() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.waiting == nil {
		return false
	}
	return r.active == nil || r.clients == 0 || r.waiting.SkipWaitingRequested()
}

// promote activates the waiting controller while the handshake allows it.
// If another install or activation holds the job lock, that job re-checks
// when it finishes.
func (r *Registration) promote(ctx context.Context) error {
	for r.canPromote() {
		if !r.jobs.TryLock() {
			return nil
		}
		err := r.activateWaiting(ctx)
		r.jobs.Unlock()
		if err != nil {
			return err
		}
	}

	if w := r.Waiting(); w != nil {
		r.logger.Debug().
			Str("cache_name", w.CacheName()).
			Int("clients", r.Clients()).
			Msg("Waiting for clients to release")
	}
	return nil
}

// activateWaiting must be called with r.jobs held.
func (r *Registration) activateWaiting(ctx context.Context) error {
	r.mu.Lock()
	next := r.waiting
	if next == nil || (r.active != nil && r.clients > 0 && !next.SkipWaitingRequested()) {
		r.mu.Unlock()
		return nil
	}
	r.waiting = nil
	r.activating = next
	r.mu.Unlock()

	err := next.OnActivate(ctx)

	r.mu.Lock()
	old := r.active
	r.active = next
	r.activating = nil
	r.mu.Unlock()

	if old != nil {
		old.retire()
	}
	if err != nil {
		return err
	}

	r.logger.Info().Str("cache_name", next.CacheName()).Msg("Controller active")
	return nil
}

// Fetch dispatches req to the active controller, or to the network when
// none is active.
func (r *Registration) Fetch(req *http.Request) (*http.Response, error) {
	r.mu.Lock()
	active := r.active
	r.mu.Unlock()

	if active == nil {
		return r.network.Fetch(req)
	}
	return active.OnFetch(req)
}

// PostMessage delivers msg to the waiting controller, or to the active one
// when nothing is waiting. A SKIP_WAITING accepted by the waiting controller
// activates it immediately. It reports whether the message was recognised.
func (r *Registration) PostMessage(ctx context.Context, msg Message) (bool, error) {
	r.mu.Lock()
	target := r.waiting
	if target == nil {
		target = r.active
	}
	r.mu.Unlock()

	if target == nil {
		return false, ErrNoController
	}

	handled := target.OnMessage(msg)
	if !handled {
		return false, nil
	}
	return true, r.promote(ctx)
}

// Client is a page holding the active controller. Releasing the last client
// lets a waiting controller activate.
type Client struct {
	r    *Registration
	once sync.Once
}

// Acquire registers a client of the active controller.
func (r *Registration) Acquire() *Client {
	r.mu.Lock()
	r.clients++
	r.mu.Unlock()
	return &Client{r: r}
}

// Release ends the client. Calling it more than once has no further effect.
func (c *Client) Release(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		c.r.mu.Lock()
		c.r.clients--
		c.r.mu.Unlock()
		err = c.r.promote(ctx)
	})
	return err
}

// Active returns the active controller, or nil.
func (r *Registration) Active() *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Waiting returns the installed controller waiting to activate, or nil.
func (r *Registration) Waiting() *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waiting
}

// Clients returns the number of unreleased clients.
func (r *Registration) Clients() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clients
}

// ControllerStatus describes one controller.
type ControllerStatus struct {
	CacheName string `json:"cache_name"`
	State     State  `json:"state"`
}

// Status is a snapshot of the registration.
type Status struct {
	Active     *ControllerStatus `json:"active,omitempty"`
	Waiting    *ControllerStatus `json:"waiting,omitempty"`
	Activating *ControllerStatus `json:"activating,omitempty"`
	Clients    int               `json:"clients"`
}

// Status returns a snapshot for diagnostics.
func (r *Registration) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Status{
		Active:     controllerStatus(r.active),
		Waiting:    controllerStatus(r.waiting),
		Activating: controllerStatus(r.activating),
		Clients:    r.clients,
	}
}

func controllerStatus(c *Controller) *ControllerStatus {
	if c == nil {
		return nil
	}
	return &ControllerStatus{CacheName: c.CacheName(), State: c.State()}
}
