package device

import "context"

// opQueueSize bounds pending work per device
const opQueueSize = 64

// Session runs one Controller on its own goroutine. Inbound packets,
// transport failures and host commands are all queued and applied in order,
// so controller state is only touched from Run. Session is the transport
// Link for its controller.
type Session struct {
	ctrl *Controller
	ops  chan func()
	done chan struct{}
}

// NewSession wraps ctrl. Nothing runs until Run is called.
func NewSession(ctrl *Controller) *Session {
	return &Session{
		ctrl: ctrl,
		ops:  make(chan func(), opQueueSize),
		done: make(chan struct{}),
	}
}

// Address returns the device address
func (s *Session) Address() string {
	return s.ctrl.Address()
}

// Run applies queued operations until ctx ends, then disconnects the
// device
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	defer func() {
		if err := s.ctrl.Disconnect(); err != nil {
			s.ctrl.log.Warn().Err(err).Msg("disconnect on shutdown failed")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case op := <-s.ops:
			op()
		}
	}
}

// Done is closed once Run has returned
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) enqueue(ctx context.Context, op func()) error {
	select {
	case s.ops <- op:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the session goroutine and returns its error
func (s *Session) Do(ctx context.Context, fn func(c *Controller) error) error {
	result := make(chan error, 1)
	if err := s.enqueue(ctx, func() { result <- fn(s.ctrl) }); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-s.done:
		// Run may have applied the op just before exiting
		select {
		case err := <-result:
			return err
		default:
			return ErrSessionClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connect connects the device with the session as its link
func (s *Session) Connect(ctx context.Context) error {
	return s.Do(ctx, func(c *Controller) error {
		return c.Connect(ctx, s)
	})
}

// Status returns the controller status
func (s *Session) Status(ctx context.Context) (Status, error) {
	var st Status
	err := s.Do(ctx, func(c *Controller) error {
		st = c.Status()
		return nil
	})
	return st, err
}

// Receive queues a packet read by the transport
func (s *Session) Receive(packet []byte) {
	_ = s.enqueue(context.Background(), func() { s.ctrl.Receive(packet) })
}

// Fail queues a transport failure
func (s *Session) Fail(err error) {
	_ = s.enqueue(context.Background(), func() { s.ctrl.HandleFailure(err) })
}
