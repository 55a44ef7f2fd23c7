package maintenance

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ExpiryStore removes records whose lifetime ended before the cutoff.
type ExpiryStore interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Target names one store the sweeper keeps clean. TTL is subtracted from the
// current time to form the cutoff; zero means the store's own expiry column is
// already the deadline.
type Target struct {
	Name  string
	TTL   time.Duration
	Store ExpiryStore
}

// Sweeper periodically deletes expired records: abandoned OAuth handshakes,
// lapsed sessions. It runs a single background goroutine until Shutdown.
type Sweeper struct {
	interval time.Duration
	targets  []Target
	logger   *slog.Logger
	nowFunc  func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewSweeper starts a sweeper ticking at the provided interval.
func NewSweeper(interval time.Duration, targets []Target, logger *slog.Logger) *Sweeper {
	s := newSweeper(interval, targets, logger)
	s.start()
	return s
}

// newSweeper builds the sweeper without launching the ticker loop, so tests
// can pin the time source and drive sweeps synchronously.
func newSweeper(interval time.Duration, targets []Target, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Sweeper{
		interval: interval,
		targets:  targets,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Sweeper) start() {
	s.wg.Add(1)
	go s.run()
}

// Shutdown stops the ticker loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Shutdown(ctx context.Context) error {
	s.once.Do(s.cancel)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	now := s.now()
	for _, target := range s.targets {
		removed, err := target.Store.DeleteExpired(s.ctx, now.Add(-target.TTL))
		if err != nil {
			s.logger.Warn("sweep failed", "target", target.Name, "error", err)
			continue
		}
		if removed > 0 {
			s.logger.Info("swept expired records", "target", target.Name, "removed", removed)
		}
	}
}

func (s *Sweeper) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now().UTC()
}
