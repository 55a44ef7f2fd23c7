package httpserver

import (
	"context"
	"errors"
	"time"
)

// ShutdownTimeout bounds how long a full graceful shutdown may take.
var ShutdownTimeout = 10 * time.Second

// Drain runs shutdown steps in order under a single deadline derived from
// ShutdownTimeout. Later steps still run when an earlier one fails; the
// returned error joins every failure.
func Drain(parent context.Context, steps ...func(context.Context) error) error {
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithTimeout(parent, ShutdownTimeout)
	defer cancel()

	var errs []error
	for _, step := range steps {
		if step == nil {
			continue
		}
		if err := step(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
