package creator

import (
	"context"
	"errors"
	"time"

	"github.com/soyeahso/agentconsole/internal/logging"
)

// compensationTimeout bounds each undo call.
const compensationTimeout = 30 * time.Second

// sagaStep is one remote action and, optionally, the call that undoes it.
type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

type saga struct {
	steps      []sagaStep
	compensate bool
	log        *logging.Logger
}

// run executes the steps strictly in order. When a step fails, the
// compensations of the steps already done run in reverse on a context that
// outlives ctx, so a cancelled submission still cleans up. A failed
// compensation turns the result into a *CleanupError. A ctx cancelled by the
// time the last step returns is treated as a failure too.
func (s *saga) run(ctx context.Context) error {
	done := make([]sagaStep, 0, len(s.steps))
	for _, step := range s.steps {
		err := ctx.Err()
		if err == nil {
			err = step.run(ctx)
		}
		if err != nil {
			s.log.Warn().Err(err).Str("step", step.name).Msg("creation step failed")
			if cerr := s.unwind(ctx, done); cerr != nil {
				return &CleanupError{Cause: err, Cleanup: cerr}
			}
			return err
		}
		done = append(done, step)
	}

	// A cancellation that lands during the last call is not a success.
	if err := ctx.Err(); err != nil {
		s.log.Warn().Err(err).Msg("creation cancelled after the last step")
		if cerr := s.unwind(ctx, done); cerr != nil {
			return &CleanupError{Cause: err, Cleanup: cerr}
		}
		return err
	}
	return nil
}

func (s *saga) unwind(ctx context.Context, done []sagaStep) error {
	if !s.compensate {
		return nil
	}
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.compensate == nil {
			continue
		}
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
		err := step.compensate(cctx)
		cancel()
		if err != nil {
			s.log.Error().Err(err).Str("step", step.name).Msg("compensation failed")
			errs = append(errs, err)
			continue
		}
		s.log.Info().Str("step", step.name).Msg("compensated")
	}
	return errors.Join(errs...)
}
