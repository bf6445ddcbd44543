package service

import (
	"mentorhub_backend/pkg/logger"
	"mentorhub_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// sagaStep is one stage of a multi-entity operation. compensate undoes a
// completed run and must be idempotent (it may fire again after a retry).
type sagaStep struct {
	name       string
	run        func() error
	compensate func() error
}

// saga executes steps in order and, on failure, compensates the completed
// ones in reverse. A compensation that itself fails leaves a held resource
// with no matching charge; that is surfaced loudly (error log + counter)
// for manual reconciliation, never swallowed.
type saga struct {
	name  string
	steps []sagaStep
}

func (s *saga) execute() error {
	for i, step := range s.steps {
		if err := step.run(); err != nil {
			s.rollback(i - 1, err)
			return err
		}
	}
	return nil
}

func (s *saga) rollback(from int, cause error) {
	for i := from; i >= 0; i-- {
		step := s.steps[i]
		if step.compensate == nil {
			continue
		}
		if err := step.compensate(); err != nil {
			monitoring.CompensationFailures.Inc()
			logger.Log.Error("saga compensation failed, manual reconciliation required",
				zap.String("saga", s.name),
				zap.String("step", step.name),
				zap.NamedError("cause", cause),
				zap.Error(err),
			)
		}
	}
}
