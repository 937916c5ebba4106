package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	auditRunStartedMessageConstant      = "audit run started"
	auditRunCompletedMessageConstant    = "audit run completed"
	backendAuditStartedMessageConstant  = "backend audit started"
	backendAuditFinishedMessageConstant = "backend audit finished"
	backendAuditPanickedMessageConstant = "backend audit panicked"
	logFieldRunIdentifierConstant       = "run_id"
	logFieldBackendCountConstant        = "backend_count"
	logFieldBackendNameConstant         = "backend"
	logFieldBackendIndexConstant        = "backend_index"
	logFieldOutcomeKindConstant         = "outcome"
	logFieldFlaggedCountConstant        = "flagged_accounts"
	logFieldDurationConstant            = "duration"
	logFieldAlarmingConstant            = "alarming"
	logFieldRecoveredConstant           = "recovered"
	unnamedBackendNameConstant          = "unknown"
)

// Orchestrator runs backend audits concurrently and collects their outcomes.
type Orchestrator struct {
	logger *zap.Logger
	clock  func() time.Time
}

// NewOrchestrator constructs an Orchestrator that reports progress through the provided logger.
func NewOrchestrator(logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{logger: logger, clock: time.Now}
}

// Run audits every backend on its own goroutine and returns one Outcome per
// backend. The i-th outcome always belongs to the i-th backend regardless of
// completion order. A panicking backend yields a Failure outcome.
func (orchestrator *Orchestrator) Run(executionContext context.Context, backends []Backend) []Outcome {
	if executionContext == nil {
		executionContext = context.Background()
	}

	runLogger := orchestrator.logger.With(zap.String(logFieldRunIdentifierConstant, uuid.NewString()))
	runLogger.Debug(auditRunStartedMessageConstant, zap.Int(logFieldBackendCountConstant, len(backends)))

	outcomes := make([]Outcome, len(backends))
	var workerGroup errgroup.Group

	for backendIndex := range backends {
		slotIndex := backendIndex
		backend := backends[slotIndex]
		workerGroup.Go(func() error {
			outcomes[slotIndex] = orchestrator.supervise(executionContext, runLogger, slotIndex, backend)
			return nil
		})
	}

	_ = workerGroup.Wait()

	runLogger.Debug(auditRunCompletedMessageConstant,
		zap.Int(logFieldBackendCountConstant, len(outcomes)),
		zap.Bool(logFieldAlarmingConstant, Alarming(outcomes)),
	)

	return outcomes
}

func (orchestrator *Orchestrator) supervise(executionContext context.Context, runLogger *zap.Logger, backendIndex int, backend Backend) (outcome Outcome) {
	backendName := resolveBackendName(backend)
	backendLogger := runLogger.With(
		zap.String(logFieldBackendNameConstant, backendName),
		zap.Int(logFieldBackendIndexConstant, backendIndex),
	)
	startedAt := orchestrator.clock()

	defer func() {
		if recovered := recover(); recovered != nil {
			backendLogger.Error(backendAuditPanickedMessageConstant, zap.Any(logFieldRecoveredConstant, recovered))
			outcome = FailureFromError(backendName, InternalFaultError{Recovered: recovered})
		}
		backendLogger.Debug(backendAuditFinishedMessageConstant,
			zap.String(logFieldOutcomeKindConstant, string(outcome.Kind())),
			zap.Int(logFieldFlaggedCountConstant, len(outcome.accounts)),
			zap.Duration(logFieldDurationConstant, orchestrator.clock().Sub(startedAt)),
		)
	}()

	backendLogger.Debug(backendAuditStartedMessageConstant)

	if backend == nil {
		return FailureFromError(backendName, errNilBackend)
	}

	outcome = backend.Audit(executionContext)
	if len(outcome.kind) == 0 {
		return FailureFromError(backendName, errEmptyOutcome)
	}
	outcome.backendName = backendName
	return outcome
}

// Alarming reports whether any backend failed or flagged at least one account.
func Alarming(outcomes []Outcome) bool {
	for _, outcome := range outcomes {
		if outcome.IsFailure() || outcome.HasFindings() {
			return true
		}
	}
	return false
}

func resolveBackendName(backend Backend) (backendName string) {
	defer func() {
		if recover() != nil {
			backendName = unnamedBackendNameConstant
		}
	}()
	if backend == nil {
		return unnamedBackendNameConstant
	}
	return backend.Name()
}
