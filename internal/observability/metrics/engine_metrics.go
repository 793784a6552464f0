package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	engineErrorTypeDeadlineExceeded = "deadline_exceeded"
	engineErrorTypeBusinessRule     = "business_rule"
	engineErrorTypeDB               = "db"
)

const (
	EngineErrorTypeDeadlineExceeded = engineErrorTypeDeadlineExceeded
	EngineErrorTypeBusinessRule     = engineErrorTypeBusinessRule
	EngineErrorTypeDB               = engineErrorTypeDB
	EngineErrorTypeUnknown          = "unknown"
)

const (
	OutputJobReasonDeadlineExceeded     = "deadline_exceeded"
	OutputJobReasonDBLockTimeout        = "db_lock_timeout"
	OutputJobReasonSerializationFailure = "serialization_failure"
	OutputJobReasonUniqueViolation      = "unique_violation"
	OutputJobReasonRenderFailed         = "render_failed"
	OutputJobReasonUnknown              = "unknown"
)

const (
	OutputStageRenderHTML = "render_html"
	OutputStageRenderPDF  = "render_pdf"
	OutputStageStore      = "store"
)

const (
	LockResourceDocumentByID = "accounts_document_by_id"
)

// EngineMetrics captures accounts production pipeline health signals.
type EngineMetrics struct {
	outputJobs         *prometheus.CounterVec
	outputJobDuration  *prometheus.HistogramVec
	outputJobErrors    *prometheus.CounterVec
	statusTransitions  *prometheus.CounterVec
	validationFindings *prometheus.CounterVec
	snapshotsPruned    prometheus.Counter
	dbLockWait         *prometheus.HistogramVec
	transitionCounts   map[string]map[string]prometheus.Counter
	lockWaitObserver   map[string]prometheus.Observer
}

var (
	engineMetricsOnce sync.Once
	engineMetrics     *EngineMetrics
)

// Engine returns the singleton engine metrics registry.
func Engine() *EngineMetrics {
	return EngineWithConfig(Config{})
}

// EngineWithConfig returns the singleton engine metrics registry using config labels.
func EngineWithConfig(cfg Config) *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineMetrics = newEngineMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return engineMetrics
}

// ResetEngineMetricsForTest resets the engine metrics singleton for tests.
func ResetEngineMetricsForTest() {
	engineMetricsOnce = sync.Once{}
	engineMetrics = nil
}

func newEngineMetrics(registerer prometheus.Registerer, cfg Config) *EngineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "praxis"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	outputJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "praxis_output_jobs_total",
		Help:        "Output generation jobs by pipeline stage.",
		ConstLabels: constLabels,
	}, []string{"stage"})
	outputJobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "praxis_output_job_duration_seconds",
		Help:        "Output generation latency per pipeline stage.",
		Buckets:     []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		ConstLabels: constLabels,
	}, []string{"stage"})
	outputJobErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "praxis_output_job_errors_total",
		Help:        "Output generation errors by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"stage", "reason"})
	statusTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "praxis_document_status_transitions_total",
		Help:        "Accounts document lifecycle transitions.",
		ConstLabels: constLabels,
	}, []string{"from", "to"})
	validationFindings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "praxis_validation_findings_total",
		Help:        "Validation findings recorded on section updates by severity.",
		ConstLabels: constLabels,
	}, []string{"severity"})
	snapshotsPruned := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "praxis_snapshots_pruned_total",
		Help:        "History snapshots removed by retention pruning.",
		ConstLabels: constLabels,
	})
	dbLockWait := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "praxis_db_lock_wait_seconds",
		Help:        "DB lock wait time for SELECT FOR UPDATE on documents.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		ConstLabels: constLabels,
	}, []string{"resource"})

	registerer.MustRegister(
		outputJobs,
		outputJobDuration,
		outputJobErrors,
		statusTransitions,
		validationFindings,
		snapshotsPruned,
		dbLockWait,
	)

	// Prebuilt counters for the legal lifecycle edges. Anything else falls
	// back to WithLabelValues.
	transitionCounts := map[string]map[string]prometheus.Counter{
		"DRAFT": {
			"IN_REVIEW": statusTransitions.WithLabelValues("DRAFT", "IN_REVIEW"),
			"READY":     statusTransitions.WithLabelValues("DRAFT", "READY"),
		},
		"IN_REVIEW": {
			"READY": statusTransitions.WithLabelValues("IN_REVIEW", "READY"),
		},
		"READY": {
			"LOCKED": statusTransitions.WithLabelValues("READY", "LOCKED"),
		},
		"LOCKED": {
			"READY": statusTransitions.WithLabelValues("LOCKED", "READY"),
		},
	}

	lockWaitObserver := map[string]prometheus.Observer{
		LockResourceDocumentByID: dbLockWait.WithLabelValues(LockResourceDocumentByID),
	}

	return &EngineMetrics{
		outputJobs:         outputJobs,
		outputJobDuration:  outputJobDuration,
		outputJobErrors:    outputJobErrors,
		statusTransitions:  statusTransitions,
		validationFindings: validationFindings,
		snapshotsPruned:    snapshotsPruned,
		dbLockWait:         dbLockWait,
		transitionCounts:   transitionCounts,
		lockWaitObserver:   lockWaitObserver,
	}
}

// IncOutputJob increments the run counter for an output pipeline stage.
func (m *EngineMetrics) IncOutputJob(stage string) {
	if m == nil || m.outputJobs == nil {
		return
	}
	m.outputJobs.WithLabelValues(stage).Inc()
}

// ObserveOutputJobDuration records output stage latency in seconds.
func (m *EngineMetrics) ObserveOutputJobDuration(stage string, duration time.Duration) {
	if m == nil || m.outputJobDuration == nil {
		return
	}
	m.outputJobDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// IncOutputJobError increments the output stage error counter with classification.
func (m *EngineMetrics) IncOutputJobError(stage string, err error) {
	if m == nil || err == nil || m.outputJobErrors == nil {
		return
	}
	m.outputJobErrors.WithLabelValues(stage, ClassifyOutputJobReason(err)).Inc()
}

// IncStatusTransition increments document status transition counters.
func (m *EngineMetrics) IncStatusTransition(from, to string) {
	if m == nil {
		return
	}
	if toCounters, ok := m.transitionCounts[from]; ok {
		if counter, ok := toCounters[to]; ok {
			counter.Inc()
			return
		}
	}
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

// AddValidationFindings records validation error and warning counts.
func (m *EngineMetrics) AddValidationFindings(errorCount, warningCount int) {
	if m == nil || m.validationFindings == nil {
		return
	}
	if errorCount > 0 {
		m.validationFindings.WithLabelValues("error").Add(float64(errorCount))
	}
	if warningCount > 0 {
		m.validationFindings.WithLabelValues("warning").Add(float64(warningCount))
	}
}

// AddSnapshotsPruned records removed history snapshots.
func (m *EngineMetrics) AddSnapshotsPruned(count int64) {
	if m == nil || m.snapshotsPruned == nil || count <= 0 {
		return
	}
	m.snapshotsPruned.Add(float64(count))
}

// ObserveDBLockWait records lock wait time for SELECT FOR UPDATE work.
func (m *EngineMetrics) ObserveDBLockWait(resource string, duration time.Duration) {
	if m == nil {
		return
	}
	if observer, ok := m.lockWaitObserver[resource]; ok {
		observer.Observe(duration.Seconds())
		return
	}
	m.dbLockWait.WithLabelValues(resource).Observe(duration.Seconds())
}

// ClassifyEngineErrorType returns a low-cardinality error type for logging.
func ClassifyEngineErrorType(err error) string {
	if err == nil {
		return EngineErrorTypeUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return EngineErrorTypeDeadlineExceeded
	}
	if isDBError(err) {
		return EngineErrorTypeDB
	}
	return EngineErrorTypeBusinessRule
}

// IsEngineErrorRetryable reports whether the error should be retried.
func IsEngineErrorRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	return isDBError(err)
}

// ClassifyOutputJobReason maps output pipeline errors to low-cardinality reasons.
// Errors may pre-classify themselves by implementing OutputJobReason() string;
// context expiry still wins so timeouts are never misfiled.
func ClassifyOutputJobReason(err error) string {
	if err == nil {
		return OutputJobReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return OutputJobReasonDeadlineExceeded
	}
	var reasoner interface{ OutputJobReason() string }
	if errors.As(err, &reasoner) {
		return reasoner.OutputJobReason()
	}
	if isDBLockTimeout(err) {
		return OutputJobReasonDBLockTimeout
	}
	if isSerializationFailure(err) {
		return OutputJobReasonSerializationFailure
	}
	if isUniqueViolation(err) {
		return OutputJobReasonUniqueViolation
	}
	return OutputJobReasonUnknown
}

func isDBLockTimeout(err error) bool {
	return hasPGCode(err, "55P03")
}

func isSerializationFailure(err error) bool {
	return hasPGCode(err, "40001")
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return hasPGCode(err, "23505")
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

func isDBError(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	if errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, gorm.ErrInvalidTransaction) ||
		errors.Is(err, gorm.ErrInvalidField) ||
		errors.Is(err, gorm.ErrInvalidData) ||
		errors.Is(err, gorm.ErrMissingWhereClause) ||
		errors.Is(err, gorm.ErrUnsupportedDriver) ||
		errors.Is(err, gorm.ErrRegistered) ||
		errors.Is(err, gorm.ErrInvalidValue) ||
		errors.Is(err, gorm.ErrNotImplemented) ||
		errors.Is(err, gorm.ErrDryRunModeUnsupported) ||
		errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}
