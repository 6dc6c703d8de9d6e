package errors

// Category groups error codes by subsystem.
type Category string

const (
	CategoryConfig     Category = "Config"
	CategoryStore      Category = "Store"
	CategoryIndex      Category = "Index"
	CategoryOracle     Category = "Oracle"
	CategoryValidation Category = "Validation"
	CategoryInternal   Category = "Internal"
)

// Severity indicates how callers should treat an error.
type Severity string

const (
	// SeverityDegraded marks a capability loss: the affected signal degrades
	// to a neutral contribution and the request continues.
	SeverityDegraded Severity = "degraded"

	// SeverityError marks a request-level failure (bad input, rebuild with
	// an unreachable store).
	SeverityError Severity = "error"

	// SeverityFatal marks failures that prevent the process from serving.
	SeverityFatal Severity = "fatal"
)

// Error codes for the retrieval engine.
const (
	// ErrCodeStoreUnconfigured: no corpus store configured. The engine
	// serves empty results rather than crashing.
	ErrCodeStoreUnconfigured = "ERR_STORE_UNCONFIGURED"

	// ErrCodeStoreUnreachable: rebuild triggered against a wholly
	// unreachable store. The only store failure that propagates as a
	// user-visible error.
	ErrCodeStoreUnreachable = "ERR_STORE_UNREACHABLE"

	// ErrCodeStoreTransient: a single query's synonym or span lookup
	// failed. Treated as "no expansion" / "no evidence", never aborts the
	// query.
	ErrCodeStoreTransient = "ERR_STORE_TRANSIENT"

	// ErrCodeIndexEmpty: no chunks indexed. Search and compare serve empty
	// result sets instead; the code marks the condition for health checks.
	ErrCodeIndexEmpty = "ERR_INDEX_EMPTY"

	// ErrCodeOracleUnavailable: the external relevance oracle is
	// unavailable; rerank is skipped for the request.
	ErrCodeOracleUnavailable = "ERR_ORACLE_UNAVAILABLE"

	// ErrCodeInvalidInput: malformed request body or parameters.
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"

	ErrCodeInternal = "ERR_INTERNAL"
)

func categoryFromCode(code string) Category {
	switch code {
	case ErrCodeStoreUnconfigured:
		return CategoryConfig
	case ErrCodeStoreUnreachable, ErrCodeStoreTransient:
		return CategoryStore
	case ErrCodeIndexEmpty:
		return CategoryIndex
	case ErrCodeOracleUnavailable:
		return CategoryOracle
	case ErrCodeInvalidInput:
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeStoreTransient, ErrCodeOracleUnavailable,
		ErrCodeIndexEmpty, ErrCodeStoreUnconfigured:
		return SeverityDegraded
	default:
		return SeverityError
	}
}

func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeStoreTransient, ErrCodeOracleUnavailable, ErrCodeStoreUnreachable:
		return true
	}
	return false
}
