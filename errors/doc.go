// Package errors provides standardized error handling patterns for Signal Bus components.
//
// # Overview
//
// The errors package implements a three-class error classification system for the
// telemetry pipeline: Transient (temporary, retryable by an orchestrator), Invalid
// (bad input, non-retryable), and Fatal (unrecoverable, stop processing).
//
// This classification lets components make informed decisions about surfacing,
// degradation, and shutdown without hardcoded error string matching. The core
// itself never retries; transient classification exists so calling orchestrators
// can.
//
// # Error Classification
//
// Errors are classified based on their type or content:
//
//   - Transient: Network timeouts, connection loss, rate limiting (safe to retry upstream)
//   - Invalid: Schema violations, malformed JSON, out-of-order samples, misuse of a call
//   - Fatal: Unusable configuration, corrupted state (stop processing)
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if _, ok := schemas[kind]; !ok {
//	    return errors.ErrUnknownKind
//	}
//
// Wrap errors with context for debugging:
//
//	if err := journal.Append(entry); err != nil {
//	    return errors.Wrap(err, "Journal", "Append", "write entry")
//	}
//
// Check classification at a boundary:
//
//	if err := router.Dispatch(ctx, kind, payload, bctx); err != nil {
//	    if errors.IsInvalid(err) {
//	        // reject the message, keep the connection open
//	    } else if errors.IsFatal(err) {
//	        // escalate to operator
//	    }
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// This format enables consistent log parsing and operational monitoring across
// the Signal Bus. Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Component", "Method", "action")  // For retryable errors
//	errors.WrapInvalid(err, "Component", "Method", "action")    // For validation errors
//	errors.WrapFatal(err, "Component", "Method", "action")      // For unrecoverable errors
//
// The generic Wrap() function applies the same format without asserting a class.
//
// # Standard Error Variables
//
// Pre-defined error variables cover the common conditions, organized by category:
//
//   - Component lifecycle: ErrAlreadyStarted, ErrNotStarted, ErrAlreadyStopped, ErrShuttingDown
//   - Connection issues: ErrNoConnection, ErrConnectionLost, ErrConnectionTimeout, ErrPublishFailed
//   - Envelope and telemetry: ErrInvalidData, ErrParsingFailed, ErrUnknownKind, ErrOutOfOrder, ErrDuplicateSink
//   - Configuration: ErrInvalidConfig, ErrMissingConfig
//   - Resource constraints: ErrRateLimited
//
// Use these variables instead of ad-hoc error messages so call sites can branch
// with errors.Is:
//
//	if errors.Is(err, errors.ErrOutOfOrder) {
//	    // a producer replayed stale samples
//	}
package errors
