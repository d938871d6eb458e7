// Package trace provides the compiler's internal tracing subsystem (IInternalTrace).
//
// It tracks stage boundaries within the method-compiler pipeline and per-method
// per-stage textual dumps, so a host tool can diagnose a slow or hung build.
//
// # Usage
//
// Enable tracing with the trace_level and trace_output keys of the options
// file passed to `mosa compile --config` (an empty or "-" output means
// stderr):
//
//	trace_level = "phase"
//	trace_output = "trace.ndjson"
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - Nop: Zero-overhead no-op tracer when disabled
//   - StreamTracer: Immediate write to output (file/stderr)
//   - RingTracer: Circular buffer for crash dumps
//   - MultiTracer: Combines multiple tracers
//
// # Levels
//
// Tracing verbosity is controlled by levels:
//
//   - LevelOff: No tracing
//   - LevelError: No span or point events; only heartbeats are emitted
//   - LevelPhase: Driver and stage boundaries
//   - LevelDetail: Per-method events
//   - LevelDebug: Everything including per-instruction-node events
//
// # Scopes
//
// Events are categorized by scope:
//
//   - ScopeDriver: Top-level compiler invocation (queue, barrier, final link)
//   - ScopePass: Stage-pipeline boundaries (CIL decode, SSA, lowering, emission, ...)
//   - ScopeModule: Per-method compilation
//   - ScopeNode: Per-instruction-node events (future)
//
// # Context Propagation
//
// compiler.Pipeline carries its Tracer in a field and opens one span per
// stage. WithTracer and FromContext let a caller carry a Tracer through a
// context.Context instead:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "ssa-construct", parentID)
//	defer span.End("")
package trace
