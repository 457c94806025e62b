// Package errors provides structured error types for the artifact runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the deployable it is attributed to, competing candidates
// for ambiguous bindings, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDependency, errors.KindAmbiguousDependency).
//		Artifact("orders-app").
//		Candidates("shop-100", "shop-101").
//		Detail("two compatible domains").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.DependencyNotFound("orders-app", `no domain named "shop"`)
//	warn := errors.ResourceLeak("orders-app", "shutdown listener", cause)
//
// Sentinels such as ErrAmbiguousDependency match any Error with the same
// Phase and Kind, so callers can use errors.Is without inspecting fields.
package errors
