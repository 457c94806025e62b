package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseResolve    Phase = "resolve"    // name and coordinate lookup
	PhaseCompose    Phase = "compose"    // region composition
	PhaseDependency Phase = "dependency" // domain binding
	PhaseDispose    Phase = "dispose"    // unit teardown
	PhaseDeploy     Phase = "deploy"     // deploy/undeploy
	PhaseRedeploy   Phase = "redeploy"   // domain or application redeploy
	PhaseLifecycle  Phase = "lifecycle"  // start/stop transitions
	PhaseLoad       Phase = "load"       // symbol and descriptor loading
	PhaseParse      Phase = "parse"      // descriptor parsing
)

// Kind categorizes the error
type Kind string

const (
	KindMalformedCoordinate Kind = "malformed_coordinate"
	KindNotFound            Kind = "not_found"
	KindDependencyNotFound  Kind = "dependency_not_found"
	KindAmbiguousDependency Kind = "ambiguous_dependency"
	KindDescriptorMissing   Kind = "descriptor_missing"
	KindCompositionConflict Kind = "composition_conflict"
	KindResourceLeak        Kind = "resource_leak"
	KindInvalidState        Kind = "invalid_state"
	KindInvalidInput        Kind = "invalid_input"
	KindInvalidData         Kind = "invalid_data"
	KindAlreadyDeployed     Kind = "already_deployed"
)

// Sentinels for errors.Is. Matching is by Phase and Kind only.
var (
	ErrMalformedCoordinate = &Error{Phase: PhaseResolve, Kind: KindMalformedCoordinate}
	ErrDependencyNotFound  = &Error{Phase: PhaseDependency, Kind: KindDependencyNotFound}
	ErrAmbiguousDependency = &Error{Phase: PhaseDependency, Kind: KindAmbiguousDependency}
	ErrDescriptorMissing   = &Error{Phase: PhaseDependency, Kind: KindDescriptorMissing}
	ErrCompositionConflict = &Error{Phase: PhaseCompose, Kind: KindCompositionConflict}
	ErrResourceLeak        = &Error{Phase: PhaseDispose, Kind: KindResourceLeak}
	ErrInvalidState        = &Error{Phase: PhaseLifecycle, Kind: KindInvalidState}
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	Artifact   string
	Detail     string
	Candidates []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Artifact != "" {
		b.WriteString(" for ")
		b.WriteString(e.Artifact)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if len(e.Candidates) > 0 {
		b.WriteString(" (candidates: ")
		b.WriteString(strings.Join(e.Candidates, ", "))
		b.WriteByte(')')
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// HasKind reports whether any *Error in err's chain has the given kind,
// regardless of phase.
func HasKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Artifact sets the name of the deployable the error is attributed to
func (b *Builder) Artifact(name string) *Builder {
	b.err.Artifact = name
	return b
}

// Candidates sets the competing matches
func (b *Builder) Candidates(names ...string) *Builder {
	b.err.Candidates = names
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// MalformedCoordinate creates an error for a coordinate request that does not parse
func MalformedCoordinate(request, detail string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindMalformedCoordinate,
		Detail: detail,
		Value:  request,
	}
}

// DependencyNotFound creates an error for a dependency no deployed domain satisfies
func DependencyNotFound(artifact, detail string) *Error {
	return &Error{
		Phase:    PhaseDependency,
		Kind:     KindDependencyNotFound,
		Artifact: artifact,
		Detail:   detail,
	}
}

// AmbiguousDependency creates an error for a dependency several domains satisfy
func AmbiguousDependency(artifact, detail string, candidates []string) *Error {
	return &Error{
		Phase:      PhaseDependency,
		Kind:       KindAmbiguousDependency,
		Artifact:   artifact,
		Detail:     detail,
		Candidates: candidates,
	}
}

// DescriptorMissing creates an error for a name reference lacking coordinate data
func DescriptorMissing(artifact, domain string) *Error {
	return &Error{
		Phase:    PhaseDependency,
		Kind:     KindDescriptorMissing,
		Artifact: artifact,
		Detail:   fmt.Sprintf("domain %q referenced by name but no coordinate is available", domain),
	}
}

// CompositionConflict creates an error for two siblings exporting one namespace
func CompositionConflict(child, namespace, owner string) *Error {
	return &Error{
		Phase:    PhaseCompose,
		Kind:     KindCompositionConflict,
		Artifact: child,
		Detail:   fmt.Sprintf("namespace %q is already exported by %q", namespace, owner),
		Value:    namespace,
	}
}

// ResourceLeak creates the warning raised for a failed disposal step
func ResourceLeak(artifact, step string, cause error) *Error {
	return &Error{
		Phase:    PhaseDispose,
		Kind:     KindResourceLeak,
		Artifact: artifact,
		Detail:   fmt.Sprintf("%s failed, this can cause a leak", step),
		Cause:    cause,
	}
}

// InvalidState creates an error for a lifecycle transition that is not allowed
func InvalidState(artifact, detail string) *Error {
	return &Error{
		Phase:    PhaseLifecycle,
		Kind:     KindInvalidState,
		Artifact: artifact,
		Detail:   detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// AlreadyDeployed creates an error for a second deploy under a taken name
func AlreadyDeployed(artifact string) *Error {
	return &Error{
		Phase:    PhaseDeploy,
		Kind:     KindAlreadyDeployed,
		Artifact: artifact,
		Detail:   "an artifact with this name is already deployed",
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a symbol or descriptor loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
