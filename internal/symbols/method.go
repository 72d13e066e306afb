package symbols

import "iterlower/internal/text"

// MethodKind distinguishes ordinary methods from the other callable kinds
type MethodKind int

const (
	MethodKindOrdinary MethodKind = iota
	MethodKindHost                // provided by the runtime, called by name
)

// Accessibility of a member
type Accessibility int

const (
	Private Accessibility = iota
	Public
)

func (a Accessibility) String() string {
	if a == Public {
		return "public"
	}
	return "private"
}

// CallingConvention of a method
type CallingConvention int

const (
	CallingConventionDefault CallingConvention = iota
	CallingConventionHasThis
)

// SynthesizedKind records why the compiler created a method
type SynthesizedKind int

const (
	NotSynthesized SynthesizedKind = iota
	SynthesizedFinally
	SynthesizedMoveNext
	SynthesizedDispose
)

// Method is a plain record describing a callable. Every property is fixed
// at construction; nothing about a method changes after it is created.
type Method struct {
	Name              string
	Containing        *Type
	Kind              MethodKind
	Synthesized       SynthesizedKind
	Accessibility     Accessibility
	CallingConvention CallingConvention
	ReturnType        *Type
	Parameters        []*Parameter
	Locations         []text.Span

	IsStatic   bool
	IsVirtual  bool
	IsOverride bool
	IsAbstract bool
	IsSealed   bool
	IsExtern   bool

	IsMetadataVirtual bool
	IsMetadataNewSlot bool
	IsMetadataFinal   bool
	HasSecurity       bool
	HasCustomAttrs    bool
	GenerateDebugInfo bool
	InliningCandidate bool
	IsIterator        bool
	ElementType       *Type
}

// Arity is the number of type parameters. Nothing in a bound tree is generic.
func (m *Method) Arity() int { return 0 }

// ReturnsVoid reports whether the method returns nothing
func (m *Method) ReturnsVoid() bool {
	return m.ReturnType == nil || m.ReturnType == Void
}

// HasThis reports whether the method operates on an instance
func (m *Method) HasThis() bool {
	return m.CallingConvention == CallingConventionHasThis
}

func (m *Method) String() string {
	if m.Containing != nil {
		return m.Containing.Name + "." + m.Name
	}
	return m.Name
}

// NewUserMethod creates a method declared in source
func NewUserMethod(containing *Type, name string, returnType *Type, params []*Parameter, locations ...text.Span) *Method {
	return &Method{
		Name:              name,
		Containing:        containing,
		Kind:              MethodKindOrdinary,
		Accessibility:     Public,
		CallingConvention: CallingConventionHasThis,
		ReturnType:        returnType,
		Parameters:        params,
		Locations:         locations,
		GenerateDebugInfo: true,
	}
}

// NewIteratorMethod creates a resumable method yielding elementType
func NewIteratorMethod(containing *Type, name string, elementType *Type, params []*Parameter, locations ...text.Span) *Method {
	m := NewUserMethod(containing, name, Object, params, locations...)
	m.IsIterator = true
	m.ElementType = elementType
	return m
}

// NewHostMethod creates a static runtime-provided function called by name
func NewHostMethod(name string, returnType *Type) *Method {
	return &Method{
		Name:          name,
		Kind:          MethodKindHost,
		Accessibility: Public,
		ReturnType:    returnType,
		IsStatic:      true,
		IsExtern:      true,
	}
}

// NewFinallyMethod creates the method holding one extracted finally block.
//
// A finally method is a private, void, parameterless, non-virtual instance
// method of the state machine type. It carries no security metadata and no
// attributes, generates debug info for its own statements, and may be
// inlined by the runtime.
func NewFinallyMethod(containing *Type, name string) *Method {
	return &Method{
		Name:              name,
		Containing:        containing,
		Kind:              MethodKindOrdinary,
		Synthesized:       SynthesizedFinally,
		Accessibility:     Private,
		CallingConvention: CallingConventionHasThis,
		ReturnType:        Void,
		Locations:         containing.Locations,
		GenerateDebugInfo: true,
		InliningCandidate: true,
	}
}

// NewMoveNextMethod creates the resume entry point of a state machine
func NewMoveNextMethod(containing *Type) *Method {
	return &Method{
		Name:              "MoveNext",
		Containing:        containing,
		Kind:              MethodKindOrdinary,
		Synthesized:       SynthesizedMoveNext,
		Accessibility:     Public,
		CallingConvention: CallingConventionHasThis,
		ReturnType:        Bool,
		Locations:         containing.Locations,
		IsMetadataVirtual: true,
		IsMetadataNewSlot: true,
		IsMetadataFinal:   true,
		GenerateDebugInfo: true,
	}
}

// NewDisposeMethod creates the external cleanup entry point of a state machine
func NewDisposeMethod(containing *Type) *Method {
	return &Method{
		Name:              "Dispose",
		Containing:        containing,
		Kind:              MethodKindOrdinary,
		Synthesized:       SynthesizedDispose,
		Accessibility:     Public,
		CallingConvention: CallingConventionHasThis,
		ReturnType:        Void,
		Locations:         containing.Locations,
		IsMetadataVirtual: true,
		IsMetadataNewSlot: true,
		IsMetadataFinal:   true,
		GenerateDebugInfo: true,
	}
}

// InvalidResumption is the runtime helper the generated resume check calls
// when a terminal state machine is resumed.
var InvalidResumption = NewHostMethod("$invalidResumption", Void)
