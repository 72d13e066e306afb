package symbols

import (
	"fmt"

	"iterlower/internal/text"
)

// TypeKind categorizes type symbols
type TypeKind int

const (
	TypeKindSpecial TypeKind = iota
	TypeKindClass
	TypeKindStateMachine
)

// SpecialType identifies the handful of built-in types bound trees refer to
type SpecialType int

const (
	NotSpecial SpecialType = iota
	SpecialVoid
	SpecialBool
	SpecialInt
	SpecialString
	SpecialObject
)

// Type is a named type. Member lists are only populated through a
// MemberBuilder and become visible once the builder is frozen.
type Type struct {
	Name      string
	Kind      TypeKind
	Special   SpecialType
	Locations []text.Span

	members []Member
	frozen  bool
}

// Built-in types
var (
	Void   = &Type{Name: "void", Kind: TypeKindSpecial, Special: SpecialVoid, frozen: true}
	Bool   = &Type{Name: "bool", Kind: TypeKindSpecial, Special: SpecialBool, frozen: true}
	Int    = &Type{Name: "int", Kind: TypeKindSpecial, Special: SpecialInt, frozen: true}
	String = &Type{Name: "string", Kind: TypeKindSpecial, Special: SpecialString, frozen: true}
	Object = &Type{Name: "object", Kind: TypeKindSpecial, Special: SpecialObject, frozen: true}
)

// SpecialTypeByName resolves a built-in type by its keyword
func SpecialTypeByName(name string) (*Type, bool) {
	switch name {
	case "void":
		return Void, true
	case "bool":
		return Bool, true
	case "int":
		return Int, true
	case "string":
		return String, true
	case "object":
		return Object, true
	}
	return nil, false
}

// NewClass creates a user-declared class type with an empty, unfrozen member list
func NewClass(name string, locations ...text.Span) *Type {
	return &Type{Name: name, Kind: TypeKindClass, Locations: locations}
}

// NewStateMachineType creates the synthesized type backing a resumable method
func NewStateMachineType(iteratorName string, locations ...text.Span) *Type {
	return &Type{
		Name:      fmt.Sprintf("%s$iterator", iteratorName),
		Kind:      TypeKindStateMachine,
		Locations: locations,
	}
}

// Members returns the frozen member list (nil until frozen)
func (t *Type) Members() []Member {
	return t.members
}

// IsFrozen reports whether the member list is final
func (t *Type) IsFrozen() bool {
	return t.frozen
}

// Field returns the named field member, if any
func (t *Type) Field(name string) *Field {
	for _, m := range t.members {
		if f, ok := m.(*Field); ok && f.Name == name {
			return f
		}
	}
	return nil
}

// Method returns the named method member, if any
func (t *Type) Method(name string) *Method {
	for _, m := range t.members {
		if mm, ok := m.(*Method); ok && mm.Name == name {
			return mm
		}
	}
	return nil
}

func (t *Type) String() string {
	return t.Name
}
