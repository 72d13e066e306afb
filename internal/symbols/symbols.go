package symbols

import (
	"fmt"

	"iterlower/internal/text"
)

// Field is a data member of a type
type Field struct {
	Name        string
	Type        *Type
	Containing  *Type
	Synthesized bool
}

// NewField creates a field owned by containing
func NewField(containing *Type, name string, typ *Type, synthesized bool) *Field {
	return &Field{Name: name, Type: typ, Containing: containing, Synthesized: synthesized}
}

func (f *Field) String() string {
	return fmt.Sprintf("%s.%s", f.Containing.Name, f.Name)
}

// Local is a method-local variable. Identity is by pointer: two locals
// with the same name in different scopes are different symbols.
type Local struct {
	Name        string
	Type        *Type
	Synthesized bool
	Declaration text.Span
}

// NewLocal creates a user local
func NewLocal(name string, typ *Type, declaration text.Span) *Local {
	return &Local{Name: name, Type: typ, Declaration: declaration}
}

func (l *Local) String() string {
	return l.Name
}

// Parameter is a method parameter
type Parameter struct {
	Name    string
	Type    *Type
	Ordinal int
}

func (p *Parameter) String() string {
	return p.Name
}

// Label is a jump target inside one method body
type Label struct {
	Name        string
	Synthesized bool
}

// NewLabel creates a user label
func NewLabel(name string) *Label {
	return &Label{Name: name}
}

// GeneratedLabel creates a compiler label. The ordinal keeps printed names distinct.
func GeneratedLabel(prefix string, ordinal int) *Label {
	return &Label{Name: fmt.Sprintf("$%s%d", prefix, ordinal), Synthesized: true}
}

func (l *Label) String() string {
	return l.Name
}
