package symbols

import (
	"strconv"
	"sync"

	diag "iterlower/internal/errors"
	"iterlower/internal/invariant"
	"iterlower/internal/text"
)

// Member is a field or method owned by a type
type Member interface {
	MemberName() string
	ContainingType() *Type
}

func (f *Field) MemberName() string     { return f.Name }
func (f *Field) ContainingType() *Type  { return f.Containing }
func (m *Method) MemberName() string    { return m.Name }
func (m *Method) ContainingType() *Type { return m.Containing }

// MemberBuilder collects the members of one type while its methods are
// being lowered. Adds are append-only and ordered; Freeze publishes the
// final list on the owning type.
type MemberBuilder struct {
	mu      sync.Mutex
	owner   *Type
	members []Member
	names   map[string]int
}

// NewMemberBuilder creates a builder for owner's members
func NewMemberBuilder(owner *Type) *MemberBuilder {
	return &MemberBuilder{
		owner: owner,
		names: make(map[string]int),
	}
}

// Owner returns the type whose members are being built
func (b *MemberBuilder) Owner() *Type {
	return b.owner
}

// Add appends a member
func (b *MemberBuilder) Add(m Member) {
	b.mu.Lock()
	defer b.mu.Unlock()

	invariant.Check(!b.owner.frozen, diag.ErrorFrozenType, firstLocation(b.owner),
		"cannot add %s to frozen type %s", m.MemberName(), b.owner.Name)
	invariant.Check(m.ContainingType() == b.owner, diag.ErrorUnreachable, firstLocation(b.owner),
		"member %s belongs to %s, not %s", m.MemberName(), m.ContainingType(), b.owner.Name)

	b.members = append(b.members, m)
	b.names[m.MemberName()]++
}

// UniqueName returns base, or base followed by a counter when base is taken
func (b *MemberBuilder) UniqueName(base string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.names[base] == 0 {
		return base
	}
	for i := 2; ; i++ {
		candidate := base + "$" + strconv.Itoa(i)
		if b.names[candidate] == 0 {
			return candidate
		}
	}
}

// Len returns the number of members added so far
func (b *MemberBuilder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.members)
}

// Freeze publishes the member list on the owner. Further adds are violations.
func (b *MemberBuilder) Freeze() []Member {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.owner.frozen {
		frozen := make([]Member, len(b.members))
		copy(frozen, b.members)
		b.owner.members = frozen
		b.owner.frozen = true
	}
	return b.owner.members
}

func firstLocation(t *Type) text.Span {
	if len(t.Locations) > 0 {
		return t.Locations[0]
	}
	return text.Span{}
}
