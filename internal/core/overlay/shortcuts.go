package overlay

import (
	"math/bits"
	"sort"
	"strings"
)

// ModifierGroup is a side-agnostic set of modifiers. A group in a
// requirement is satisfied by either its left or right key.
type ModifierGroup uint8

const (
	GroupShift ModifierGroup = 1 << iota
	GroupCtrl
	GroupAlt
	GroupMeta
)

func (g ModifierGroup) String() string {
	var parts []string
	if g&GroupMeta != 0 {
		parts = append(parts, "Meta")
	}
	if g&GroupCtrl != 0 {
		parts = append(parts, "Ctrl")
	}
	if g&GroupAlt != 0 {
		parts = append(parts, "Alt")
	}
	if g&GroupShift != 0 {
		parts = append(parts, "Shift")
	}
	return strings.Join(parts, "+")
}

const (
	ShortcutToggleChat        = "toggle_chat"
	ShortcutToggleDrag        = "toggle_drag"
	ShortcutToggleScreensaver = "toggle_screensaver"
	ShortcutCenterCharacter   = "center_character"
)

// ModifierSet tracks which side-specific modifiers are currently held.
type ModifierSet struct {
	held map[SymbolicKey]struct{}
}

func NewModifierSet() *ModifierSet {
	return &ModifierSet{held: make(map[SymbolicKey]struct{}, 8)}
}

// OnKeyTransition records a modifier press or release. Repeats and
// non-modifier keys leave the set untouched.
func (m *ModifierSet) OnKeyTransition(key SymbolicKey, transition Transition) {
	if !key.IsModifier() {
		return
	}
	switch transition {
	case Pressed:
		m.held[key] = struct{}{}
	case Released:
		delete(m.held, key)
	}
}

func (m *ModifierSet) Held(key SymbolicKey) bool {
	_, ok := m.held[key]
	return ok
}

// Groups returns the side-agnostic groups that have at least one key held.
func (m *ModifierSet) Groups() ModifierGroup {
	var groups ModifierGroup
	for key := range m.held {
		groups |= key.group()
	}
	return groups
}

func (m *ModifierSet) Len() int {
	return len(m.held)
}

// Clear drops every held modifier.
func (m *ModifierSet) Clear() {
	clear(m.held)
}

type ShortcutBinding struct {
	Requires ModifierGroup
	Trigger  SymbolicKey
	Name     string
}

func (b ShortcutBinding) String() string {
	return b.Requires.String() + "+" + strings.ToUpper(b.Trigger.String())
}

// ShortcutTable is an ordered list of bindings evaluated most-specific-first.
type ShortcutTable struct {
	bindings []ShortcutBinding
}

// NewShortcutTable orders bindings by the number of required modifier
// groups, descending. Bindings with equal specificity keep their order.
func NewShortcutTable(bindings ...ShortcutBinding) ShortcutTable {
	ordered := make([]ShortcutBinding, len(bindings))
	copy(ordered, bindings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return bits.OnesCount8(uint8(ordered[i].Requires)) > bits.OnesCount8(uint8(ordered[j].Requires))
	})
	return ShortcutTable{bindings: ordered}
}

func DefaultShortcuts() ShortcutTable {
	return NewShortcutTable(
		ShortcutBinding{Requires: GroupMeta | GroupShift, Trigger: KeyF, Name: ShortcutToggleChat},
		ShortcutBinding{Requires: GroupMeta | GroupShift, Trigger: KeyD, Name: ShortcutToggleDrag},
		ShortcutBinding{Requires: GroupMeta | GroupShift, Trigger: KeyS, Name: ShortcutToggleScreensaver},
		ShortcutBinding{Requires: GroupCtrl | GroupShift, Trigger: KeyS, Name: ShortcutToggleScreensaver},
		ShortcutBinding{Requires: GroupMeta | GroupShift, Trigger: KeyC, Name: ShortcutCenterCharacter},
	)
}

// Match returns the first binding whose trigger is key and whose required
// groups are all held. Extra held modifiers do not prevent a match.
func (t ShortcutTable) Match(key SymbolicKey, held ModifierGroup) (string, bool) {
	if key == KeyUnknown || key.IsModifier() {
		return "", false
	}
	for _, binding := range t.bindings {
		if binding.Trigger != key {
			continue
		}
		if held&binding.Requires == binding.Requires {
			return binding.Name, true
		}
	}
	return "", false
}

func (t ShortcutTable) Bindings() []ShortcutBinding {
	out := make([]ShortcutBinding, len(t.bindings))
	copy(out, t.bindings)
	return out
}
