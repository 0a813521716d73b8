package domain

import "fmt"

// ItemState is the energy lifecycle state of a work item.
type ItemState string

const (
	ItemDormant      ItemState = "dormant"
	ItemKindling     ItemState = "kindling"
	ItemBlazing      ItemState = "blazing"
	ItemCooling      ItemState = "cooling"
	ItemCrystallized ItemState = "crystallized"
)

// ParseItemState converts s into an ItemState.
func ParseItemState(s string) (ItemState, error) {
	st := ItemState(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown work item state %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the declared states.
func (s ItemState) Valid() bool {
	switch s {
	case ItemDormant, ItemKindling, ItemBlazing, ItemCooling, ItemCrystallized:
		return true
	}
	return false
}

// Owned reports whether an item in this state must have a primary owner.
// Only dormant items are unowned.
func (s ItemState) Owned() bool {
	return s != ItemDormant
}

// Active reports whether the item counts as active work for the energy score.
func (s ItemState) Active() bool {
	return s == ItemKindling || s == ItemBlazing
}

// Transferable reports whether ownership of an item in this state may be
// handed off.
func (s ItemState) Transferable() bool {
	switch s {
	case ItemKindling, ItemBlazing, ItemCooling:
		return true
	case ItemDormant, ItemCrystallized:
		return false
	}
	return false
}

// AcceptsEnergy reports whether contributions may be recorded in this state.
func (s ItemState) AcceptsEnergy() bool {
	return s.Transferable()
}

// CanTransition reports whether the lifecycle permits s → to.
//
//	dormant → kindling
//	kindling → blazing | cooling
//	blazing → cooling | crystallized
//	cooling → blazing | crystallized
//
// crystallized is terminal.
func (s ItemState) CanTransition(to ItemState) bool {
	switch s {
	case ItemDormant:
		return to == ItemKindling
	case ItemKindling:
		return to == ItemBlazing || to == ItemCooling
	case ItemBlazing:
		return to == ItemCooling || to == ItemCrystallized
	case ItemCooling:
		return to == ItemBlazing || to == ItemCrystallized
	case ItemCrystallized:
		return false
	}
	return false
}

// Depth describes how deep a work item goes.
type Depth string

const (
	DepthSurface Depth = "surface"
	DepthShallow Depth = "shallow"
	DepthDeep    Depth = "deep"
	DepthAbyssal Depth = "abyssal"
)

// ParseDepth converts s into a Depth. The empty string yields DepthShallow.
func ParseDepth(s string) (Depth, error) {
	switch d := Depth(s); d {
	case "":
		return DepthShallow, nil
	case DepthSurface, DepthShallow, DepthDeep, DepthAbyssal:
		return d, nil
	}
	return "", fmt.Errorf("unknown depth %q", s)
}
