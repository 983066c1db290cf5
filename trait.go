package nametags

import (
	"fmt"
	"sync"
)

// TraitKind identifies a behaviour that can be attached to a name tag entity.
// The set of kinds is closed; each entity holds at most one trait per kind.
type TraitKind int

const (
	// TraitSneak changes the tag while its owner sneaks.
	TraitSneak TraitKind = iota

	// TraitText renders the owner's tag template into the passenger text.
	TraitText

	// traitCount is the total number of trait kinds.
	traitCount
)

// String returns the string representation of the trait kind.
func (k TraitKind) String() string {
	switch k {
	case TraitSneak:
		return "Sneak"
	case TraitText:
		return "Text"
	default:
		return "Unknown"
	}
}

// Trait is a behaviour attached to an entity.
type Trait interface {
	// Kind returns the kind the trait is registered under.
	Kind() TraitKind
	// Release detaches the trait. It is called once, when the entity is destroyed.
	Release()
}

// Traits is the per-entity trait registry.
type Traits struct {
	mu       sync.Mutex
	traits   [traitCount]Trait
	released bool
}

// GetOrAdd returns the trait registered for kind, creating it with factory if
// none exists. The factory runs at most once per kind. After Release, GetOrAdd
// returns nil and never calls factory.
func (t *Traits) GetOrAdd(kind TraitKind, factory func() Trait) Trait {
	if kind < 0 || kind >= traitCount {
		panic(fmt.Sprintf("nametags: unknown trait kind %d", kind))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		return nil
	}
	if tr := t.traits[kind]; tr != nil {
		return tr
	}
	tr := factory()
	if tr.Kind() != kind {
		panic(fmt.Sprintf("nametags: factory for %v produced a %v trait", kind, tr.Kind()))
	}
	t.traits[kind] = tr
	return tr
}

// Get returns the trait registered for kind, if any.
func (t *Traits) Get(kind TraitKind) (Trait, bool) {
	if kind < 0 || kind >= traitCount {
		return nil, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	tr := t.traits[kind]
	return tr, tr != nil
}

// Len returns the number of attached traits.
func (t *Traits) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, tr := range t.traits {
		if tr != nil {
			n++
		}
	}
	return n
}

// Release detaches every trait. Subsequent calls do nothing.
func (t *Traits) Release() {
	t.mu.Lock()
	if t.released {
		t.mu.Unlock()
		return
	}
	t.released = true
	traits := t.traits
	t.traits = [traitCount]Trait{}
	t.mu.Unlock()

	for _, tr := range traits {
		if tr != nil {
			tr.Release()
		}
	}
}

// TraitOf is GetOrAdd with the concrete trait type restored.
//
//	sneak, ok := nametags.TraitOf(e.Traits(), nametags.TraitSneak, func() *nametags.SneakTrait {
//	    return nametags.NewSneakTrait(e)
//	})
func TraitOf[T Trait](t *Traits, kind TraitKind, factory func() T) (T, bool) {
	tr := t.GetOrAdd(kind, func() Trait { return factory() })
	v, ok := tr.(T)
	return v, ok
}
