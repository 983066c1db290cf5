package nametags

// SneakTrait drops the always-visible flag of the tag while the owner sneaks,
// so the tag only shows when a viewer looks straight at the owner.
type SneakTrait struct {
	e *Entity
}

// NewSneakTrait creates a sneak trait for e.
func NewSneakTrait(e *Entity) *SneakTrait {
	return &SneakTrait{e: e}
}

// Kind returns TraitSneak.
func (*SneakTrait) Kind() TraitKind { return TraitSneak }

// Release resets the sneaking form on the passenger.
func (s *SneakTrait) Release() {
	s.e.passenger.SetSneaking(false)
}

// UpdateSneak switches the tag between its normal and sneaking form and
// pushes the change to every viewer that has the passenger spawned.
func (s *SneakTrait) UpdateSneak(sneaking bool) {
	if s.e.passenger.SetSneaking(sneaking) {
		s.e.pushMetadata()
	}
}
