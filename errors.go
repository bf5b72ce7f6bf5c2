package zecs

import (
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrEntityNotValid is returned when an entity handle does not match the live record,
	// either because it was despawned or because it never existed.
	ErrEntityNotValid = eris.New("entity is not valid")

	// ErrEntityDontHaveComponent is returned when an operation references a component
	// that is absent from the entity's current archetype.
	ErrEntityDontHaveComponent = eris.New("entity does not have component")

	// ErrWorldLocked is the sentinel matched by LockedWorldError.
	ErrWorldLocked = eris.New("world is currently locked")
)

type LockedWorldError struct{}

func (e LockedWorldError) Error() string {
	return "world is currently locked"
}

func (e LockedWorldError) Is(target error) bool {
	return target == ErrWorldLocked
}

type EntityNotValidError struct {
	Entity Entity
}

func (e EntityNotValidError) Error() string {
	return fmt.Sprintf("entity %v is not valid", e.Entity)
}

func (e EntityNotValidError) Is(target error) bool {
	return target == ErrEntityNotValid
}

type ComponentNotFoundError struct {
	Entity    Entity
	Component string
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component does not exist on entity %v: %s", e.Entity, e.Component)
}

func (e ComponentNotFoundError) Is(target error) bool {
	return target == ErrEntityDontHaveComponent
}

// ComponentLimitError is raised when more distinct component types are registered than an
// archetype signature can hold.
type ComponentLimitError struct {
	Component string
}

func (e ComponentLimitError) Error() string {
	return fmt.Sprintf("cannot register component %s: limit of %d component types reached", e.Component, MaxComponentTypes)
}
