package zecs

import (
	"iter"

	"github.com/TheBitDrifter/mask"
)

// Archetype is the read-only view of one archetype table handed to query nodes.
type Archetype interface {
	mask.Maskable
	ID() uint32
	Len() int
	Components() []ComponentID
}

// QueryBuilder composes untyped query trees out of component handles and nested nodes.
type QueryBuilder interface {
	QueryNode
	And(items ...any) QueryNode
	Or(items ...any) QueryNode
	Not(items ...any) QueryNode
}

type QueryNode interface {
	Evaluate(archetype Archetype) bool
}

type iCursor interface {
	Entities() iter.Seq2[int, Entity]
	Next() bool
}

type Cache[K comparable, T any] interface {
	GetIndex(K) (int, bool)
	GetItem(int) *T
	GetItem32(uint32) *T
	Register(K, T) (int, error)
	Clear()
}

// Scene is any value the engine drives. It may implement SceneStarter and SceneStopper.
type Scene any

// SceneStarter is called once when the engine enters the scene, before the first tick.
type SceneStarter interface {
	OnStart(w *World) error
}

// SceneStopper is called once when the engine leaves the scene, after the last tick.
type SceneStopper interface {
	OnStop(w *World) error
}

// Warning: internal Dependencies abound!
type Cursor struct {
	query QueryNode
	world *World

	currentArchetype *archetype
	storageIndex     int
	entityIndex      int
	remaining        int

	initialized     bool
	matchedStorages []*archetype
}

type SimpleCache[K comparable, T any] struct {
	items       []T
	itemIndices map[K]int
	maxCapacity int
}
