package zecs

import (
	"iter"
)

var _ iCursor = &Cursor{}

func newCursor(query QueryNode, world *World) *Cursor {
	return &Cursor{
		query: query,
		world: world,
	}
}

// Next advances to the next matching entity. The world stays locked from the first call
// until Next returns false or Reset is called.
func (c *Cursor) Next() bool {
	if c.initialized && c.entityIndex < c.remaining {
		c.entityIndex++
		return true
	}
	return c.advance()
}

func (c *Cursor) advance() bool {
	if !c.initialized {
		c.initialize()
	} else {
		c.storageIndex++
		c.entityIndex = 0
	}
	for c.storageIndex < len(c.matchedStorages) {
		c.currentArchetype = c.matchedStorages[c.storageIndex]
		c.remaining = c.currentArchetype.Len()

		if c.entityIndex < c.remaining {
			c.entityIndex++
			return true
		}
		c.storageIndex++
		c.entityIndex = 0
	}
	c.Reset()
	return false
}

// Entities yields the row and entity of every match. Breaking out of the loop releases the
// world lock.
func (c *Cursor) Entities() iter.Seq2[int, Entity] {
	return func(yield func(int, Entity) bool) {
		c.initialize()
		defer c.Reset()

		for c.storageIndex < len(c.matchedStorages) {
			c.currentArchetype = c.matchedStorages[c.storageIndex]
			c.remaining = c.currentArchetype.Len()

			for c.entityIndex < c.remaining {
				c.entityIndex++
				if !yield(c.entityIndex-1, c.currentArchetype.entities[c.entityIndex-1]) {
					return
				}
			}
			c.entityIndex = 0
			c.storageIndex++
		}
	}
}

func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	c.world.Lock()
	c.matchedStorages = c.matchedStorages[:0]
	for _, arch := range c.world.archetypes.asSlice {
		if c.query.Evaluate(arch) {
			c.matchedStorages = append(c.matchedStorages, arch)
		}
	}
	c.storageIndex = 0
	c.entityIndex = 0
	c.remaining = 0
	c.currentArchetype = nil
	c.initialized = true
}

// Reset rewinds the cursor and releases its world lock.
func (c *Cursor) Reset() {
	wasInitialized := c.initialized
	c.storageIndex = 0
	c.entityIndex = 0
	c.remaining = 0
	c.matchedStorages = c.matchedStorages[:0]
	c.currentArchetype = nil
	c.initialized = false
	if wasInitialized {
		c.world.Unlock()
	}
}

// CurrentEntity returns the entity the cursor is positioned on.
func (c *Cursor) CurrentEntity() Entity {
	return c.currentArchetype.entities[c.entityIndex-1]
}

func (c *Cursor) RemainingInArchetype() int {
	return c.remaining - c.entityIndex
}

// TotalMatched counts the matching entities without moving the cursor.
func (c *Cursor) TotalMatched() int {
	total := 0
	for _, arch := range c.world.archetypes.asSlice {
		if c.query.Evaluate(arch) {
			total += arch.Len()
		}
	}
	return total
}
