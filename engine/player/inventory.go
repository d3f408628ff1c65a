package player

import (
	"fmt"

	"github.com/nathoo/dpcq/catalog"
	"github.com/nathoo/dpcq/types"
)

// Capacity is the base capacity plus every storage artifact carried.
func (p *Player) Capacity(t *catalog.Tables) int {
	c := t.Rules.BaseCapacity
	for _, item := range p.Inventory {
		if a, ok := t.Artifact(item); ok && a.Kind == "storage" {
			c += a.Capacity
		}
	}
	return c
}

// Free is the number of empty inventory slots.
func (p *Player) Free(t *catalog.Tables) int {
	return max(0, p.Capacity(t)-len(p.Inventory))
}

// AddItem appends an item if there is room. A full inventory is left
// unchanged and AddItem reports false.
func (p *Player) AddItem(t *catalog.Tables, name string) bool {
	if len(p.Inventory) >= p.Capacity(t) {
		return false
	}
	p.Inventory = append(p.Inventory, name)
	return true
}

// AddItems adds n copies and returns how many fit.
func (p *Player) AddItems(t *catalog.Tables, name string, n int) int {
	added := 0
	for i := 0; i < n; i++ {
		if !p.AddItem(t, name) {
			break
		}
		added++
	}
	return added
}

// HasItem reports whether the inventory holds at least one of name.
func (p *Player) HasItem(name string) bool {
	return p.CountItem(name) > 0
}

// CountItem counts copies of name in the inventory.
func (p *Player) CountItem(name string) int {
	n := 0
	for _, item := range p.Inventory {
		if item == name {
			n++
		}
	}
	return n
}

// RemoveItem removes one copy of name. Returns false if none was held.
func (p *Player) RemoveItem(name string) bool {
	for i, item := range p.Inventory {
		if item == name {
			p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveItems removes n copies, all or nothing.
func (p *Player) RemoveItems(name string, n int) bool {
	if p.CountItem(name) < n {
		return false
	}
	for i := 0; i < n; i++ {
		p.RemoveItem(name)
	}
	return true
}

// CanPart reports whether removing one copy of item keeps the inventory
// within capacity. Only storage artifacts can shrink capacity.
func (p *Player) CanPart(t *catalog.Tables, item string) bool {
	a, ok := t.Artifact(item)
	if !ok || a.Kind != "storage" {
		return true
	}
	return len(p.Inventory)-1 <= p.Capacity(t)-a.Capacity
}

// LoseItem drops the lowest-rank item that can be parted with, first held
// on ties.
func (p *Player) LoseItem(t *catalog.Tables) (string, bool) {
	idx, best := -1, 0
	for i, item := range p.Inventory {
		if !p.CanPart(t, item) {
			continue
		}
		if r := t.Rank(item); idx < 0 || r < best {
			idx, best = i, r
		}
	}
	if idx < 0 {
		return "", false
	}
	item := p.Inventory[idx]
	p.Inventory = append(p.Inventory[:idx], p.Inventory[idx+1:]...)
	return item, true
}

// Equip moves a technique from the inventory to the equipment set. A
// technique already equipped in the same slot is returned to the
// inventory and reported as displaced.
func (p *Player) Equip(t *catalog.Tables, name string) (displaced string, err error) {
	tech, ok := t.Technique(name)
	if !ok {
		return "", &types.Failure{Kind: types.FailInvalidTarget, Message: fmt.Sprintf("%s is not a technique", name)}
	}
	if !p.HasItem(name) {
		return "", &types.Failure{Kind: types.FailInsufficient, Message: fmt.Sprintf("you do not have %s", name)}
	}
	for _, eq := range p.Equipped {
		if eq == name {
			return "", &types.Failure{Kind: types.FailInvariant, Message: fmt.Sprintf("%s is already equipped", name)}
		}
	}
	p.RemoveItem(name)
	for i, eq := range p.Equipped {
		cur, ok := t.Technique(eq)
		if ok && cur.Slot == tech.Slot {
			p.Equipped[i] = name
			p.Inventory = append(p.Inventory, eq)
			return eq, nil
		}
	}
	p.Equipped = append(p.Equipped, name)
	return "", nil
}

// Unequip returns an equipped technique to the inventory.
func (p *Player) Unequip(t *catalog.Tables, name string) error {
	for i, eq := range p.Equipped {
		if eq != name {
			continue
		}
		if len(p.Inventory) >= p.Capacity(t) {
			return &types.Failure{Kind: types.FailInvariant, Message: "inventory is full"}
		}
		p.Equipped = append(p.Equipped[:i], p.Equipped[i+1:]...)
		p.Inventory = append(p.Inventory, name)
		return nil
	}
	return &types.Failure{Kind: types.FailInvalidTarget, Message: fmt.Sprintf("%s is not equipped", name)}
}
