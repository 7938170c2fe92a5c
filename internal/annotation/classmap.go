package annotation

import "slices"

// Class is a registered class name with its category id.
type Class struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// ClassMap maps class names to stable category ids. Registration order is
// preserved for listing.
type ClassMap struct {
	ids   map[string]int
	order []string
}

// NewClassMap returns an empty map.
func NewClassMap() *ClassMap {
	return &ClassMap{ids: make(map[string]int)}
}

// Lookup returns the id of name and whether it is registered.
func (c *ClassMap) Lookup(name string) (int, bool) {
	id, ok := c.ids[name]
	return id, ok
}

// Ensure returns the id of name, registering it with the next free id if it is
// not yet known. The second result reports whether a new entry was created.
func (c *ClassMap) Ensure(name string) (int, bool) {
	if id, ok := c.ids[name]; ok {
		return id, false
	}
	next := c.NextID()
	c.ids[name] = next
	c.order = append(c.order, name)
	return next, true
}

// NextID returns the id Ensure would give the next new class: one above the
// largest registered id.
func (c *ClassMap) NextID() int {
	next := 1
	for _, id := range c.ids {
		next = max(next, id+1)
	}
	return next
}

// NameOf returns the class registered with id.
func (c *ClassMap) NameOf(id int) (string, bool) {
	for _, name := range c.order {
		if c.ids[name] == id {
			return name, true
		}
	}
	return "", false
}

// Set registers name with an explicit id, as when class mappings are loaded
// from a project file. An existing entry is overwritten.
func (c *ClassMap) Set(name string, id int) {
	if _, ok := c.ids[name]; !ok {
		c.order = append(c.order, name)
	}
	c.ids[name] = id
}

// Len returns the number of registered classes.
func (c *ClassMap) Len() int { return len(c.order) }

// Classes lists the registered classes in registration order.
func (c *ClassMap) Classes() []Class {
	out := make([]Class, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, Class{Name: name, ID: c.ids[name]})
	}
	return out
}

// Names lists class names in registration order.
func (c *ClassMap) Names() []string { return slices.Clone(c.order) }
