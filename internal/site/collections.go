package site

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Collections aggregates metadata records by collection name. Records keep
// their append order and names keep the order in which they first appeared.
type Collections struct {
	items *orderedmap.OrderedMap[string, []Metadata]
}

// NewCollections returns an empty aggregate.
func NewCollections() *Collections {
	return &Collections{items: orderedmap.New[string, []Metadata]()}
}

// Append adds meta to the named bucket, creating it when absent.
func (c *Collections) Append(name string, meta Metadata) {
	records, _ := c.items.Get(name)
	c.items.Set(name, append(records, meta))
}

// Names returns the collection names in first-appearance order.
func (c *Collections) Names() []string {
	names := make([]string, 0, c.items.Len())
	for pair := c.items.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Get returns the records of a collection.
func (c *Collections) Get(name string) []Metadata {
	records, _ := c.items.Get(name)
	return records
}

// Len returns the number of collections.
func (c *Collections) Len() int {
	return c.items.Len()
}

// MarshalJSON renders the aggregate as an object keyed by collection name in
// first-appearance order.
func (c *Collections) MarshalJSON() ([]byte, error) {
	return c.items.MarshalJSON()
}
