package packagemanager

// Cache keeps the last observed Inventory per provider. An entry is filled by
// the first successful listing and cleared by Invalidate right before a
// mutation; readers always get a deep copy.
//
// Cache is not safe for concurrent use. Each host owns its own.
type Cache struct {
	entries map[string]Inventory
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]Inventory)}
}

func (c *Cache) Get(provider string) (Inventory, bool) {
	inv, ok := c.entries[provider]
	if !ok {
		return nil, false
	}
	return inv.Copy(), true
}

func (c *Cache) Set(provider string, inv Inventory) {
	if c.entries == nil {
		c.entries = make(map[string]Inventory)
	}
	c.entries[provider] = inv.Copy()
}

func (c *Cache) Invalidate(provider string) {
	delete(c.entries, provider)
}
