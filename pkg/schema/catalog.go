package schema

import "github.com/goliatone/go-formstate/pkg/form"

// Entry is a loaded form together with the file it came from.
type Entry struct {
	Config form.Config
	Source string
}

// Catalog is an immutable set of form configs keyed by form id. Iteration
// order follows the order the loader encountered them.
type Catalog struct {
	entries map[string]Entry
	order   []string
}

func newCatalog() *Catalog {
	return &Catalog{entries: make(map[string]Entry)}
}

func (c *Catalog) add(entry Entry) {
	c.entries[entry.Config.ID] = entry
	c.order = append(c.order, entry.Config.ID)
}

// Form returns a copy of the config registered under id.
func (c *Catalog) Form(id string) (form.Config, bool) {
	if c == nil {
		return form.Config{}, false
	}
	entry, ok := c.entries[id]
	if !ok {
		return form.Config{}, false
	}
	return entry.Config.Clone(), true
}

// Source reports which file defined id.
func (c *Catalog) Source(id string) string {
	if c == nil {
		return ""
	}
	return c.entries[id].Source
}

// IDs lists the form ids in load order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// Forms returns copies of every config in load order.
func (c *Catalog) Forms() []form.Config {
	if c == nil {
		return nil
	}
	out := make([]form.Config, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id].Config.Clone())
	}
	return out
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Empty reports whether the catalog holds any forms.
func (c *Catalog) Empty() bool {
	return c.Len() == 0
}

// Source yields the current catalog. *Holder implements it.
type Source interface {
	Get() *Catalog
}

// Static serves a fixed catalog as a Source.
type Static struct {
	Catalog *Catalog
}

func (s Static) Get() *Catalog { return s.Catalog }
