package cargo

// Catalog indexes entries by scoped cargo mint and by canonical mint.
// When several entries share a key the first one wins.
type Catalog struct {
	entries []Entry
	byCargo map[string]int
	byMint  map[string]int
}

func NewCatalog(entries []Entry) *Catalog {
	c := &Catalog{
		entries: entries,
		byCargo: make(map[string]int, len(entries)),
		byMint:  make(map[string]int),
	}
	for i, e := range entries {
		if _, ok := c.byCargo[e.CargoMint]; !ok && e.CargoMint != "" {
			c.byCargo[e.CargoMint] = i
		}
		if _, ok := c.byMint[e.Mint]; !ok && e.Mint != "" {
			c.byMint[e.Mint] = i
		}
	}
	return c
}

// ByCargoMint looks up the starbase-scoped mint.
func (c *Catalog) ByCargoMint(mint string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	i, ok := c.byCargo[mint]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// ByMint looks up the canonical resource mint.
func (c *Catalog) ByMint(mint string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	i, ok := c.byMint[mint]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	return c.entries
}
