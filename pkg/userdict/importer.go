package userdict

// Importer applies a plain-text word list or another db's dump as new
// entries, unlike Merger which reconciles two live clocks: incoming commits
// simply accumulate, and a negative incoming commit count deletes the entry.
type Importer struct {
	store Store
}

// NewImporter wraps store for one import pass.
func NewImporter(store Store) *Importer {
	return &Importer{store: store}
}

func (im *Importer) MetaPut(key, value string) error {
	return im.store.MetaPut(key, value)
}

// Put stamps tick to the max of the existing and incoming values, adds
// incoming commits when non-negative, and deletes the entry when negative.
func (im *Importer) Put(key, value string) error {
	incoming := Unpack(value)
	existing := Value{}
	if raw, ok := im.store.Get(key); ok {
		existing = Unpack(raw)
	}

	tick := existing.Tick
	if incoming.Tick > tick {
		tick = incoming.Tick
	}

	if incoming.Commits < 0 {
		return im.store.Delete(key)
	}

	merged := Value{
		Commits: existing.Commits + incoming.Commits,
		Dee:     incoming.Dee,
		Tick:    tick,
	}
	return im.store.Put(key, merged.Pack())
}
