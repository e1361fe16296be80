package domain

// FixtureRecord is one record of a seed set. References inside Data may be
// bare document ids, which are qualified with the target organisation when
// the set is loaded.
type FixtureRecord struct {
	ID   string
	Data Record
}

// Fixture is a set of documents and relations to load into a store.
type Fixture struct {
	Documents []FixtureRecord
	Relations map[Entity][]FixtureRecord
}

// Count returns the total number of records in the set.
func (f *Fixture) Count() int {
	n := len(f.Documents)
	for _, recs := range f.Relations {
		n += len(recs)
	}
	return n
}
