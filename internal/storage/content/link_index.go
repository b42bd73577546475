// In-memory bidirectional relation index for backlink queries.

package content

import (
	"iter"
	"slices"
	"sync"

	"github.com/maruel/ksid"
)

// EntryRef identifies an entry together with the database holding it.
type EntryRef struct {
	DatabaseID ksid.ID `json:"database_id"`
	EntryID    ksid.ID `json:"entry_id"`
}

// LinkIndex maintains a bidirectional index of relation cells across all
// databases of an org.
//
// It is lazily built on first access by scanning every entry, then kept
// up-to-date incrementally as entries are created, updated, or deleted.
//
// The forward map tracks source→targets so updates can diff against the
// previous state. The backward map tracks target→sources for O(1) backlink
// lookups. Targets are keyed by ID string since relation cells may hold
// dangling IDs.
type LinkIndex struct {
	mu       sync.RWMutex
	built    bool
	forward  map[ksid.ID][]string  // source entry → target entry IDs
	sourceDB map[ksid.ID]ksid.ID   // source entry → its database
	backward map[string][]EntryRef // target entry → referring entries
}

// ExtractRelationTargets collects the target IDs held by an entry's relation
// cells, de-duplicated in cell order.
func ExtractRelationTargets(db *Database, e *Entry) []string {
	var out []string
	for i := range db.Columns {
		col := &db.Columns[i]
		if col.Type != ColumnTypeRelation {
			continue
		}
		out = append(out, toStringList(e.Properties[col.Key()])...)
	}
	return dedup(out)
}

// EnsureBuilt lazily initializes the index on first access. iterEntries
// yields every entry of the org paired with its database.
func (c *LinkIndex) EnsureBuilt(iterEntries func() (iter.Seq2[*Database, *Entry], error)) error {
	c.mu.RLock()
	if c.built {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.built {
		return nil
	}
	return c.buildLocked(iterEntries)
}

// buildLocked populates both maps by scanning all entries. Caller must hold
// mu for writing.
func (c *LinkIndex) buildLocked(iterEntries func() (iter.Seq2[*Database, *Entry], error)) error {
	seq, err := iterEntries()
	if err != nil {
		return err
	}
	c.forward = make(map[ksid.ID][]string)
	c.sourceDB = make(map[ksid.ID]ksid.ID)
	c.backward = make(map[string][]EntryRef)
	for db, e := range seq {
		targets := ExtractRelationTargets(db, e)
		if len(targets) == 0 {
			continue
		}
		c.forward[e.ID] = targets
		c.sourceDB[e.ID] = db.ID
		for _, t := range targets {
			c.backward[t] = append(c.backward[t], EntryRef{DatabaseID: db.ID, EntryID: e.ID})
		}
	}
	c.built = true
	return nil
}

// Update recomputes entries for a source entry based on its current relation
// cells. Call after an entry is created or updated.
func (c *LinkIndex) Update(db *Database, e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.built {
		return // will be built lazily with current data
	}

	newTargets := ExtractRelationTargets(db, e)

	for _, old := range c.forward[e.ID] {
		c.removeBackwardLocked(old, e.ID)
	}

	if len(newTargets) == 0 {
		delete(c.forward, e.ID)
		delete(c.sourceDB, e.ID)
	} else {
		c.forward[e.ID] = newTargets
		c.sourceDB[e.ID] = db.ID
	}

	for _, t := range newTargets {
		c.backward[t] = append(c.backward[t], EntryRef{DatabaseID: db.ID, EntryID: e.ID})
	}
}

// Remove deletes all index entries for a deleted entry.
func (c *LinkIndex) Remove(entryID ksid.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.built {
		return
	}
	for _, t := range c.forward[entryID] {
		c.removeBackwardLocked(t, entryID)
	}
	delete(c.forward, entryID)
	delete(c.sourceDB, entryID)
}

// RemoveDatabase drops every source entry belonging to a deleted database.
func (c *LinkIndex) RemoveDatabase(databaseID ksid.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.built {
		return
	}
	for entryID, dbID := range c.sourceDB {
		if dbID != databaseID {
			continue
		}
		for _, t := range c.forward[entryID] {
			c.removeBackwardLocked(t, entryID)
		}
		delete(c.forward, entryID)
		delete(c.sourceDB, entryID)
	}
}

// Backlinks returns the entries whose relation cells point at targetID.
// Must be called after EnsureBuilt.
func (c *LinkIndex) Backlinks(targetID ksid.ID) []EntryRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.backward[targetID.String()])
}

// Invalidate drops the index so the next access rebuilds it from storage.
func (c *LinkIndex) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.built = false
	c.forward = nil
	c.sourceDB = nil
	c.backward = nil
}

// removeBackwardLocked removes sourceID from the backward entry for target.
// Caller must hold mu for writing.
func (c *LinkIndex) removeBackwardLocked(target string, sourceID ksid.ID) {
	refs := c.backward[target]
	for i, ref := range refs {
		if ref.EntryID == sourceID {
			c.backward[target] = append(refs[:i], refs[i+1:]...)
			if len(c.backward[target]) == 0 {
				delete(c.backward, target)
			}
			return
		}
	}
}
