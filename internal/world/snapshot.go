package world

import (
	"cmp"
	"slices"
	"time"
)

// Snapshot is an immutable copy of the table taken at the end of a tick.
type Snapshot struct {
	Tick       uint64
	ServerTime float64 // unix seconds
	Entities   []Entity // deep copies, ascending uid
}

// Snapshot copies the whole table. The caller must hold the lock; the result
// may be read after the lock is released.
func (s *State) Snapshot(tick uint64, now time.Time) Snapshot {
	ents := s.Entities()
	snap := Snapshot{
		Tick:       tick,
		ServerTime: float64(now.UnixNano()) / float64(time.Second),
		Entities:   make([]Entity, len(ents)),
	}
	for i, e := range ents {
		snap.Entities[i] = e.Clone()
	}
	return snap
}

// Find returns the copy of uid in the snapshot, if present.
func (sn *Snapshot) Find(uid uint64) (Entity, bool) {
	i, ok := slices.BinarySearchFunc(sn.Entities, uid, func(e Entity, uid uint64) int {
		return cmp.Compare(e.UID, uid)
	})
	if !ok {
		return Entity{}, false
	}
	return sn.Entities[i], true
}
