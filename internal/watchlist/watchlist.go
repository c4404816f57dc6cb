// Package watchlist holds the persisted set of watched asset ids.
package watchlist

import (
	"encoding/json"
	"fmt"
	"log"
	"slices"

	"github.com/novacrypto/nova/internal/model"
)

// Watchlist is a set of asset ids persisted as a JSON array under
// model.KeyWatchlist, in insertion order. It is not safe for concurrent use.
type Watchlist struct {
	store    model.KeyValueStore
	ids      map[string]struct{}
	order    []string
	inMemory bool // set after the first failed save
}

// Load reads the watchlist from store. An absent, unreadable or corrupt
// blob yields an empty watchlist; Load never fails.
func Load(store model.KeyValueStore) *Watchlist {
	w := &Watchlist{store: store, ids: make(map[string]struct{})}
	if store == nil {
		w.inMemory = true
		return w
	}

	raw, ok, err := store.Get(model.KeyWatchlist)
	if err != nil {
		log.Printf("watchlist: load failed, starting empty: %v", err)
		return w
	}
	if !ok {
		return w
	}

	ids, err := Decode(raw)
	if err != nil {
		log.Printf("watchlist: %v, starting empty", err)
		return w
	}
	for _, id := range ids {
		w.add(id)
	}
	return w
}

// Decode parses a persisted watchlist blob. null decodes to an empty list,
// empty ids are dropped and anything other than an array of strings is corrupt.
func Decode(raw string) ([]string, error) {
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrPersistenceCorrupt, model.KeyWatchlist, err)
	}
	out := ids[:0]
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}

// Contains reports whether id is watched.
func (w *Watchlist) Contains(id string) bool {
	_, ok := w.ids[id]
	return ok
}

// Toggle flips the membership of id and persists the result.
// It returns the new membership.
func (w *Watchlist) Toggle(id string) bool {
	_, watched := w.ids[id]
	if watched {
		delete(w.ids, id)
		if i := slices.Index(w.order, id); i >= 0 {
			w.order = slices.Delete(w.order, i, i+1)
		}
	} else {
		w.add(id)
	}
	w.save()
	return !watched
}

func (w *Watchlist) add(id string) {
	if _, ok := w.ids[id]; ok {
		return
	}
	w.ids[id] = struct{}{}
	w.order = append(w.order, id)
}

// IDs returns the watched ids in the order they were added.
func (w *Watchlist) IDs() []string {
	return slices.Clone(w.order)
}

// Len returns the number of watched ids.
func (w *Watchlist) Len() int {
	return len(w.ids)
}

// Encode returns the serialized form: a JSON array in insertion order.
func (w *Watchlist) Encode() string {
	ids := w.order
	if ids == nil {
		ids = []string{}
	}
	data, _ := json.Marshal(ids)
	return string(data)
}

func (w *Watchlist) save() {
	if w.inMemory {
		return
	}
	if err := w.store.Set(model.KeyWatchlist, w.Encode()); err != nil {
		log.Printf("watchlist: save failed, keeping changes in memory for this session: %v", err)
		w.inMemory = true
	}
}
