package layout

import "github.com/hwaldner/cloudcanvas/pkg/store"

// Apply converts layout updates into a single batched store mutation, so
// listeners observe one coherent change instead of per-shape churn.
func Apply(st *store.Store, updates []Update) {
	batch := make([]store.ShapeUpdate, 0, len(updates))
	for _, u := range updates {
		if u.Resize {
			batch = append(batch, store.Resize(u.ID, u.Rect))
		} else {
			batch = append(batch, store.Move(u.ID, u.Rect.X, u.Rect.Y))
		}
	}
	st.UpdateShapes(batch)
}
