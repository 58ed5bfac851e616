package prediction

import (
	"sync/atomic"
	"time"
)

// FittedModel bundles the forest with the exact feature schema it was
// fitted under. The bundle is immutable once published; retraining builds a
// fresh one and swaps it in whole.
type FittedModel struct {
	Forest      *Forest
	Schema      Schema
	TrainedRows int
	TrainedAt   time.Time
}

// Predict encodes the features against the model's own schema and runs the
// forest. The schema projection drops fields the model never saw.
func (m *FittedModel) Predict(f Features) float64 {
	return m.Forest.Predict(m.Schema.Encode(f))
}

// Holder is the process-wide reference to the current fitted model. The
// atomic pointer swap guarantees an in-flight prediction observes either
// the fully-old or fully-new model, never a partial fit.
type Holder struct {
	current atomic.Pointer[FittedModel]
}

func NewHolder() *Holder {
	return &Holder{}
}

// Get returns the active model, or nil when none has been fitted.
func (h *Holder) Get() *FittedModel {
	return h.current.Load()
}

func (h *Holder) Set(m *FittedModel) {
	h.current.Store(m)
}

// Clear drops the active model. Only an explicit store wipe does this;
// training failures never clear a usable model.
func (h *Holder) Clear() {
	h.current.Store(nil)
}
