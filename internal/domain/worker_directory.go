package domain

import "context"

// WorkerRef identifies an online worker as known to the directory. Profile
// data beyond what dispatch needs (address, position, categories) is owned
// by external systems and referenced by id only.
type WorkerRef struct {
	ID         string   `json:"id"`
	Addr       string   `json:"addr"`
	Location   Location `json:"location"`
	Categories []string `json:"categories"`
}

// WorkerDirectory is the external capability that answers "which eligible
// workers are online near this point". Pure read; may return an empty set.
type WorkerDirectory interface {
	Query(ctx context.Context, point Location, radiusMiles float64, category string) ([]WorkerRef, error)
}
