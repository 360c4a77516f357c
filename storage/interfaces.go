package storage

import "naver-map-bookmarker/models"

// ResultWriter is the interface for persisting per-row outcomes.
type ResultWriter interface {
	WriteResult(r *models.RowResult) error
	Close() error
}
