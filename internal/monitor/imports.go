package monitor

import (
	"context"

	"github.com/mind-engage/mindengage-alloy/internal/events"
)

type importRecord struct {
	BlobKey string `json:"blob_key"`
	Rows    int    `json:"rows"`
}

// RecordImport announces a CSV batch that was archived and stored.
func (s *Service) RecordImport(ctx context.Context, blobKey string, rows int) {
	s.emit(ctx, events.KeyDataImported, blobKey, importRecord{BlobKey: blobKey, Rows: rows})
}
