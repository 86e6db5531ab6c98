package process

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid record")
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

type CompositionListOpts struct {
	Grade  string
	Limit  int
	Offset int
}

type ProcessListOpts struct {
	FurnaceID string
	Since     time.Time // zero = unbounded
	Limit     int
	Offset    int
	Ascending bool // default newest first
}

// DataSource is the read side the quality monitor depends on.
type DataSource interface {
	// FetchRecentSamples returns readings from the last windowHours,
	// oldest first. An empty furnaceID matches every furnace.
	FetchRecentSamples(ctx context.Context, windowHours int, furnaceID string) ([]ProcessData, error)
	FetchLowStock(ctx context.Context, threshold float64) ([]InventoryItem, error)
}

type Store interface {
	DataSource

	PutComposition(ctx context.Context, c AlloyComposition) (AlloyComposition, error)
	GetComposition(ctx context.Context, id string) (AlloyComposition, error)
	ListCompositions(ctx context.Context, opts CompositionListOpts) ([]AlloyComposition, error)
	DeleteComposition(ctx context.Context, id string) error

	AddProcessData(ctx context.Context, p ProcessData) (ProcessData, error)
	AddProcessDataBatch(ctx context.Context, rows []ProcessData) ([]ProcessData, error)
	GetProcessData(ctx context.Context, id string) (ProcessData, error)
	ListProcessData(ctx context.Context, opts ProcessListOpts) ([]ProcessData, error)
	DeleteProcessData(ctx context.Context, id string) error

	PutInventory(ctx context.Context, it InventoryItem) (InventoryItem, error)
	GetInventory(ctx context.Context, id string) (InventoryItem, error)
	ListInventory(ctx context.Context) ([]InventoryItem, error)
	DeleteInventory(ctx context.Context, id string) error

	CreateAlert(ctx context.Context, a Alert) (Alert, error)
	GetAlert(ctx context.Context, id string) (Alert, error)
	ListAlerts(ctx context.Context, activeOnly bool) ([]Alert, error)
	ResolveAlert(ctx context.Context, id string, at time.Time) (Alert, error)
	CountActiveAlerts(ctx context.Context) (int, error)
}

// StoreOption configures SQLStore and MemoryStore.
type StoreOption func(*storeOpts)

type storeOpts struct {
	now func() time.Time
}

// WithClock replaces time.Now for timestamps and recent-window queries.
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOpts) { o.now = now }
}

func applyOpts(opts []StoreOption) storeOpts {
	o := storeOpts{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultListLimit
	case n > MaxListLimit:
		return MaxListLimit
	}
	return n
}

func windowStart(now time.Time, hours int) time.Time {
	if hours <= 0 {
		hours = 24
	}
	return now.Add(-time.Duration(hours) * time.Hour)
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func prepareComposition(c AlloyComposition, now time.Time) (AlloyComposition, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Grade = strings.TrimSpace(c.Grade)
	if c.Name == "" || c.Grade == "" {
		return c, invalid("name and grade are required")
	}
	if err := c.Elements.Validate(); err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	c.ID = newID(c.ID)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	return c, nil
}

func prepareProcessData(p ProcessData, now time.Time) (ProcessData, error) {
	p.FurnaceID = strings.TrimSpace(p.FurnaceID)
	if p.FurnaceID == "" {
		return p, invalid("furnace_id is required")
	}
	if err := p.Composition.Validate(); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	p.ID = newID(p.ID)
	if p.RecordedAt.IsZero() {
		p.RecordedAt = now
	}
	return p, nil
}

func prepareInventory(it InventoryItem, now time.Time) (InventoryItem, error) {
	it.MaterialName = strings.TrimSpace(it.MaterialName)
	if it.MaterialName == "" || it.Unit == "" {
		return it, invalid("material_name and unit are required")
	}
	if !validMaterialType(it.MaterialType) {
		return it, invalid("material_type %q", it.MaterialType)
	}
	if it.Quantity < 0 {
		return it, invalid("negative quantity")
	}
	it.ID = newID(it.ID)
	it.UpdatedAt = now
	return it, nil
}

func prepareAlert(a Alert, now time.Time) (Alert, error) {
	if strings.TrimSpace(a.Title) == "" || a.Source == "" {
		return a, invalid("title and source are required")
	}
	if !validSeverity(a.Severity) {
		return a, invalid("severity %q", a.Severity)
	}
	a.ID = newID(a.ID)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.Resolved = false
	a.ResolvedAt = nil
	return a, nil
}
