package process

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory. It backs tests and
// alloyctl dry runs.
type MemoryStore struct {
	mu           sync.RWMutex
	now          func() time.Time
	compositions map[string]AlloyComposition
	process      map[string]ProcessData
	inventory    map[string]InventoryItem
	alerts       map[string]Alert
}

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	o := applyOpts(opts)
	return &MemoryStore{
		now:          o.now,
		compositions: map[string]AlloyComposition{},
		process:      map[string]ProcessData{},
		inventory:    map[string]InventoryItem{},
		alerts:       map[string]Alert{},
	}
}

func page[T any](items []T, limit, offset int) []T {
	offset = max(offset, 0)
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+clampLimit(limit), len(items))
	return items[offset:end]
}

func cloneProcess(p ProcessData) ProcessData {
	p.Composition = p.Composition.Clone()
	if p.QualityScore != nil {
		v := *p.QualityScore
		p.QualityScore = &v
	}
	return p
}

func cloneComposition(c AlloyComposition) AlloyComposition {
	c.Elements = c.Elements.Clone()
	if c.Properties != nil {
		props := make(map[string]float64, len(c.Properties))
		for k, v := range c.Properties {
			props[k] = v
		}
		c.Properties = props
	}
	return c
}

func (m *MemoryStore) PutComposition(_ context.Context, c AlloyComposition) (AlloyComposition, error) {
	c, err := prepareComposition(c, m.now())
	if err != nil {
		return AlloyComposition{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.compositions[c.ID]; ok {
		c.CreatedAt = prev.CreatedAt
	}
	m.compositions[c.ID] = cloneComposition(c)
	return cloneComposition(c), nil
}

func (m *MemoryStore) GetComposition(_ context.Context, id string) (AlloyComposition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.compositions[id]
	if !ok {
		return AlloyComposition{}, fmt.Errorf("composition %s: %w", id, ErrNotFound)
	}
	return cloneComposition(c), nil
}

func (m *MemoryStore) ListCompositions(_ context.Context, opts CompositionListOpts) ([]AlloyComposition, error) {
	m.mu.RLock()
	out := make([]AlloyComposition, 0, len(m.compositions))
	for _, c := range m.compositions {
		if opts.Grade == "" || c.Grade == opts.Grade {
			out = append(out, cloneComposition(c))
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Limit, opts.Offset), nil
}

func (m *MemoryStore) DeleteComposition(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.compositions[id]; !ok {
		return fmt.Errorf("composition %s: %w", id, ErrNotFound)
	}
	delete(m.compositions, id)
	return nil
}

func (m *MemoryStore) AddProcessData(ctx context.Context, p ProcessData) (ProcessData, error) {
	rows, err := m.AddProcessDataBatch(ctx, []ProcessData{p})
	if err != nil {
		return ProcessData{}, err
	}
	return rows[0], nil
}

func (m *MemoryStore) AddProcessDataBatch(_ context.Context, rows []ProcessData) ([]ProcessData, error) {
	now := m.now()
	prepared := make([]ProcessData, len(rows))
	for i, r := range rows {
		p, err := prepareProcessData(r, now)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		prepared[i] = p
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range prepared {
		if _, dup := m.process[p.ID]; dup {
			return nil, fmt.Errorf("row %d: %w: duplicate id %s", i+1, ErrInvalid, p.ID)
		}
	}
	for _, p := range prepared {
		m.process[p.ID] = cloneProcess(p)
	}
	return prepared, nil
}

func (m *MemoryStore) GetProcessData(_ context.Context, id string) (ProcessData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.process[id]
	if !ok {
		return ProcessData{}, fmt.Errorf("process data %s: %w", id, ErrNotFound)
	}
	return cloneProcess(p), nil
}

func (m *MemoryStore) filterProcess(furnaceID string, since time.Time, ascending bool) []ProcessData {
	m.mu.RLock()
	out := []ProcessData{}
	for _, p := range m.process {
		if furnaceID != "" && p.FurnaceID != furnaceID {
			continue
		}
		if !since.IsZero() && p.RecordedAt.Before(since) {
			continue
		}
		out = append(out, cloneProcess(p))
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !ascending {
			a, b = b, a
		}
		if !a.RecordedAt.Equal(b.RecordedAt) {
			return a.RecordedAt.Before(b.RecordedAt)
		}
		return a.ID < b.ID
	})
	return out
}

func (m *MemoryStore) ListProcessData(_ context.Context, opts ProcessListOpts) ([]ProcessData, error) {
	return page(m.filterProcess(opts.FurnaceID, opts.Since, opts.Ascending), opts.Limit, opts.Offset), nil
}

func (m *MemoryStore) DeleteProcessData(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.process[id]; !ok {
		return fmt.Errorf("process data %s: %w", id, ErrNotFound)
	}
	delete(m.process, id)
	return nil
}

func (m *MemoryStore) FetchRecentSamples(_ context.Context, windowHours int, furnaceID string) ([]ProcessData, error) {
	return m.filterProcess(furnaceID, windowStart(m.now(), windowHours), true), nil
}

func (m *MemoryStore) PutInventory(_ context.Context, it InventoryItem) (InventoryItem, error) {
	it, err := prepareInventory(it, m.now())
	if err != nil {
		return InventoryItem{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inventory[it.ID] = it
	return it, nil
}

func (m *MemoryStore) GetInventory(_ context.Context, id string) (InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.inventory[id]
	if !ok {
		return InventoryItem{}, fmt.Errorf("inventory item %s: %w", id, ErrNotFound)
	}
	return it, nil
}

func (m *MemoryStore) ListInventory(_ context.Context) ([]InventoryItem, error) {
	m.mu.RLock()
	out := make([]InventoryItem, 0, len(m.inventory))
	for _, it := range m.inventory {
		out = append(out, it)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].MaterialName != out[j].MaterialName {
			return out[i].MaterialName < out[j].MaterialName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) DeleteInventory(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.inventory[id]; !ok {
		return fmt.Errorf("inventory item %s: %w", id, ErrNotFound)
	}
	delete(m.inventory, id)
	return nil
}

func (m *MemoryStore) FetchLowStock(_ context.Context, threshold float64) ([]InventoryItem, error) {
	m.mu.RLock()
	out := []InventoryItem{}
	for _, it := range m.inventory {
		if it.Quantity < threshold {
			out = append(out, it)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func cloneAlert(a Alert) Alert {
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		a.ResolvedAt = &t
	}
	return a
}

func (m *MemoryStore) CreateAlert(_ context.Context, a Alert) (Alert, error) {
	a, err := prepareAlert(a, m.now())
	if err != nil {
		return Alert{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.alerts[a.ID]; dup {
		return Alert{}, fmt.Errorf("%w: duplicate id %s", ErrInvalid, a.ID)
	}
	m.alerts[a.ID] = a
	return a, nil
}

func (m *MemoryStore) GetAlert(_ context.Context, id string) (Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.alerts[id]
	if !ok {
		return Alert{}, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	return cloneAlert(a), nil
}

func (m *MemoryStore) ListAlerts(_ context.Context, activeOnly bool) ([]Alert, error) {
	m.mu.RLock()
	out := []Alert{}
	for _, a := range m.alerts {
		if activeOnly && a.Resolved {
			continue
		}
		out = append(out, cloneAlert(a))
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) ResolveAlert(_ context.Context, id string, at time.Time) (Alert, error) {
	if at.IsZero() {
		at = m.now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return Alert{}, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	}
	if !a.Resolved {
		a.Resolved = true
		a.ResolvedAt = &at
		m.alerts[id] = a
	}
	return cloneAlert(a), nil
}

func (m *MemoryStore) CountActiveAlerts(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, a := range m.alerts {
		if !a.Resolved {
			n++
		}
	}
	return n, nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)
)
