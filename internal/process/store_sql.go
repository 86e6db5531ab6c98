package process

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-alloy/internal/alloy"
)

// SQLStore persists records through database/sql. Queries use $n
// placeholders, which both the pgx and modernc sqlite drivers accept.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, driver string, opts ...StoreOption) *SQLStore {
	o := applyOpts(opts)
	return &SQLStore{db: db, driver: driver, now: o.now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "{}", nil
	}
	return string(b), nil
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return err
}

func checkAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

// --- compositions ---

const compositionCols = `id,name,grade,elements_json,properties_json,created_at,updated_at`

func (s *SQLStore) PutComposition(ctx context.Context, c AlloyComposition) (AlloyComposition, error) {
	c, err := prepareComposition(c, s.now())
	if err != nil {
		return AlloyComposition{}, err
	}
	ej, err := encodeJSON(c.Elements)
	if err != nil {
		return AlloyComposition{}, err
	}
	pj, err := encodeJSON(c.Properties)
	if err != nil {
		return AlloyComposition{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO alloy_compositions (`+compositionCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, grade=EXCLUDED.grade,
			elements_json=EXCLUDED.elements_json, properties_json=EXCLUDED.properties_json,
			updated_at=EXCLUDED.updated_at`,
		c.ID, c.Name, c.Grade, ej, pj, toMillis(c.CreatedAt), toMillis(c.UpdatedAt))
	if err != nil {
		return AlloyComposition{}, err
	}
	return s.GetComposition(ctx, c.ID)
}

func scanComposition(r rowScanner) (AlloyComposition, error) {
	var c AlloyComposition
	var ej, pj string
	var created, updated int64
	if err := r.Scan(&c.ID, &c.Name, &c.Grade, &ej, &pj, &created, &updated); err != nil {
		return AlloyComposition{}, err
	}
	c.Elements = alloy.Composition{}
	if err := json.Unmarshal([]byte(ej), &c.Elements); err != nil {
		return AlloyComposition{}, fmt.Errorf("composition %s elements: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(pj), &c.Properties); err != nil {
		return AlloyComposition{}, fmt.Errorf("composition %s properties: %w", c.ID, err)
	}
	c.CreatedAt, c.UpdatedAt = fromMillis(created), fromMillis(updated)
	return c, nil
}

func (s *SQLStore) GetComposition(ctx context.Context, id string) (AlloyComposition, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+compositionCols+` FROM alloy_compositions WHERE id=$1`, id)
	c, err := scanComposition(row)
	if err != nil {
		return AlloyComposition{}, notFound(err, "composition", id)
	}
	return c, nil
}

func (s *SQLStore) ListCompositions(ctx context.Context, opts CompositionListOpts) ([]AlloyComposition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+compositionCols+` FROM alloy_compositions
		WHERE ($1 = '' OR grade = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`,
		opts.Grade, clampLimit(opts.Limit), max(opts.Offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AlloyComposition{}
	for rows.Next() {
		c, err := scanComposition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteComposition(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alloy_compositions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, "composition", id)
}

// --- process data ---

const processCols = `id,furnace_id,temperature,pressure,oxygen_level,composition_json,recorded_at,quality_score`

const insertProcess = `INSERT INTO process_data (` + processCols + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertProcessData(ctx context.Context, x execer, p ProcessData) error {
	cj, err := encodeJSON(p.Composition)
	if err != nil {
		return err
	}
	var qs sql.NullFloat64
	if p.QualityScore != nil {
		qs = sql.NullFloat64{Float64: *p.QualityScore, Valid: true}
	}
	_, err = x.ExecContext(ctx, insertProcess,
		p.ID, p.FurnaceID, p.Temperature, p.Pressure, p.OxygenLevel, cj, toMillis(p.RecordedAt), qs)
	return err
}

func (s *SQLStore) AddProcessData(ctx context.Context, p ProcessData) (ProcessData, error) {
	p, err := prepareProcessData(p, s.now())
	if err != nil {
		return ProcessData{}, err
	}
	if err := insertProcessData(ctx, s.db, p); err != nil {
		return ProcessData{}, err
	}
	return s.GetProcessData(ctx, p.ID)
}

// AddProcessDataBatch inserts every row or none.
func (s *SQLStore) AddProcessDataBatch(ctx context.Context, rows []ProcessData) ([]ProcessData, error) {
	now := s.now()
	prepared := make([]ProcessData, len(rows))
	for i, r := range rows {
		p, err := prepareProcessData(r, now)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		prepared[i] = p
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	for i, p := range prepared {
		if err := insertProcessData(ctx, tx, p); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	for i := range prepared {
		prepared[i].RecordedAt = fromMillis(toMillis(prepared[i].RecordedAt))
	}
	return prepared, nil
}

func scanProcessData(r rowScanner) (ProcessData, error) {
	var p ProcessData
	var cj string
	var recorded int64
	var qs sql.NullFloat64
	if err := r.Scan(&p.ID, &p.FurnaceID, &p.Temperature, &p.Pressure, &p.OxygenLevel, &cj, &recorded, &qs); err != nil {
		return ProcessData{}, err
	}
	p.Composition = alloy.Composition{}
	if err := json.Unmarshal([]byte(cj), &p.Composition); err != nil {
		return ProcessData{}, fmt.Errorf("process data %s composition: %w", p.ID, err)
	}
	p.RecordedAt = fromMillis(recorded)
	if qs.Valid {
		v := qs.Float64
		p.QualityScore = &v
	}
	return p, nil
}

func (s *SQLStore) queryProcessData(ctx context.Context, query string, args ...any) ([]ProcessData, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ProcessData{}
	for rows.Next() {
		p, err := scanProcessData(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetProcessData(ctx context.Context, id string) (ProcessData, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+processCols+` FROM process_data WHERE id=$1`, id)
	p, err := scanProcessData(row)
	if err != nil {
		return ProcessData{}, notFound(err, "process data", id)
	}
	return p, nil
}

func (s *SQLStore) ListProcessData(ctx context.Context, opts ProcessListOpts) ([]ProcessData, error) {
	dir := "DESC"
	if opts.Ascending {
		dir = "ASC"
	}
	var since int64
	if !opts.Since.IsZero() {
		since = toMillis(opts.Since)
	}
	return s.queryProcessData(ctx, `SELECT `+processCols+` FROM process_data
		WHERE ($1 = '' OR furnace_id = $1) AND recorded_at >= $2
		ORDER BY recorded_at `+dir+`, id `+dir+`
		LIMIT $3 OFFSET $4`,
		opts.FurnaceID, since, clampLimit(opts.Limit), max(opts.Offset, 0))
}

func (s *SQLStore) DeleteProcessData(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM process_data WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, "process data", id)
}

func (s *SQLStore) FetchRecentSamples(ctx context.Context, windowHours int, furnaceID string) ([]ProcessData, error) {
	since := windowStart(s.now(), windowHours)
	return s.queryProcessData(ctx, `SELECT `+processCols+` FROM process_data
		WHERE ($1 = '' OR furnace_id = $1) AND recorded_at >= $2
		ORDER BY recorded_at ASC, id ASC`,
		furnaceID, toMillis(since))
}

// --- inventory ---

const inventoryCols = `id,material_name,material_type,quantity,unit,supplier,quality_grade,updated_at`

func scanInventory(r rowScanner) (InventoryItem, error) {
	var it InventoryItem
	var updated int64
	if err := r.Scan(&it.ID, &it.MaterialName, &it.MaterialType, &it.Quantity, &it.Unit, &it.Supplier, &it.QualityGrade, &updated); err != nil {
		return InventoryItem{}, err
	}
	it.UpdatedAt = fromMillis(updated)
	return it, nil
}

func (s *SQLStore) queryInventory(ctx context.Context, query string, args ...any) ([]InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []InventoryItem{}
	for rows.Next() {
		it, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutInventory(ctx context.Context, it InventoryItem) (InventoryItem, error) {
	it, err := prepareInventory(it, s.now())
	if err != nil {
		return InventoryItem{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO inventory (`+inventoryCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET material_name=EXCLUDED.material_name,
			material_type=EXCLUDED.material_type, quantity=EXCLUDED.quantity, unit=EXCLUDED.unit,
			supplier=EXCLUDED.supplier, quality_grade=EXCLUDED.quality_grade, updated_at=EXCLUDED.updated_at`,
		it.ID, it.MaterialName, it.MaterialType, it.Quantity, it.Unit, it.Supplier, it.QualityGrade, toMillis(it.UpdatedAt))
	if err != nil {
		return InventoryItem{}, err
	}
	return s.GetInventory(ctx, it.ID)
}

func (s *SQLStore) GetInventory(ctx context.Context, id string) (InventoryItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+inventoryCols+` FROM inventory WHERE id=$1`, id)
	it, err := scanInventory(row)
	if err != nil {
		return InventoryItem{}, notFound(err, "inventory item", id)
	}
	return it, nil
}

func (s *SQLStore) ListInventory(ctx context.Context) ([]InventoryItem, error) {
	return s.queryInventory(ctx, `SELECT `+inventoryCols+` FROM inventory ORDER BY material_name, id`)
}

func (s *SQLStore) DeleteInventory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM inventory WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, "inventory item", id)
}

func (s *SQLStore) FetchLowStock(ctx context.Context, threshold float64) ([]InventoryItem, error) {
	return s.queryInventory(ctx, `SELECT `+inventoryCols+` FROM inventory
		WHERE quantity < $1 ORDER BY quantity ASC, id`, threshold)
}

// --- alerts ---

const alertCols = `id,title,message,severity,source,is_resolved,created_at,resolved_at`

func scanAlert(r rowScanner) (Alert, error) {
	var a Alert
	var resolved int
	var created int64
	var resolvedAt sql.NullInt64
	if err := r.Scan(&a.ID, &a.Title, &a.Message, &a.Severity, &a.Source, &resolved, &created, &resolvedAt); err != nil {
		return Alert{}, err
	}
	a.Resolved = resolved != 0
	a.CreatedAt = fromMillis(created)
	if resolvedAt.Valid {
		t := fromMillis(resolvedAt.Int64)
		a.ResolvedAt = &t
	}
	return a, nil
}

func (s *SQLStore) CreateAlert(ctx context.Context, a Alert) (Alert, error) {
	a, err := prepareAlert(a, s.now())
	if err != nil {
		return Alert{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO alerts (`+alertCols+`)
		VALUES ($1,$2,$3,$4,$5,0,$6,NULL)`,
		a.ID, a.Title, a.Message, a.Severity, a.Source, toMillis(a.CreatedAt))
	if err != nil {
		return Alert{}, err
	}
	return s.GetAlert(ctx, a.ID)
}

func (s *SQLStore) GetAlert(ctx context.Context, id string) (Alert, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+alertCols+` FROM alerts WHERE id=$1`, id)
	a, err := scanAlert(row)
	if err != nil {
		return Alert{}, notFound(err, "alert", id)
	}
	return a, nil
}

func (s *SQLStore) ListAlerts(ctx context.Context, activeOnly bool) ([]Alert, error) {
	q := `SELECT ` + alertCols + ` FROM alerts`
	if activeOnly {
		q += ` WHERE is_resolved = 0`
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ResolveAlert marks the alert resolved. Resolving twice keeps the first
// resolution time.
func (s *SQLStore) ResolveAlert(ctx context.Context, id string, at time.Time) (Alert, error) {
	if at.IsZero() {
		at = s.now()
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE alerts SET is_resolved=1, resolved_at=$1 WHERE id=$2 AND is_resolved=0`,
		toMillis(at), id); err != nil {
		return Alert{}, err
	}
	return s.GetAlert(ctx, id)
}

func (s *SQLStore) CountActiveAlerts(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts WHERE is_resolved = 0`).Scan(&n)
	return n, err
}
