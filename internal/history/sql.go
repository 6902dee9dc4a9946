package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// sqlStore implements Store over database/sql. Queries are written with ?
// placeholders; bind rewrites them for drivers that number parameters.
type sqlStore struct {
	db       *sql.DB
	numbered bool
	// seq is the column List orders by. It must grow with every insert so
	// records that share a timestamp keep their append order.
	seq      string
	// upgrades run after the table exists, for dialect-specific columns.
	upgrades []string
}

const recordColumns = `id, pinned, name, created_at, source, conc, fat, ph, stab, whc, sol, score`

func (s *sqlStore) bind(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS formulations (
			id         TEXT PRIMARY KEY,
			pinned     BOOLEAN NOT NULL DEFAULT FALSE,
			name       TEXT NOT NULL,
			created_at TEXT NOT NULL,
			source     TEXT NOT NULL,
			conc       DOUBLE PRECISION NOT NULL,
			fat        DOUBLE PRECISION NOT NULL,
			ph         DOUBLE PRECISION NOT NULL,
			stab       DOUBLE PRECISION NOT NULL,
			whc        DOUBLE PRECISION NOT NULL DEFAULT 0,
			sol        DOUBLE PRECISION NOT NULL DEFAULT 0,
			score      DOUBLE PRECISION NOT NULL
		)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	for _, stmt := range s.upgrades {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	_, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_formulations_created ON formulations(created_at)`)
	return err
}

func (s *sqlStore) Append(ctx context.Context, rec Record, name string) (string, error) {
	rec = prepare(rec, name)
	_, err := s.db.ExecContext(ctx, s.bind(
		`INSERT INTO formulations (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.ID, rec.Pinned, rec.Name, rec.Timestamp, rec.Source,
		rec.Conc, rec.Fat, rec.PH, rec.Stab, rec.WHC, rec.Sol, rec.Score,
	)
	if err != nil {
		return "", fmt.Errorf("history: insert %q: %w", rec.ID, err)
	}
	return rec.ID, nil
}

func (s *sqlStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM formulations ORDER BY `+s.seq)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	return records, nil
}

func (s *sqlStore) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, s.bind(`SELECT `+recordColumns+` FROM formulations WHERE id = ?`), id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("history: get %q: %w", id, err)
	}
	return r, nil
}

func (s *sqlStore) Rename(ctx context.Context, id, name string) error {
	n, err := validName(name)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.bind(`UPDATE formulations SET name = ? WHERE id = ?`), n, id)
	return affected(res, err, "rename", id)
}

func (s *sqlStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM formulations WHERE id = ?`), id)
	return affected(res, err, "delete", id)
}

func (s *sqlStore) TogglePin(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback()

	var pinned bool
	err = tx.QueryRowContext(ctx, s.bind(`SELECT pinned FROM formulations WHERE id = ?`), id).Scan(&pinned)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return false, fmt.Errorf("history: pin %q: %w", id, err)
	}
	pinned = !pinned
	if _, err := tx.ExecContext(ctx, s.bind(`UPDATE formulations SET pinned = ? WHERE id = ?`), pinned, id); err != nil {
		return false, fmt.Errorf("history: pin %q: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("history: commit: %w", err)
	}
	return pinned, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.Pinned, &r.Name, &r.Timestamp, &r.Source,
		&r.Conc, &r.Fat, &r.PH, &r.Stab, &r.WHC, &r.Sol, &r.Score)
	return r, err
}

func affected(res sql.Result, err error, op, id string) error {
	if err != nil {
		return fmt.Errorf("history: %s %q: %w", op, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("history: %s %q: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return nil
}
