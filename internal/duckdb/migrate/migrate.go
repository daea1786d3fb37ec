// Package migrate applies the versioned schema of the event cache.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Runner applies numbered SQL files (NNN_name.sql) in version order and
// records each one in schema_migrations.
type Runner struct {
	db    *sql.DB
	files fs.FS
	dir   string
}

// NewRunner creates a runner over the embedded event cache migrations.
func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db, files: embedded, dir: "migrations"}
}

// WithFS swaps the migration source, rooted at dir inside files.
func (r *Runner) WithFS(files fs.FS, dir string) *Runner {
	return &Runner{db: r.db, files: files, dir: dir}
}

type step struct {
	version int
	name    string
	body    string
}

func (r *Runner) steps() ([]step, error) {
	entries, err := fs.ReadDir(r.files, r.dir)
	if err != nil {
		return nil, fmt.Errorf("migrate: reading %s: %w", r.dir, err)
	}

	seen := make(map[int]string)
	var out []step
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migrate: version of %s: %w", e.Name(), err)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrate: %s and %s share version %d", prev, e.Name(), version)
		}
		seen[version] = e.Name()
		body, err := fs.ReadFile(r.files, path.Join(r.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("migrate: reading %s: %w", e.Name(), err)
		}
		out = append(out, step{version: version, name: e.Name(), body: string(body)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func (r *Runner) ensureTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       VARCHAR NOT NULL,
		applied_at TIMESTAMP DEFAULT current_timestamp
	)`)
	if err != nil {
		return fmt.Errorf("migrate: creating schema_migrations: %w", err)
	}
	return nil
}

// Version reports the highest applied migration, 0 when none ran.
func (r *Runner) Version(ctx context.Context) (int, error) {
	if err := r.ensureTable(ctx); err != nil {
		return 0, err
	}
	var v sql.NullInt64
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return 0, fmt.Errorf("migrate: reading version: %w", err)
	}
	return int(v.Int64), nil
}

// Pending lists the names of migrations newer than the applied version.
func (r *Runner) Pending(ctx context.Context) ([]string, error) {
	current, err := r.Version(ctx)
	if err != nil {
		return nil, err
	}
	steps, err := r.steps()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, s := range steps {
		if s.version > current {
			names = append(names, s.name)
		}
	}
	return names, nil
}

// Run applies every pending migration, each in its own transaction.
func (r *Runner) Run(ctx context.Context) error {
	current, err := r.Version(ctx)
	if err != nil {
		return err
	}
	steps, err := r.steps()
	if err != nil {
		return err
	}

	for _, s := range steps {
		if s.version <= current {
			continue
		}
		if err := r.apply(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) apply(ctx context.Context, s step) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin %s: %w", s.name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.body); err != nil {
		return fmt.Errorf("migrate: executing %s: %w", s.name, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", s.version, s.name); err != nil {
		return fmt.Errorf("migrate: recording %s: %w", s.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit %s: %w", s.name, err)
	}
	return nil
}
