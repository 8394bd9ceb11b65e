// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resdb stores the verdicts of regression runs in a MySQL database.
package resdb // import "github.com/go-lpc/acqreg/resdb"

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
)

var (
	usr  = os.Getenv("ACQREG_DB_USER")
	pwd  = os.Getenv("ACQREG_DB_PASS")
	host = getenv("ACQREG_DB_HOST", "localhost:3306")

	drvName = "mysql"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// DB is the verdicts database.
type DB struct {
	db   *sql.DB
	name string
}

// Open opens a connection to the verdicts database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("resdb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db: db, name: dbname}, nil
}

// New wraps an already opened database.
func New(db *sql.DB) *DB {
	return &DB{db: db}
}

func dsn(dbname string) string {
	cfg := mysql.NewConfig()
	cfg.User = usr
	cfg.Passwd = pwd
	cfg.Net = "tcp"
	cfg.Addr = host
	cfg.DBName = dbname
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("resdb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

const insertVerdict = `INSERT INTO verdicts (run, iter, test, mode, trigger_spec, event_spec, unit, chan, kind, status, detail) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Record inserts a verdict and returns its row identifier.
func (db *DB) Record(ctx context.Context, v Verdict) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := db.db.ExecContext(
		ctx, insertVerdict,
		v.Run, v.Iter, v.Test, v.Mode, v.Trigger, v.Event,
		v.Unit, v.Chan, v.Kind, v.Status, v.Detail,
	)
	if err != nil {
		return 0, fmt.Errorf("resdb: could not insert verdict: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resdb: could not retrieve verdict id: %w", err)
	}
	return id, nil
}

// RecordAll inserts all verdicts within a single transaction.
func (db *DB) RecordAll(ctx context.Context, vs []Verdict) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("resdb: could not start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, v := range vs {
		_, err = tx.ExecContext(
			ctx, insertVerdict,
			v.Run, v.Iter, v.Test, v.Mode, v.Trigger, v.Event,
			v.Unit, v.Chan, v.Kind, v.Status, v.Detail,
		)
		if err != nil {
			return fmt.Errorf("resdb: could not insert verdict %d: %w", i, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("resdb: could not commit verdicts: %w", err)
	}
	return nil
}

// LastRun returns the most recent run number, or 0 for an empty database.
func (db *DB) LastRun(ctx context.Context) (uint32, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var run uint32
	rows, err := db.db.QueryContext(ctx, "SELECT run FROM verdicts ORDER BY run DESC LIMIT 1")
	if err != nil {
		return run, fmt.Errorf("resdb: could not query last run: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(&run)
		if err != nil {
			return run, fmt.Errorf("resdb: could not get last run value: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return run, fmt.Errorf("resdb: could not scan db for last run: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return run, fmt.Errorf("resdb: context error while retrieving last run: %w", err)
	}

	return run, nil
}

// Verdicts returns the verdicts of a run.
func (db *DB) Verdicts(ctx context.Context, run uint32) ([]Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var vs []Verdict
	rows, err := db.db.QueryContext(
		ctx,
		`
SELECT run, iter, test, mode, trigger_spec, event_spec, unit, chan, kind, status, detail
FROM verdicts
WHERE run=?
ORDER BY identifier
`,
		run,
	)
	if err != nil {
		return vs, fmt.Errorf("resdb: could not run verdicts query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v Verdict
		err = rows.Scan(
			&v.Run, &v.Iter, &v.Test, &v.Mode, &v.Trigger, &v.Event,
			&v.Unit, &v.Chan, &v.Kind, &v.Status, &v.Detail,
		)
		if err != nil {
			return vs, fmt.Errorf("resdb: could not scan verdict %d: %w", len(vs), err)
		}
		vs = append(vs, v)
	}

	if err := rows.Err(); err != nil {
		return vs, fmt.Errorf("resdb: could not scan db for verdicts: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return vs, fmt.Errorf("resdb: context error while retrieving verdicts: %w", err)
	}

	return vs, nil
}
