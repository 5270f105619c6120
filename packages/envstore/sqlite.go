package envstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/courierhq/courier/packages/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS environments (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	is_active  INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS environment_variables (
	environment_id TEXT NOT NULL REFERENCES environments(id) ON DELETE CASCADE,
	name           TEXT NOT NULL,
	value          TEXT NOT NULL,
	PRIMARY KEY (environment_id, name)
);

CREATE TABLE IF NOT EXISTS collections (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS requests (
	id             TEXT PRIMARY KEY,
	collection_id  TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
	position       INTEGER NOT NULL,
	name           TEXT NOT NULL,
	method         TEXT NOT NULL,
	url            TEXT NOT NULL,
	headers        TEXT NOT NULL DEFAULT '{}',
	body           TEXT NOT NULL DEFAULT '',
	body_type      TEXT NOT NULL DEFAULT 'none',
	pre_script     TEXT NOT NULL DEFAULT '',
	post_script    TEXT NOT NULL DEFAULT '',
	tests          TEXT NOT NULL DEFAULT '',
	path_variables TEXT NOT NULL DEFAULT '{}',
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);
`

// SQLiteStore is the durable persistence collaborator: CRUD over
// collections, requests, and environments by identifier.
type SQLiteStore struct {
	db      *sql.DB
	timeout time.Duration
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStore{db: db, timeout: 10 * time.Second}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) init() error {
	ctx, cancel := s.ctx()
	defer cancel()
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *SQLiteStore) SaveEnvironment(env *model.Environment) error {
	ctx, cancel := s.ctx()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO environments (id, name, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, is_active=excluded.is_active, updated_at=excluded.updated_at`,
		env.ID, env.Name, boolToInt(env.IsActive), env.CreatedAt, env.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save environment: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM environment_variables WHERE environment_id = ?`, env.ID); err != nil {
		return err
	}
	for name, value := range env.Variables {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO environment_variables (environment_id, name, value) VALUES (?, ?, ?)`,
			env.ID, name, value); err != nil {
			return fmt.Errorf("failed to save variable %s: %w", name, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetEnvironment(id string) (*model.Environment, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	env := &model.Environment{ID: id, Variables: make(map[string]string)}
	var active int
	err := s.db.QueryRowContext(ctx, `
		SELECT name, is_active, created_at, updated_at FROM environments WHERE id = ?`, id).
		Scan(&env.Name, &active, &env.CreatedAt, &env.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("environment not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	env.IsActive = active != 0

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, value FROM environment_variables WHERE environment_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		env.Variables[name] = value
	}
	return env, rows.Err()
}

func (s *SQLiteStore) ListEnvironments() ([]*model.Environment, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM environments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	envs := make([]*model.Environment, 0, len(ids))
	for _, id := range ids {
		env, err := s.GetEnvironment(id)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return envs, nil
}

func (s *SQLiteStore) DeleteEnvironment(id string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.db.ExecContext(ctx, `DELETE FROM environments WHERE id = ?`, id)
	return err
}

// Activate marks one environment active, clearing the flag everywhere else
// in the same transaction.
func (s *SQLiteStore) Activate(id string) error {
	ctx, cancel := s.ctx()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE environments SET is_active = 0`); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE environments SET is_active = 1, updated_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("environment not found: %s", id)
	}
	return tx.Commit()
}

func (s *SQLiteStore) SetVariable(envID, name, value string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO environment_variables (environment_id, name, value) VALUES (?, ?, ?)
		ON CONFLICT(environment_id, name) DO UPDATE SET value=excluded.value`,
		envID, name, value)
	return err
}

func (s *SQLiteStore) SaveCollection(c *model.Collection) error {
	ctx, cancel := s.ctx()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO collections (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, description=excluded.description, updated_at=excluded.updated_at`,
		c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save collection: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM requests WHERE collection_id = ?`, c.ID); err != nil {
		return err
	}
	for i, req := range c.Requests {
		headers, err := json.Marshal(req.Headers)
		if err != nil {
			return err
		}
		pathVars, err := json.Marshal(req.PathVariables)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO requests (id, collection_id, position, name, method, url, headers, body,
				body_type, pre_script, post_script, tests, path_variables, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			req.ID, c.ID, i, req.Name, string(req.Method), req.URL, string(headers), req.Body,
			string(req.BodyType), req.PreScript, req.PostScript, req.Tests, string(pathVars),
			req.CreatedAt, req.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to save request %s: %w", req.Name, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetCollection(id string) (*model.Collection, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	c := &model.Collection{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT name, description, created_at, updated_at FROM collections WHERE id = ?`, id).
		Scan(&c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("collection not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	// position, not insertion order, defines run order
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, position, name, method, url, headers, body, body_type,
			pre_script, post_script, tests, path_variables, created_at, updated_at
		FROM requests WHERE collection_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		req := &model.HttpRequest{CollectionID: id}
		var position int
		var method, bodyType, headers, pathVars string
		if err := rows.Scan(&req.ID, &position, &req.Name, &method, &req.URL, &headers, &req.Body,
			&bodyType, &req.PreScript, &req.PostScript, &req.Tests, &pathVars,
			&req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, err
		}
		req.Method = model.Method(method)
		req.BodyType = model.BodyType(bodyType)
		if err := json.Unmarshal([]byte(headers), &req.Headers); err != nil {
			return nil, fmt.Errorf("request %s: corrupt headers: %w", req.ID, err)
		}
		if err := json.Unmarshal([]byte(pathVars), &req.PathVariables); err != nil {
			return nil, fmt.Errorf("request %s: corrupt path variables: %w", req.ID, err)
		}
		c.Requests = append(c.Requests, req)
	}
	return c, rows.Err()
}

func (s *SQLiteStore) ListCollections() ([]*model.Collection, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM collections ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	collections := make([]*model.Collection, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetCollection(id)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, nil
}

func (s *SQLiteStore) DeleteCollection(id string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
