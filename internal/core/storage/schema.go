package storage

import (
	"context"
	"fmt"
)

func (p *Postgres) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  is_admin BOOLEAN NOT NULL DEFAULT FALSE,
  active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS conductors (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  zone TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  access_code_hash TEXT NOT NULL DEFAULT '',
  active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  UNIQUE (owner_id, name)
)`,
		`CREATE INDEX IF NOT EXISTS idx_conductors_owner_id ON conductors(owner_id)`,
		`
CREATE TABLE IF NOT EXISTS packages (
  id TEXT PRIMARY KEY,
  tracking TEXT NOT NULL UNIQUE,
  conductor_id TEXT NOT NULL REFERENCES conductors(id) ON DELETE CASCADE,
  shipment_type TEXT NOT NULL,
  status INT NOT NULL DEFAULT 0,
  due_date TIMESTAMPTZ NOT NULL,
  delivered_at TIMESTAMPTZ NULL,
  value DOUBLE PRECISION NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_packages_conductor_id ON packages(conductor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_packages_due_date ON packages(due_date)`,
		`
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  conductor_id TEXT NOT NULL REFERENCES conductors(id) ON DELETE CASCADE,
  owner_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  message TEXT NOT NULL,
  package_id TEXT NULL,
  is_read BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_conductor_created ON notifications(conductor_id, created_at DESC)`,
		`
CREATE TABLE IF NOT EXISTS admin_operations_history (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  operation_type TEXT NOT NULL,
  description TEXT NOT NULL,
  details JSONB NULL,
  affected_records INT NOT NULL DEFAULT 0,
  can_undo BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_admin_operations_history_created ON admin_operations_history(created_at DESC)`,
	}

	for _, q := range stmts {
		if _, err := p.Pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}
