package adapters

import (
	"context"
	"fmt"

	"barulogix/internal/features/conductors/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresHistoryRecorder implements ports.HistoryRecorder against the
// append-only audit table.
type PostgresHistoryRecorder struct {
	db *pgxpool.Pool
}

// NewPostgresHistoryRecorder creates a new PostgresHistoryRecorder.
func NewPostgresHistoryRecorder(db *pgxpool.Pool) *PostgresHistoryRecorder {
	return &PostgresHistoryRecorder{db: db}
}

// Record appends one audit entry. Purges are never undoable.
func (r *PostgresHistoryRecorder) Record(ctx context.Context, e ports.HistoryEntry) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO admin_operations_history (id, user_id, operation_type, description, details, affected_records, can_undo, created_at)
VALUES ($1,$2,$3,$4,$5,$6,FALSE,now())
`, uuid.NewString(), e.UserID, e.OperationType, e.Description, e.Details, e.AffectedRecords)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}
