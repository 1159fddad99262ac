package postgres

import (
	"context"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
)

type AuditRepository struct {
	db PgxPool
}

func NewAuditRepository(db PgxPool) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, action, entity_type, entity_id, success, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, event.ID, event.UserID, event.Action, event.EntityType, event.EntityID,
		event.Success, event.IPAddress, event.UserAgent, event.CreatedAt)

	return err
}
