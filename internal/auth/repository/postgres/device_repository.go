package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/NeuroDev204/Neuro-bank/internal/auth/domain"
)

type DeviceRepository struct {
	db PgxPool
}

func NewDeviceRepository(db PgxPool) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) GetByUserAndFingerprint(ctx context.Context, userID, fingerprint string) (*domain.Device, error) {
	query := `
		SELECT id, user_id, device_fingerprint, device_name, device_type, trusted,
		       trusted_at, last_ip_address, last_seen_at, login_count, created_at
		FROM user_devices
		WHERE user_id = $1 AND device_fingerprint = $2
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, userID, fingerprint)

	var d domain.Device
	err := row.Scan(&d.ID, &d.UserID, &d.Fingerprint, &d.Name, &d.Type, &d.Trusted,
		&d.TrustedAt, &d.LastIPAddress, &d.LastSeenAt, &d.LoginCount, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return &d, nil
}

func (r *DeviceRepository) Create(ctx context.Context, device *domain.Device) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_devices (id, user_id, device_fingerprint, device_name, device_type,
			trusted, last_ip_address, last_seen_at, login_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9)
		ON CONFLICT (user_id, device_fingerprint) DO NOTHING
	`, device.ID, device.UserID, device.Fingerprint, device.Name, device.Type,
		device.Trusted, device.LastIPAddress, device.LastSeenAt, device.CreatedAt)

	return err
}

func (r *DeviceRepository) MarkTrusted(ctx context.Context, userID, fingerprint string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE user_devices
		SET trusted = TRUE, trusted_at = $3
		WHERE user_id = $1 AND device_fingerprint = $2
	`, userID, fingerprint, at)

	return err
}

func (r *DeviceRepository) RecordSeen(ctx context.Context, userID, fingerprint, ip string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE user_devices
		SET last_seen_at = $3, last_ip_address = $4, login_count = login_count + 1
		WHERE user_id = $1 AND device_fingerprint = $2
	`, userID, fingerprint, at, ip)

	return err
}

func (r *DeviceRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Device, error) {
	query := `
		SELECT id, user_id, device_fingerprint, device_name, device_type, trusted,
		       trusted_at, last_ip_address, last_seen_at, login_count, created_at
		FROM user_devices
		WHERE user_id = $1
		ORDER BY last_seen_at DESC;
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []*domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.ID, &d.UserID, &d.Fingerprint, &d.Name, &d.Type, &d.Trusted,
			&d.TrustedAt, &d.LastIPAddress, &d.LastSeenAt, &d.LoginCount, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, &d)
	}

	return devices, rows.Err()
}
