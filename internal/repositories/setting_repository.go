package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"restaurant_pos_backend/internal/models"
)

// SettingRepository stores key/value application settings.
type SettingRepository interface {
	GetSettings(ctx context.Context) ([]models.ApplicationSetting, error)
	GetSetting(ctx context.Context, key string) (*models.ApplicationSetting, error)
	UpsertSetting(ctx context.Context, executor SQLExecutor, setting *models.ApplicationSetting) error
	DeleteSetting(ctx context.Context, executor SQLExecutor, key string) error
}

type settingRepository struct {
	db *sql.DB
}

// NewSettingRepository creates a new instance of SettingRepository.
func NewSettingRepository(db *sql.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) GetSettings(ctx context.Context) ([]models.ApplicationSetting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT setting_key, setting_value, description, updated_at FROM application_settings ORDER BY setting_key`)
	if err != nil {
		return nil, wrapDBError(err, "listing settings")
	}
	defer rows.Close()

	settings := []models.ApplicationSetting{}
	for rows.Next() {
		var s models.ApplicationSetting
		if err := rows.Scan(&s.SettingKey, &s.SettingValue, &s.Description, &s.UpdatedAt); err != nil {
			return nil, wrapDBError(err, "scanning setting row")
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err, "iterating setting rows")
	}
	return settings, nil
}

func (r *settingRepository) GetSetting(ctx context.Context, key string) (*models.ApplicationSetting, error) {
	s := &models.ApplicationSetting{}
	err := r.db.QueryRowContext(ctx,
		`SELECT setting_key, setting_value, description, updated_at FROM application_settings WHERE setting_key = $1`, key,
	).Scan(&s.SettingKey, &s.SettingValue, &s.Description, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, fmt.Sprintf("getting setting %s", key))
	}
	return s, nil
}

func (r *settingRepository) UpsertSetting(ctx context.Context, executor SQLExecutor, setting *models.ApplicationSetting) error {
	query := `INSERT INTO application_settings (setting_key, setting_value, description)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (setting_key) DO UPDATE
	          SET setting_value = EXCLUDED.setting_value,
	              description = COALESCE(EXCLUDED.description, application_settings.description),
	              updated_at = NOW()
	          RETURNING description, updated_at`
	err := executor.QueryRowContext(ctx, query, setting.SettingKey, setting.SettingValue, setting.Description).
		Scan(&setting.Description, &setting.UpdatedAt)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("saving setting %s", setting.SettingKey))
	}
	return nil
}

func (r *settingRepository) DeleteSetting(ctx context.Context, executor SQLExecutor, key string) error {
	res, err := executor.ExecContext(ctx, `DELETE FROM application_settings WHERE setting_key = $1`, key)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("deleting setting %s", key))
	}
	return expectAffected(res, fmt.Sprintf("deleting setting %s", key))
}
