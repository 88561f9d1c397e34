// Package migrations встраивает SQL миграции сервиса и применяет их.
//
// Сервису принадлежат только таблицы alert_logs и notifications.
// Таблицы alert_rules, users и notification_preferences ведет основной
// backend - их миграций здесь нет.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// FS содержит встроенные SQL миграции
//
//go:embed *.sql
var FS embed.FS

// Run применяет все ожидающие миграции
func Run(db *sql.DB) error {
	goose.SetBaseFS(FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
