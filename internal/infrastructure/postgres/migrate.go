package postgres

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // driver postgres://
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jhoicas/medstock-api/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate aplica las migraciones embebidas. ErrNoChange no es error.
func Migrate(dbURL string, verbose bool, log *logger.Logger) error {
	log.Info().Msg("aplicando migraciones")

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("leer migraciones: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return fmt.Errorf("iniciar migrate: %w", err)
	}
	defer m.Close()
	m.Log = &migrateLogger{log: log, verbose: verbose}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("migraciones: sin cambios")
			return nil
		}
		log.Error().Err(err).Msg("migraciones fallidas")
		return fmt.Errorf("migrate up: %w", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("migraciones aplicadas")
	}
	return nil
}

// migrateLogger adapta el logger de la app a migrate.Logger.
type migrateLogger struct {
	log     *logger.Logger
	verbose bool
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.log.Debug().Msgf("migrate: "+strings.TrimRight(format, "\n"), v...)
}

func (l *migrateLogger) Verbose() bool {
	return l.verbose
}
