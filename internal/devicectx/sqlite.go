package devicectx

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteResolver implements Resolver over the device database: one row per
// registered device and an append-only sensor reading log.
type SQLiteResolver struct {
	db     *sql.DB
	logger zerolog.Logger
}

// OpenSQLite opens the device database at path and verifies the connection.
func OpenSQLite(path string, logger zerolog.Logger) (*SQLiteResolver, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening device database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to device database: %w", err)
	}
	return NewSQLiteResolver(db, logger), nil
}

// NewSQLiteResolver wraps an existing database handle.
func NewSQLiteResolver(db *sql.DB, logger zerolog.Logger) *SQLiteResolver {
	return &SQLiteResolver{
		db:     db,
		logger: logger.With().Str("component", "devicectx").Logger(),
	}
}

// Resolve looks up the device owner and the most recent sensor reading and
// formats them as a context blob for the system prompt.
func (r *SQLiteResolver) Resolve(ctx context.Context, deviceSerial string, onlyTemperature, onlyHumidity bool) (string, string, error) {
	var ownerName sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT owner_name FROM devices WHERE serial = ?
	`, deviceSerial).Scan(&ownerName)
	if err == sql.ErrNoRows {
		return "", "", ErrDeviceNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("querying device %s: %w", deviceSerial, err)
	}

	var temperature, humidity sql.NullFloat64
	err = r.db.QueryRowContext(ctx, `
		SELECT temperature, humidity FROM sensor_readings
		WHERE device_serial = ?
		ORDER BY recorded_at DESC LIMIT 1
	`, deviceSerial).Scan(&temperature, &humidity)
	if err != nil && err != sql.ErrNoRows {
		return "", "", fmt.Errorf("querying readings for %s: %w", deviceSerial, err)
	}

	var lines []string
	if temperature.Valid && !onlyHumidity {
		lines = append(lines, fmt.Sprintf("현재 온도: %.1f도", temperature.Float64))
	}
	if humidity.Valid && !onlyTemperature {
		lines = append(lines, fmt.Sprintf("현재 습도: %.0f%%", humidity.Float64))
	}

	r.logger.Debug().
		Str("serial", deviceSerial).
		Bool("only_temperature", onlyTemperature).
		Bool("only_humidity", onlyHumidity).
		Int("lines", len(lines)).
		Msg("Device context resolved")

	return strings.Join(lines, "\n"), ownerName.String, nil
}

// Close releases the database connection.
func (r *SQLiteResolver) Close() error {
	return r.db.Close()
}
