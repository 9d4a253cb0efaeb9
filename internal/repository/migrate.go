package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the fund tables if they do not exist. The only dialect
// differences are the id column and the json column type.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	jsonCol := "TEXT"
	if dialect == Postgres {
		id = "BIGINT PRIMARY KEY GENERATED BY DEFAULT AS IDENTITY"
		jsonCol = "JSONB"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS fic (
			id %s,
			nombre_fic VARCHAR(255) NOT NULL,
			gestor VARCHAR(255) NOT NULL,
			custodio VARCHAR(255),
			fecha_corte VARCHAR(10) NOT NULL,
			politica_de_inversion TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, id),
		`CREATE UNIQUE INDEX IF NOT EXISTS fic_nombre_fecha_idx ON fic (nombre_fic, fecha_corte)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS composicion_portafolio (
			id %s,
			fic_id BIGINT NOT NULL,
			tipo_composicion VARCHAR(50) NOT NULL,
			categoria VARCHAR(255) NOT NULL,
			participacion DOUBLE PRECISION,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, id),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS plazo_duracion (
			id %s,
			fic_id BIGINT NOT NULL,
			plazo VARCHAR(100) NOT NULL,
			participacion DOUBLE PRECISION,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, id),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS caracteristicas (
			id %s,
			fic_id BIGINT NOT NULL,
			tipo VARCHAR(100),
			valor DOUBLE PRECISION,
			fecha_inicio_operaciones VARCHAR(10),
			no_unidades_en_circulacion DOUBLE PRECISION,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, id),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS calificacion (
			id %s,
			fic_id BIGINT NOT NULL,
			calificacion VARCHAR(50),
			fecha_ultima_calificacion VARCHAR(10),
			entidad_calificadora VARCHAR(255),
			entidad_calificadora_normalizada VARCHAR(255),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, id),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS principales_inversiones (
			id %s,
			fic_id BIGINT NOT NULL,
			emisor VARCHAR(255),
			participacion DOUBLE PRECISION,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, id),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rentabilidad_historica (
			id %s,
			fic_id BIGINT NOT NULL,
			tipo_participacion VARCHAR(50) NOT NULL,
			ultimo_mes DOUBLE PRECISION,
			ultimos_6_meses DOUBLE PRECISION,
			anio_corrido DOUBLE PRECISION,
			ultimo_anio DOUBLE PRECISION,
			ultimos_2_anios DOUBLE PRECISION,
			ultimos_3_anios DOUBLE PRECISION,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, id),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS volatilidad_historica (
			id %s,
			fic_id BIGINT NOT NULL,
			tipo_participacion VARCHAR(50) NOT NULL,
			ultimo_mes DOUBLE PRECISION,
			ultimos_6_meses DOUBLE PRECISION,
			anio_corrido DOUBLE PRECISION,
			ultimo_anio DOUBLE PRECISION,
			ultimos_2_anios DOUBLE PRECISION,
			ultimos_3_anios DOUBLE PRECISION,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, id),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS raw_json (
			id %s,
			fic_id BIGINT NOT NULL,
			json_data %s,
			tipo VARCHAR(20),
			filename VARCHAR(255),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, id, jsonCol),
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
