package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ficlab/fic-etl/internal/fic"
)

// FundSummary is the flat view used by listings and exports.
type FundSummary struct {
	ID           int64
	NombreFIC    string
	Gestor       string
	Custodio     string
	FechaCorte   string
	Calificacion string
	Calificadora string
}

type FundRepository interface {
	// Upsert persists one normalized fund record keyed by
	// (nombre_fic, fecha_corte). Re-loading the same record replaces the
	// previous rows instead of duplicating them.
	Upsert(ctx context.Context, rec *fic.FundRecord, filename string) (int64, error)
	List(ctx context.Context, from, to *time.Time) ([]FundSummary, error)
}

type fundRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewFundRepository(db *sql.DB, logger *slog.Logger) FundRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &fundRepository{db: db, logger: logger}
}

var childTables = []string{
	"composicion_portafolio",
	"plazo_duracion",
	"caracteristicas",
	"calificacion",
	"principales_inversiones",
	"rentabilidad_historica",
	"volatilidad_historica",
	"raw_json",
}

func (r *fundRepository) Upsert(ctx context.Context, rec *fic.FundRecord, filename string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var ficID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO fic (nombre_fic, gestor, custodio, fecha_corte, politica_de_inversion)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (nombre_fic, fecha_corte) DO UPDATE SET
			gestor = excluded.gestor,
			custodio = excluded.custodio,
			politica_de_inversion = excluded.politica_de_inversion
		RETURNING id`,
		rec.FIC.NombreFIC, rec.FIC.Gestor, rec.FIC.Custodio, rec.FIC.FechaCorte, rec.FIC.Politica,
	).Scan(&ficID)
	if err != nil {
		return 0, fmt.Errorf("upsert fic: %w", err)
	}

	// replace child rows so the upsert is idempotent
	for _, table := range childTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE fic_id = $1", ficID); err != nil {
			return 0, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := r.insertComposicion(ctx, tx, ficID, rec); err != nil {
		return 0, err
	}
	for _, p := range rec.PlazoDuracion {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO plazo_duracion (fic_id, plazo, participacion) VALUES ($1, $2, $3)`,
			ficID, p.Label, p.Participacion); err != nil {
			return 0, fmt.Errorf("insert plazo_duracion: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO caracteristicas (fic_id, tipo, valor, fecha_inicio_operaciones, no_unidades_en_circulacion)
		 VALUES ($1, $2, $3, $4, $5)`,
		ficID, rec.Caract.Tipo, rec.Caract.Valor, rec.Caract.FechaInicioOperaciones, rec.Caract.UnidadesEnCirculacion); err != nil {
		return 0, fmt.Errorf("insert caracteristicas: %w", err)
	}
	if rec.Calificacion != (fic.Calificacion{}) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO calificacion (fic_id, calificacion, fecha_ultima_calificacion, entidad_calificadora, entidad_calificadora_normalizada)
			 VALUES ($1, $2, $3, $4, $5)`,
			ficID, rec.Calificacion.Calificacion, rec.Calificacion.FechaUltimaCalificacion,
			rec.Calificacion.EntidadCalificadora, rec.Calificacion.EntidadNormalizada); err != nil {
			return 0, fmt.Errorf("insert calificacion: %w", err)
		}
	}
	for _, inv := range rec.Inversiones {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO principales_inversiones (fic_id, emisor, participacion) VALUES ($1, $2, $3)`,
			ficID, inv.Emisor, inv.Participacion); err != nil {
			return 0, fmt.Errorf("insert principales_inversiones: %w", err)
		}
	}
	for _, rv := range rec.Rentabilidad {
		if err := insertWindows(ctx, tx, "rentabilidad_historica", ficID, rv.TipoDeParticipacion, rv.Rentabilidad); err != nil {
			return 0, err
		}
		if err := insertWindows(ctx, tx, "volatilidad_historica", ficID, rv.TipoDeParticipacion, rv.Volatilidad); err != nil {
			return 0, err
		}
	}

	// keep the normalized document alongside the relational rows
	doc, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("marshal record: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO raw_json (fic_id, json_data, tipo, filename) VALUES ($1, $2, $3, $4)`,
		ficID, string(doc), "transformed", filename); err != nil {
		return 0, fmt.Errorf("insert raw_json: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	r.logger.Info("fund upserted",
		"fic_id", ficID, "fund", rec.FIC.NombreFIC, "cutoff", rec.FIC.FechaCorte, "filename", filename)
	return ficID, nil
}

func (r *fundRepository) insertComposicion(ctx context.Context, tx *sql.Tx, ficID int64, rec *fic.FundRecord) error {
	groups := []struct {
		tipo   string
		shares []fic.Share
	}{
		{"activo", rec.Composicion.PorActivo},
		{"tipo_renta", rec.Composicion.PorTipoDeRenta},
		{"sector_economico", rec.Composicion.PorSectorEconomico},
		{"pais_emisor", rec.Composicion.PorPaisEmisor},
		{"moneda", rec.Composicion.PorMoneda},
		{"calificacion", rec.Composicion.PorCalificacion},
	}
	for _, g := range groups {
		for _, s := range g.shares {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO composicion_portafolio (fic_id, tipo_composicion, categoria, participacion)
				 VALUES ($1, $2, $3, $4)`,
				ficID, g.tipo, s.Label, s.Participacion); err != nil {
				return fmt.Errorf("insert composicion_portafolio: %w", err)
			}
		}
	}
	return nil
}

func insertWindows(ctx context.Context, tx *sql.Tx, table string, ficID int64, tipo string, w fic.Windows) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO `+table+` (fic_id, tipo_participacion, ultimo_mes, ultimos_6_meses, anio_corrido, ultimo_anio, ultimos_2_anios, ultimos_3_anios)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ficID, tipo, w.UltimoMes, w.Ultimos6Meses, w.AnioCorrido, w.UltimoAnio, w.Ultimos2Anios, w.Ultimos3Anios)
	if err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

func (r *fundRepository) List(ctx context.Context, from, to *time.Time) ([]FundSummary, error) {
	q := `SELECT f.id, f.nombre_fic, f.gestor, COALESCE(f.custodio, ''), f.fecha_corte,
	             COALESCE(c.calificacion, ''), COALESCE(c.entidad_calificadora_normalizada, '')
	      FROM fic f
	      LEFT JOIN calificacion c ON c.fic_id = f.id`
	var args []any
	var conds []string
	if from != nil {
		args = append(args, from.Format("2006-01-02"))
		conds = append(conds, fmt.Sprintf("f.fecha_corte >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, to.Format("2006-01-02"))
		conds = append(conds, fmt.Sprintf("f.fecha_corte <= $%d", len(args)))
	}
	for i, c := range conds {
		if i == 0 {
			q += " WHERE " + c
		} else {
			q += " AND " + c
		}
	}
	q += " ORDER BY f.fecha_corte, f.nombre_fic"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to list funds", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []FundSummary
	for rows.Next() {
		var s FundSummary
		if err := rows.Scan(&s.ID, &s.NombreFIC, &s.Gestor, &s.Custodio, &s.FechaCorte, &s.Calificacion, &s.Calificadora); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
