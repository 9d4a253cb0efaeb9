package repository

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ficlab/fic-etl/internal/fic"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(context.Background(), db, SQLite))
	return db
}

func sampleRecord() *fic.FundRecord {
	return &fic.FundRecord{
		FIC: fic.Header{
			NombreFIC:  "FIC Renta Fija",
			Gestor:     "Fiduciaria X",
			Custodio:   "Banco Y",
			FechaCorte: "2025-06-30",
		},
		PlazoDuracion: []fic.Share{{Label: "0-30 dias", Participacion: 0.4}},
		Composicion: fic.Composicion{
			PorActivo: []fic.Share{
				{Label: "CDT", Participacion: 0.452},
				{Label: "Bonos", Participacion: 0.3},
			},
			PorMoneda: []fic.Share{{Label: "COP", Participacion: 1.0}},
		},
		Caract: fic.Caract{Tipo: "Abierto", Valor: 98452.75},
		Calificacion: fic.Calificacion{
			Calificacion:       "AAA",
			EntidadNormalizada: "Fitch Ratings Colombia",
		},
		Inversiones: []fic.Inversion{{Emisor: "Banco Z", Participacion: 0.075}},
		Rentabilidad: []fic.Rentabilidad{{
			TipoDeParticipacion: "Clase A",
			Rentabilidad:        fic.Windows{UltimoMes: 0.081, UltimoAnio: 0.093},
			Volatilidad:         fic.Windows{UltimoMes: 0.005},
		}},
	}
}

func countRows(t *testing.T, db *sql.DB, table string, ficID int64) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE fic_id = $1", ficID).Scan(&n))
	return n
}

func TestUpsert_PersistsAllSections(t *testing.T) {
	db := openTestDB(t)
	repo := NewFundRepository(db, testLogger())

	ficID, err := repo.Upsert(context.Background(), sampleRecord(), "fondo1_transformed.json")
	require.NoError(t, err)
	require.NotZero(t, ficID)

	assert.Equal(t, 3, countRows(t, db, "composicion_portafolio", ficID))
	assert.Equal(t, 1, countRows(t, db, "plazo_duracion", ficID))
	assert.Equal(t, 1, countRows(t, db, "caracteristicas", ficID))
	assert.Equal(t, 1, countRows(t, db, "calificacion", ficID))
	assert.Equal(t, 1, countRows(t, db, "principales_inversiones", ficID))
	assert.Equal(t, 1, countRows(t, db, "rentabilidad_historica", ficID))
	assert.Equal(t, 1, countRows(t, db, "volatilidad_historica", ficID))
	assert.Equal(t, 1, countRows(t, db, "raw_json", ficID))
}

func TestUpsert_SameFundAndCutoffIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	repo := NewFundRepository(db, testLogger())
	ctx := context.Background()

	first, err := repo.Upsert(ctx, sampleRecord(), "fondo1_transformed.json")
	require.NoError(t, err)

	updated := sampleRecord()
	updated.FIC.Gestor = "Fiduciaria Z"
	updated.Composicion.PorActivo = updated.Composicion.PorActivo[:1]
	second, err := repo.Upsert(ctx, updated, "fondo1_transformed.json")
	require.NoError(t, err)

	assert.Equal(t, first, second, "same (fund, cutoff) must reuse the row")

	var total int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM fic").Scan(&total))
	assert.Equal(t, 1, total)

	var gestor string
	require.NoError(t, db.QueryRow("SELECT gestor FROM fic WHERE id = $1", first).Scan(&gestor))
	assert.Equal(t, "Fiduciaria Z", gestor)

	// Child rows are replaced, not appended.
	assert.Equal(t, 2, countRows(t, db, "composicion_portafolio", first))
	assert.Equal(t, 1, countRows(t, db, "raw_json", first))
}

func TestUpsert_NewCutoffCreatesNewRow(t *testing.T) {
	db := openTestDB(t)
	repo := NewFundRepository(db, testLogger())
	ctx := context.Background()

	first, err := repo.Upsert(ctx, sampleRecord(), "june.json")
	require.NoError(t, err)

	july := sampleRecord()
	july.FIC.FechaCorte = "2025-07-31"
	second, err := repo.Upsert(ctx, july, "july.json")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestList_FiltersByCutoffRange(t *testing.T) {
	db := openTestDB(t)
	repo := NewFundRepository(db, testLogger())
	ctx := context.Background()

	for _, cutoff := range []string{"2025-04-30", "2025-05-31", "2025-06-30"} {
		rec := sampleRecord()
		rec.FIC.FechaCorte = cutoff
		_, err := repo.Upsert(ctx, rec, cutoff+".json")
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2025-04-30", all[0].FechaCorte, "cutoff order")
	assert.Equal(t, "AAA", all[0].Calificacion)
	assert.Equal(t, "Fitch Ratings Colombia", all[0].Calificadora)

	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)
	may, err := repo.List(ctx, &from, &to)
	require.NoError(t, err)
	require.Len(t, may, 1)
	assert.Equal(t, "2025-05-31", may[0].FechaCorte)
}

func TestList_FundWithoutRating(t *testing.T) {
	db := openTestDB(t)
	repo := NewFundRepository(db, testLogger())
	ctx := context.Background()

	rec := sampleRecord()
	rec.Calificacion = fic.Calificacion{}
	_, err := repo.Upsert(ctx, rec, "fondo1.json")
	require.NoError(t, err)

	rows, err := repo.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].Calificacion)
	assert.Empty(t, rows[0].Calificadora)
}
