package load

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ficlab/fic-etl/internal/batch"
	"github.com/ficlab/fic-etl/internal/repository"
)

const recordFixture = `{
	"fic": {"nombre_fic": "FIC Renta Fija", "gestor": "Fiduciaria X", "fecha_corte": "2025-06-30"},
	"composicion_portafolio": {
		"por_activo": [{"label": "CDT", "participacion": 0.452}]
	},
	"calificacion": {"calificacion": "AAA", "entidad_calificadora_normalizada": "Fitch Ratings Colombia"}
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProcessor(t *testing.T) (*Processor, repository.FundRepository) {
	t.Helper()
	db, err := repository.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.Migrate(context.Background(), db, repository.SQLite))
	funds := repository.NewFundRepository(db, testLogger())
	return NewProcessor(funds, testLogger()), funds
}

func writeArtifact(t *testing.T, content string) batch.Item {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fondo1_transformed.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return batch.Item{Key: "fondo1_transformed.json", Path: path}
}

func TestProcess_UpsertsRecord(t *testing.T) {
	p, funds := newTestProcessor(t)

	ref, err := p.Process(context.Background(), writeArtifact(t, recordFixture))
	require.NoError(t, err)
	assert.Regexp(t, `^fic:\d+$`, ref)

	rows, err := funds.List(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "FIC Renta Fija", rows[0].NombreFIC)
	assert.Equal(t, "2025-06-30", rows[0].FechaCorte)
}

func TestProcess_ReloadDoesNotDuplicate(t *testing.T) {
	p, funds := newTestProcessor(t)
	item := writeArtifact(t, recordFixture)

	first, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	second, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	rows, err := funds.List(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestProcess_MissingInputIsIOFailure(t *testing.T) {
	p, _ := newTestProcessor(t)

	_, err := p.Process(context.Background(), batch.Item{
		Key:  "absent.json",
		Path: filepath.Join(t.TempDir(), "absent.json"),
	})

	var se *batch.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, batch.KindIO, se.Kind)
}

func TestProcess_InvalidRecordFailsValidationBeforeStore(t *testing.T) {
	p, funds := newTestProcessor(t)

	// fecha_corte does not match the date shape the store trusts.
	item := writeArtifact(t, `{"fic": {"nombre_fic": "FIC", "gestor": "G", "fecha_corte": "junio"}}`)
	_, err := p.Process(context.Background(), item)

	var se *batch.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, batch.KindValidation, se.Kind)

	rows, err := funds.List(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, rows, "nothing may reach the store on validation failure")
}
