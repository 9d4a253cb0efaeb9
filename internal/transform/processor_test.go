package transform

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ficlab/fic-etl/internal/batch"
	"github.com/ficlab/fic-etl/internal/fic"
)

const rawFixture = `{
	"fic": {"nombre_fic": "FIC Prueba", "gestor": "Fiduciaria X", "fecha_corte": "30/06/2025"},
	"composicion_portafolio": {
		"por_activo": [{"activo": "CDT", "participacion": "45,2%"}]
	},
	"calificacion": {"calificacion": "AAA", "entidad_calificadora": "Fitch"}
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessor_WritesTransformedArtifact(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	inPath := filepath.Join(inDir, "fondo1.json")
	require.NoError(t, os.WriteFile(inPath, []byte(rawFixture), 0o644))

	p := NewProcessor(outDir, testLogger())
	ref, err := p.Process(context.Background(), batch.Item{Key: "fondo1.json", Path: inPath})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "fondo1_transformed.json"), ref)

	data, err := os.ReadFile(ref)
	require.NoError(t, err)
	var rec fic.FundRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "FIC Prueba", rec.FIC.NombreFIC)
	assert.Equal(t, "2025-06-30", rec.FIC.FechaCorte)
	require.Len(t, rec.Composicion.PorActivo, 1)
	assert.InDelta(t, 0.452, rec.Composicion.PorActivo[0].Participacion, 1e-9)
}

func TestProcessor_MissingInputIsIOFailure(t *testing.T) {
	p := NewProcessor(t.TempDir(), testLogger())

	_, err := p.Process(context.Background(), batch.Item{
		Key:  "absent.json",
		Path: filepath.Join(t.TempDir(), "absent.json"),
	})

	var se *batch.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, batch.KindIO, se.Kind)
}

func TestProcessor_MalformedJSONIsValidationFailure(t *testing.T) {
	inDir := t.TempDir()
	inPath := filepath.Join(inDir, "broken.json")
	require.NoError(t, os.WriteFile(inPath, []byte(`{"fic": [`), 0o644))

	p := NewProcessor(t.TempDir(), testLogger())
	_, err := p.Process(context.Background(), batch.Item{Key: "broken.json", Path: inPath})

	var se *batch.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, batch.KindValidation, se.Kind)
}

func TestProcessor_RecordMissingRequiredFieldsFailsValidation(t *testing.T) {
	inDir := t.TempDir()
	inPath := filepath.Join(inDir, "incomplete.json")
	// No gestor and no parseable cutoff date: normalization succeeds but the
	// output schema rejects the record.
	require.NoError(t, os.WriteFile(inPath, []byte(`{"fic": {"nombre_fic": "FIC sin datos"}}`), 0o644))

	p := NewProcessor(t.TempDir(), testLogger())
	_, err := p.Process(context.Background(), batch.Item{Key: "incomplete.json", Path: inPath})

	var se *batch.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, batch.KindValidation, se.Kind)
	assert.False(t, errors.Is(err, batch.ErrCatalog))
}
