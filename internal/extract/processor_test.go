package extract

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ficlab/fic-etl/internal/batch"
	"github.com/ficlab/fic-etl/internal/gemini"
	"github.com/ficlab/fic-etl/internal/whisper"
)

const structuredFixture = `{
	"fic": {"nombre_fic": "FIC Prueba", "gestor": "Fiduciaria X", "fecha_corte": "2025-06-30"},
	"composicion_portafolio": {"por_activo": [{"activo": "CDT", "participacion": "45%"}]}
}`

type stubTexts struct {
	calls   atomic.Int32
	extract func(call int32) (string, error)
}

func (s *stubTexts) ExtractText(ctx context.Context, path string) (string, error) {
	return s.extract(s.calls.Add(1))
}

type stubStructurer struct {
	calls     atomic.Int32
	structure func(call int32) ([]byte, error)
}

func (s *stubStructurer) StructureText(ctx context.Context, text string) ([]byte, error) {
	return s.structure(s.calls.Add(1))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okTexts() *stubTexts {
	return &stubTexts{extract: func(int32) (string, error) { return "texto plano del PDF", nil }}
}

func okStructurer() *stubStructurer {
	return &stubStructurer{structure: func(int32) ([]byte, error) { return []byte(structuredFixture), nil }}
}

func TestProcessor_WritesRawArtifact(t *testing.T) {
	outDir := t.TempDir()
	p := NewProcessor(okTexts(), okStructurer(), outDir, testLogger())

	ref, err := p.Process(context.Background(), batch.Item{Key: "fondo1.pdf", Path: "/in/fondo1.pdf"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "fondo1.json"), ref)

	data, err := os.ReadFile(ref)
	require.NoError(t, err)
	assert.JSONEq(t, structuredFixture, string(data))
}

func TestProcessor_RetriesTransientFailuresThenSucceeds(t *testing.T) {
	texts := &stubTexts{extract: func(call int32) (string, error) {
		if call < 3 {
			return "", &whisper.APIError{StatusCode: 503, Body: "overloaded"}
		}
		return "texto", nil
	}}

	p := NewProcessor(texts, okStructurer(), t.TempDir(), testLogger(),
		WithMaxRetries(3), WithBackoff(time.Millisecond))

	_, err := p.Process(context.Background(), batch.Item{Key: "fondo1.pdf", Path: "/in/fondo1.pdf"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), texts.calls.Load())
}

func TestProcessor_DoesNotRetryTerminalFailures(t *testing.T) {
	texts := &stubTexts{extract: func(int32) (string, error) {
		return "", &whisper.APIError{StatusCode: 400, Body: "unsupported document"}
	}}

	p := NewProcessor(texts, okStructurer(), t.TempDir(), testLogger(),
		WithMaxRetries(3), WithBackoff(time.Millisecond))

	_, err := p.Process(context.Background(), batch.Item{Key: "fondo1.pdf", Path: "/in/fondo1.pdf"})
	require.Error(t, err)
	assert.Equal(t, int32(1), texts.calls.Load())

	var se *batch.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, batch.KindExternalService, se.Kind)
	assert.False(t, se.Retryable)
}

func TestProcessor_ExhaustedRetriesAreRetryableExternalFailure(t *testing.T) {
	structurer := &stubStructurer{structure: func(int32) ([]byte, error) {
		return nil, &gemini.APIError{StatusCode: 429, Body: "rate limited"}
	}}

	p := NewProcessor(okTexts(), structurer, t.TempDir(), testLogger(),
		WithMaxRetries(2), WithBackoff(time.Millisecond))

	_, err := p.Process(context.Background(), batch.Item{Key: "fondo1.pdf", Path: "/in/fondo1.pdf"})
	require.Error(t, err)
	assert.Equal(t, int32(2), structurer.calls.Load())

	var se *batch.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, batch.KindExternalService, se.Kind)
	assert.True(t, se.Retryable)
}

func TestProcessor_RejectsStructurallyInvalidResponse(t *testing.T) {
	structurer := &stubStructurer{structure: func(int32) ([]byte, error) {
		// Parses as JSON but misses the required fund identity.
		return []byte(`{"fic": {"custodio": "Banco Y"}}`), nil
	}}

	p := NewProcessor(okTexts(), structurer, t.TempDir(), testLogger())

	_, err := p.Process(context.Background(), batch.Item{Key: "fondo1.pdf", Path: "/in/fondo1.pdf"})
	require.Error(t, err)

	var se *batch.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, batch.KindValidation, se.Kind)
}
