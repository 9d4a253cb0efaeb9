package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ficlab/fic-etl/constants"
	"github.com/ficlab/fic-etl/internal/batch"
	"github.com/ficlab/fic-etl/internal/fic"
)

type Processor struct {
	logger    *slog.Logger
	outputDir string
}

func NewProcessor(outputDir string, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, outputDir: outputDir}
}

// Process reads one raw JSON artifact, normalizes it, validates the result
// against the fund-record schema and writes <stem>_transformed.json into the
// output directory. Returns the artifact path.
func (p *Processor) Process(ctx context.Context, item batch.Item) (string, error) {
	data, err := os.ReadFile(item.Path)
	if err != nil {
		return "", batch.NewError(batch.KindIO, err)
	}

	var raw fic.RawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", batch.NewError(batch.KindValidation, fmt.Errorf("decode raw document: %w", err))
	}

	rec, warns, err := Normalize(&raw)
	if err != nil {
		return "", batch.NewError(batch.KindValidation, err)
	}
	for _, w := range warns {
		p.logger.Warn("transform.normalize", "key", item.Key, "detail", w)
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", batch.NewError(batch.KindInternal, err)
	}
	if err := fic.ValidateJSONAgainstSchema(fic.BuildFundSchema(), out); err != nil {
		return "", batch.NewError(batch.KindValidation, err)
	}

	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", batch.NewError(batch.KindIO, err)
	}
	stem := strings.TrimSuffix(item.Key, filepath.Ext(item.Key))
	outPath := filepath.Join(p.outputDir, constants.TransformedName(stem+".json"))
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return "", batch.NewError(batch.KindIO, err)
	}

	p.logger.Info("transform.artifact.written",
		"key", item.Key, "path", outPath,
		"fund", rec.FIC.NombreFIC, "cutoff", rec.FIC.FechaCorte, "warnings", len(warns))
	return outPath, nil
}
