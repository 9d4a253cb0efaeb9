// Package load implements the third pipeline stage: one normalized JSON
// artifact in, one idempotent store upsert out.
package load

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/ficlab/fic-etl/internal/batch"
	"github.com/ficlab/fic-etl/internal/fic"
	"github.com/ficlab/fic-etl/internal/repository"
)

type Processor struct {
	logger *slog.Logger
	funds  repository.FundRepository
}

func NewProcessor(funds repository.FundRepository, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, funds: funds}
}

// Process reads one normalized artifact, re-validates it at the trust
// boundary and upserts it. Returns the store id as the output reference.
func (p *Processor) Process(ctx context.Context, item batch.Item) (string, error) {
	data, err := os.ReadFile(item.Path)
	if err != nil {
		return "", batch.NewError(batch.KindIO, err)
	}

	if err := fic.ValidateJSONAgainstSchema(fic.BuildFundSchema(), data); err != nil {
		return "", batch.NewError(batch.KindValidation, err)
	}
	var rec fic.FundRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", batch.NewError(batch.KindValidation, fmt.Errorf("decode fund record: %w", err))
	}

	ficID, err := p.funds.Upsert(ctx, &rec, item.Key)
	if err != nil {
		return "", batch.NewError(batch.KindExternalService, fmt.Errorf("upsert fund: %w", err))
	}

	p.logger.Info("load.upserted", "key", item.Key, "fic_id", ficID, "fund", rec.FIC.NombreFIC)
	return fmt.Sprintf("fic:%d", ficID), nil
}
