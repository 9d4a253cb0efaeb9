// Package export produces XLSX listings of loaded fund records.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ficlab/fic-etl/internal/repository"
)

// Service is a tiny façade over the fund repository that produces XLSX bytes.
type Service struct {
	funds  repository.FundRepository
	logger *slog.Logger
}

func NewService(funds repository.FundRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{funds: funds, logger: logger}
}

// ExportFundsXLSX returns an XLSX workbook (as bytes) for the given cutoff
// date window. A nil bound leaves that side open.
func (s *Service) ExportFundsXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	funds, err := s.funds.List(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("query funds: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Funds"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defaultIndex, _ := f.GetSheetIndex("Sheet1"); defaultIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Fund Name",
		"Manager",
		"Custodian",
		"Cutoff Date",
		"Rating",
		"Rating Agency",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for row, fund := range funds {
		values := []any{
			fund.NombreFIC,
			fund.Gestor,
			fund.Custodio,
			fund.FechaCorte,
			fund.Calificacion,
			fund.Calificadora,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export complete",
		"funds", len(funds), "bytes", buf.Len(), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}
