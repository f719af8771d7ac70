package ingesting

import (
	"context"
	"errors"
	"fmt"

	"github.com/vfg2006/ozon-analytics-api/infrastructure/repository"
	"github.com/vfg2006/ozon-analytics-api/internal/config"
	"github.com/vfg2006/ozon-analytics-api/internal/domain"
	"github.com/vfg2006/ozon-analytics-api/pkg/log"
	"github.com/vfg2006/ozon-analytics-api/pkg/utils"
)

type Ingester interface {
	UploadLedger(ctx context.Context, sellerID string, payload []byte) (*domain.UploadResult, error)
}

// Service is the deduplication gate: it runs the parsed records of one
// upload through a find-then-insert cycle, strictly in file order, and
// reports a single summary for the batch.
type Service struct {
	parser     *Parser
	recordRepo repository.SalesRecordRepository
}

func NewService(cfg *config.Config, recordRepo repository.SalesRecordRepository) Ingester {
	return &Service{
		parser:     NewParser(cfg.Ledger),
		recordRepo: recordRepo,
	}
}

// UploadLedger ingests one uploaded ledger file for a seller.
//
// Records are processed sequentially: the store has no ordering guarantee of
// its own, and the next record's existence check must not overtake the
// previous record's write. A duplicate natural key skips the record; a store
// failure is counted separately and fails the batch flag without aborting
// the remaining records, so an interrupted upload leaves every accepted
// record in place.
func (s *Service) UploadLedger(ctx context.Context, sellerID string, payload []byte) (*domain.UploadResult, error) {
	logger := log.ForContext(ctx)

	batchID, err := utils.GenerateID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate batch id: %w", err)
	}

	records, err := s.parser.Parse(sellerID, string(payload))
	if err != nil {
		return &domain.UploadResult{
			Success: false,
			Message: "Upload failed. Check the file format.",
			BatchID: batchID,
		}, nil
	}

	logger.WithFields(log.Fields{
		"batch_id":    batchID,
		"seller_id":   sellerID,
		"well_formed": len(records),
	}).Info("ledger-upload: starting batch")

	result := &domain.UploadResult{BatchID: batchID}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			// Cancellation mid-batch: accepted records stay accepted, the
			// remainder counts as write failures in the summary.
			result.WriteFailures++
			continue
		}

		existing, err := s.recordRepo.FindByNaturalKey(ctx, record.NaturalKey())
		if err != nil {
			logger.WithError(err).WithFields(log.Fields{
				"batch_id":   batchID,
				"accrual_id": record.AccrualID,
			}).Error("ledger-upload: existence check failed")
			result.WriteFailures++
			continue
		}

		if existing != nil {
			result.DuplicatesSkipped++
			continue
		}

		switch err := s.recordRepo.Insert(ctx, record); {
		case err == nil:
			result.RecordsProcessed++
		case errors.Is(err, repository.ErrDuplicateRecord):
			// Lost the race against a concurrent upload of the same file;
			// the unique constraint makes this indistinguishable from a
			// regular duplicate, which is exactly what the counters want.
			result.DuplicatesSkipped++
		default:
			logger.WithError(err).WithFields(log.Fields{
				"batch_id":   batchID,
				"accrual_id": record.AccrualID,
			}).Error("ledger-upload: insert failed")
			result.WriteFailures++
		}
	}

	result.Success = result.WriteFailures == 0
	if result.Success {
		result.Message = "Data uploaded successfully"
	} else {
		result.Message = fmt.Sprintf("Upload finished with %d records that could not be stored", result.WriteFailures)
	}

	logger.WithFields(log.Fields{
		"batch_id":           batchID,
		"seller_id":          sellerID,
		"records_processed":  result.RecordsProcessed,
		"duplicates_skipped": result.DuplicatesSkipped,
		"write_failures":     result.WriteFailures,
	}).Info("ledger-upload: batch finished")

	return result, nil
}
