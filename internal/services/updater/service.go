// Package updater turns parsed BN records into remote catalog changes with
// partial-failure isolation per record.
package updater

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/edumoraes/blingsync/internal/common"
	"github.com/edumoraes/blingsync/internal/interfaces"
	"github.com/edumoraes/blingsync/internal/models"
)

// Service implements the UpdaterService interface.
type Service struct {
	client interfaces.ProductAPIClient
	auth   interfaces.AuthService
	logger *common.Logger
}

// NewService creates a new patch orchestration service.
func NewService(client interfaces.ProductAPIClient, authSvc interfaces.AuthService, logger *common.Logger) *Service {
	return &Service{
		client: client,
		auth:   authSvc,
		logger: logger,
	}
}

// PatchRecords processes records sequentially so idempotency-key
// correlation stays simple and outbound concurrency stays bounded. One bad
// record never blocks the batch; a missing access token fails every
// remaining record fast, since without a token no call can succeed.
func (s *Service) PatchRecords(ctx context.Context, records []*models.BNRecord, idempotencyKey string) (*models.BatchResult, error) {
	batchKey := idempotencyKey
	if batchKey == "" {
		batchKey = uuid.NewString()
	}

	result := &models.BatchResult{
		IdempotencyKey: batchKey,
		Results:        []*models.ItemResult{},
		Failures:       []*models.ItemFailure{},
	}

	for i, record := range records {
		if record.ID == "" {
			result.Failures = append(result.Failures, &models.ItemFailure{
				Reason:  models.FailureMissingID,
				Message: fmt.Sprintf("record %d: identifier (column 1) is required", i+1),
			})
			continue
		}

		token, err := s.auth.AccessToken(ctx)
		if err != nil {
			// Stop-the-batch condition, distinct from per-record failures.
			for _, remaining := range records[i:] {
				result.Failures = append(result.Failures, &models.ItemFailure{
					ID:      remaining.ID,
					Reason:  models.FailureMissingAccessToken,
					Message: err.Error(),
				})
			}
			s.logger.Warn().Err(err).Int("remaining", len(records)-i).Msg("Batch aborted: no access token")
			break
		}

		if len(record.PatchPayload) == 0 && len(record.Images) == 0 {
			result.Failures = append(result.Failures, &models.ItemFailure{
				ID:      record.ID,
				Reason:  models.FailureEmptyPayload,
				Message: "no valid fields to update",
			})
			continue
		}

		// Fresh key per record, stable across automatic retries of that
		// same record inside the client.
		recordKey := fmt.Sprintf("%s-%d", batchKey, i+1)

		resp, err := s.client.PatchProduct(ctx, token, record.ID, record.PatchPayload, recordKey)
		if err != nil {
			result.Failures = append(result.Failures, upstreamFailure(record.ID, err))
			s.logger.Warn().Err(err).Str("id", record.ID).Msg("Primary update failed")
			continue
		}

		item := &models.ItemResult{
			ID:             record.ID,
			IdempotencyKey: recordKey,
			Response:       resp,
		}
		if len(record.Images) > 0 {
			item.Images = s.updateImages(ctx, token, record, recordKey)
		}

		result.Results = append(result.Results, item)
		s.logger.Info().Str("id", record.ID).Int("fields", len(record.PatchPayload)).Msg("Product updated")
	}

	return result, nil
}

// updateImages performs the best-effort image replacement: the dedicated
// replace endpoint first, then one fallback through the generic partial
// update. Failure here never reverts or fails the primary update.
func (s *Service) updateImages(ctx context.Context, token string, record *models.BNRecord, recordKey string) *models.ImageOutcome {
	resp, err := s.client.ReplaceImages(ctx, token, record.ID, record.Images, recordKey+"-img")
	if err == nil {
		return &models.ImageOutcome{Response: resp}
	}
	replaceErr := err

	resp, err = s.client.PatchImagesFallback(ctx, token, record.ID, record.Images, recordKey+"-img2")
	if err == nil {
		return &models.ImageOutcome{Fallback: true, Response: resp}
	}

	s.logger.Warn().Err(err).Str("id", record.ID).Msg("Image replace failed, primary update kept")
	return &models.ImageOutcome{
		Skipped: true,
		Error:   imageError(replaceErr, err),
	}
}

// imageError prefers the fallback error's upstream payload, then the
// replace error's, matching what the operator needs to diagnose last.
func imageError(replaceErr, fallbackErr error) string {
	var apiErr *models.APIError
	if errors.As(fallbackErr, &apiErr) {
		return apiErr.Error()
	}
	if errors.As(replaceErr, &apiErr) {
		return apiErr.Error()
	}
	return fallbackErr.Error()
}

// upstreamFailure converts a client error into a structured failure,
// preserving the raw upstream status and payload.
func upstreamFailure(id string, err error) *models.ItemFailure {
	var apiErr *models.APIError
	if errors.As(err, &apiErr) {
		return &models.ItemFailure{
			ID:      id,
			Reason:  models.FailureUpstream,
			Status:  apiErr.StatusCode,
			Message: apiErr.Message,
			Payload: apiErr.Payload,
		}
	}
	return &models.ItemFailure{
		ID:      id,
		Reason:  models.FailureUpstream,
		Message: err.Error(),
	}
}

// Ensure Service implements UpdaterService
var _ interfaces.UpdaterService = (*Service)(nil)
