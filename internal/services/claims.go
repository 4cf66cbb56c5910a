package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/claiminsight/claiminsight-api/internal/analysis"
	"github.com/claiminsight/claiminsight-api/internal/models"
	"github.com/claiminsight/claiminsight-api/internal/repository"
	"github.com/claiminsight/claiminsight-api/internal/storage"
	"github.com/claiminsight/claiminsight-api/internal/tempfile"
	"github.com/claiminsight/claiminsight-api/internal/utils"
)

const timestampLayout = "2006-01-02 15:04:05"

type ClaimService interface {
	ProcessUpload(ctx context.Context, userID string, sub *models.Submission) (*models.UploadResult, error)
	ListHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error)
	DeleteHistoryEntry(ctx context.Context, userID, id string) error
	HistoryImage(ctx context.Context, userID, id string) ([]byte, string, error)
}

type claimService struct {
	repo     repository.HistoryRepository
	archive  storage.ImageArchive
	analysis analysis.Client
	files    *tempfile.Store
	logger   *utils.Logger
}

func NewClaimService(repo repository.HistoryRepository, archive storage.ImageArchive, client analysis.Client, files *tempfile.Store, logger *utils.Logger) ClaimService {
	return &claimService{
		repo:     repo,
		archive:  archive,
		analysis: client,
		files:    files,
		logger:   logger,
	}
}

// ProcessUpload runs the gateway pipeline for one submission: save the
// file transiently, forward it to the analysis service, record a history
// entry, and return the typed result. The transient file is removed once
// the forward attempt resolves, whatever its outcome; persistence
// happens before the response and its failure never changes the result.
func (s *claimService) ProcessUpload(ctx context.Context, userID string, sub *models.Submission) (*models.UploadResult, error) {
	path, err := s.files.Save(bytes.NewReader(sub.File), sub.Filename)
	if err != nil {
		s.logger.Error("Failed to save transient upload", "error", err, "filename", sub.Filename)
		return nil, utils.NewInternalError("Failed to store upload")
	}
	defer func() {
		if err := s.files.Remove(path); err != nil {
			s.logger.Error("Failed to remove transient upload", "error", err, "path", path)
		}
	}()

	result, err := s.forward(ctx, path, sub)
	if err != nil {
		return nil, err
	}

	s.applyDefaults(result, sub)

	entryID := utils.GenerateID()
	imageKey := s.archiveImage(ctx, entryID, sub)

	entry := &models.HistoryEntry{
		ID:              entryID,
		UserID:          userID,
		DamageType:      sub.DamageType,
		Filename:        sub.Filename,
		ImageKey:        imageKey,
		ImageCaption:    result.ImageCaption,
		LossDescription: result.LossDescription,
		CreatedAt:       time.Now(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		// Entry dropped, response unaffected: the analysis already
		// succeeded and the caller gets its result.
		s.logger.Error("Failed to persist history entry", "error", err, "entry_id", entryID, "user_id", userID)
		entryID = ""
	}

	s.logger.Info("Submission processed",
		"user_id", userID,
		"damage_type", sub.DamageType,
		"entry_id", entryID,
		"description_length", len(result.LossDescription))

	return &models.UploadResult{
		AnalysisResult: *result,
		HistoryID:      entryID,
	}, nil
}

// forward streams the transient file to the analysis service and maps
// failures onto the error taxonomy: relayed upstream status, 502 for an
// unreadable body, 500 for connectivity.
func (s *claimService) forward(ctx context.Context, path string, sub *models.Submission) (*models.AnalysisResult, error) {
	f, err := os.Open(path)
	if err != nil {
		s.logger.Error("Failed to open transient upload", "error", err, "path", path)
		return nil, utils.NewInternalError("Failed to read stored upload")
	}
	defer f.Close()

	result, err := s.analysis.Analyze(ctx, f, sub.Filename, sub.DamageType)
	if err == nil {
		return result, nil
	}

	var statusErr *analysis.StatusError
	switch {
	case errors.As(err, &statusErr):
		return nil, utils.NewUpstreamError(statusErr.StatusCode, statusErr.Message())
	case errors.Is(err, analysis.ErrInvalidResponse):
		return nil, utils.NewUpstreamError(http.StatusBadGateway, "Analysis service returned an unreadable response")
	default:
		s.logger.Error("Analysis service unreachable", "error", err)
		return nil, utils.NewInternalError("Failed to connect to analysis service.")
	}
}

func (s *claimService) applyDefaults(result *models.AnalysisResult, sub *models.Submission) {
	if result.Filename == "" {
		result.Filename = sub.Filename
	}
	if result.DamageType == "" {
		result.DamageType = sub.DamageType
	}
	if result.Timestamp == "" {
		result.Timestamp = time.Now().Format(timestampLayout)
	}
	if result.LossDescription == "" {
		s.logger.Warn("Analysis result has no loss description", "filename", sub.Filename)
	}
}

// archiveImage stores the submitted photo and returns its key, or an
// empty key when archiving fails.
func (s *claimService) archiveImage(ctx context.Context, entryID string, sub *models.Submission) string {
	key := fmt.Sprintf("claims/%s/%s", entryID, sub.Filename)
	contentType := http.DetectContentType(sub.File)
	if err := s.archive.Upload(ctx, key, sub.File, contentType); err != nil {
		s.logger.Error("Failed to archive submitted image", "error", err, "key", key)
		return ""
	}
	return key
}

func (s *claimService) ListHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list history", "error", err, "user_id", userID)
		return nil, utils.NewInternalError("Failed to retrieve history")
	}

	return entries, nil
}

func (s *claimService) DeleteHistoryEntry(ctx context.Context, userID, id string) error {
	entry, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		s.logger.Error("Failed to load history entry", "error", err, "id", id)
		return utils.NewInternalError("Failed to delete history entry")
	}
	if entry == nil {
		return utils.NewNotFoundError("History entry not found")
	}

	deleted, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		s.logger.Error("Failed to delete history entry", "error", err, "id", id)
		return utils.NewInternalError("Failed to delete history entry")
	}
	if !deleted {
		return utils.NewNotFoundError("History entry not found")
	}

	if entry.ImageKey != "" {
		if err := s.archive.Delete(ctx, entry.ImageKey); err != nil {
			s.logger.Error("Failed to delete archived image", "error", err, "key", entry.ImageKey)
		}
	}

	s.logger.Info("History entry deleted", "id", id, "user_id", userID)

	return nil
}

func (s *claimService) HistoryImage(ctx context.Context, userID, id string) ([]byte, string, error) {
	entry, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		s.logger.Error("Failed to load history entry", "error", err, "id", id)
		return nil, "", utils.NewInternalError("Failed to retrieve history entry")
	}
	if entry == nil || entry.ImageKey == "" {
		return nil, "", utils.NewNotFoundError("History image not found")
	}

	data, contentType, err := s.archive.Download(ctx, entry.ImageKey)
	if err != nil {
		s.logger.Error("Failed to download archived image", "error", err, "key", entry.ImageKey)
		return nil, "", utils.NewNotFoundError("History image not found")
	}

	return data, contentType, nil
}
