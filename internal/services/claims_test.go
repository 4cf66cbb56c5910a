package services

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/claiminsight/claiminsight-api/internal/models"
	"github.com/claiminsight/claiminsight-api/internal/tempfile"
	"github.com/claiminsight/claiminsight-api/internal/utils"
)

type stubAnalysisClient struct {
	result *models.AnalysisResult
	err    error

	gotBytes      []byte
	gotDamageType string
}

func (c *stubAnalysisClient) Analyze(ctx context.Context, file io.Reader, filename, damageType string) (*models.AnalysisResult, error) {
	c.gotBytes, _ = io.ReadAll(file)
	c.gotDamageType = damageType
	if c.err != nil {
		return nil, c.err
	}
	result := *c.result
	return &result, nil
}

type memRepo struct {
	entries   []models.HistoryEntry
	createErr error
}

func (m *memRepo) Create(ctx context.Context, entry *models.HistoryEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memRepo) ListByUser(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	return m.entries, nil
}

func (m *memRepo) GetByID(ctx context.Context, userID, id string) (*models.HistoryEntry, error) {
	for _, e := range m.entries {
		if e.ID == id && e.UserID == userID {
			entry := e
			return &entry, nil
		}
	}
	return nil, nil
}

func (m *memRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	for i, e := range m.entries {
		if e.ID == id && e.UserID == userID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type memArchive struct {
	objects map[string][]byte
}

func (m *memArchive) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return nil
}

func (m *memArchive) Download(ctx context.Context, key string) ([]byte, string, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, "", errors.New("not found")
	}
	return data, "image/jpeg", nil
}

func (m *memArchive) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func newTestService(t *testing.T, client *stubAnalysisClient) (ClaimService, *memRepo, *memArchive, *tempfile.Store) {
	t.Helper()
	files, err := tempfile.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("tempfile.NewStore: %v", err)
	}
	repo := &memRepo{}
	archive := &memArchive{}
	svc := NewClaimService(repo, archive, client, files, utils.NewLogger("error"))
	return svc, repo, archive, files
}

func uploadDirCount(t *testing.T, files *tempfile.Store) int {
	t.Helper()
	names, err := os.ReadDir(files.Root())
	if err != nil {
		t.Fatalf("reading upload dir: %v", err)
	}
	return len(names)
}

func TestProcessUploadAppliesResultDefaults(t *testing.T) {
	client := &stubAnalysisClient{result: &models.AnalysisResult{
		Success:         true,
		LossDescription: "Wind damage to shingles.",
	}}
	svc, _, _, _ := newTestService(t, client)

	sub := &models.Submission{File: []byte("img"), Filename: "roof.jpg", DamageType: "Storm Damage"}
	result, err := svc.ProcessUpload(context.Background(), "user-a", sub)
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}

	if result.Filename != "roof.jpg" {
		t.Errorf("filename default not applied: %q", result.Filename)
	}
	if result.DamageType != "Storm Damage" {
		t.Errorf("damage_type default not applied: %q", result.DamageType)
	}
	if result.Timestamp == "" {
		t.Error("timestamp default not applied")
	}
	if _, err := time.Parse(timestampLayout, result.Timestamp); err != nil {
		t.Errorf("timestamp %q does not match layout: %v", result.Timestamp, err)
	}
}

func TestProcessUploadCleansUpOnAnalysisFailure(t *testing.T) {
	client := &stubAnalysisClient{err: errors.New("connection refused")}
	svc, repo, _, files := newTestService(t, client)

	sub := &models.Submission{File: []byte("img"), Filename: "a.jpg", DamageType: "Fire"}
	_, err := svc.ProcessUpload(context.Background(), "user-a", sub)
	if err == nil {
		t.Fatal("expected error")
	}

	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *utils.AppError, got %T", err)
	}
	if appErr.StatusCode != 500 {
		t.Errorf("status = %d, want 500", appErr.StatusCode)
	}

	if n := uploadDirCount(t, files); n != 0 {
		t.Errorf("%d transient files left after failure", n)
	}
	if len(repo.entries) != 0 {
		t.Error("history entry persisted for a failed submission")
	}
}

func TestProcessUploadForwardsStoredBytes(t *testing.T) {
	client := &stubAnalysisClient{result: &models.AnalysisResult{Success: true, LossDescription: "d"}}
	svc, _, archive, files := newTestService(t, client)

	content := []byte{0x89, 0x50, 0x4e, 0x47, 0x01, 0x02}
	sub := &models.Submission{File: content, Filename: "wall.png", DamageType: "Fire"}
	result, err := svc.ProcessUpload(context.Background(), "user-a", sub)
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}

	if string(client.gotBytes) != string(content) {
		t.Error("analysis client received different bytes than submitted")
	}
	if n := uploadDirCount(t, files); n != 0 {
		t.Errorf("%d transient files left after success", n)
	}

	key := "claims/" + result.HistoryID + "/wall.png"
	if _, ok := archive.objects[key]; !ok {
		t.Errorf("submitted image not archived under %q", key)
	}
}

func TestDeleteHistoryEntryCleansArchive(t *testing.T) {
	client := &stubAnalysisClient{result: &models.AnalysisResult{Success: true, LossDescription: "d"}}
	svc, repo, archive, _ := newTestService(t, client)

	archive.Upload(context.Background(), "claims/e1/a.jpg", []byte("img"), "image/jpeg")
	repo.Create(context.Background(), &models.HistoryEntry{
		ID: "e1", UserID: "user-a", DamageType: "Fire", Filename: "a.jpg",
		ImageKey: "claims/e1/a.jpg", CreatedAt: time.Now(),
	})

	if err := svc.DeleteHistoryEntry(context.Background(), "user-a", "e1"); err != nil {
		t.Fatalf("DeleteHistoryEntry: %v", err)
	}
	if len(repo.entries) != 0 {
		t.Error("entry still present after delete")
	}
	if _, ok := archive.objects["claims/e1/a.jpg"]; ok {
		t.Error("archived image still present after delete")
	}

	err := svc.DeleteHistoryEntry(context.Background(), "user-a", "e1")
	var appErr *utils.AppError
	if !errors.As(err, &appErr) || appErr.StatusCode != 404 {
		t.Errorf("second delete error = %v, want 404 AppError", err)
	}
}
