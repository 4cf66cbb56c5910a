package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/claiminsight/claiminsight-api/internal/models"
)

func newMockRepo(t *testing.T) (HistoryRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	return NewHistoryRepository(sqlx.NewDb(mockDB, "sqlite")), mock
}

func entryColumns() []string {
	return []string{"id", "user_id", "damage_type", "filename", "image_key", "image_caption", "loss_description", "created_at"}
}

func TestCreate(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	entry := &models.HistoryEntry{
		ID:              "entry-1",
		UserID:          "user-a",
		DamageType:      "Fire Damage",
		Filename:        "house.jpg",
		ImageKey:        "claims/entry-1/house.jpg",
		ImageCaption:    "a burned wall",
		LossDescription: "Fire damage to the east wall.",
		CreatedAt:       now,
	}

	mock.ExpectExec("INSERT INTO history_entries").
		WithArgs(entry.ID, entry.UserID, entry.DamageType, entry.Filename, entry.ImageKey, entry.ImageCaption, entry.LossDescription, entry.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListByUserOrdersDescending(t *testing.T) {
	repo, mock := newMockRepo(t)

	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	rows := sqlmock.NewRows(entryColumns()).
		AddRow("entry-2", "user-a", "Water Damage", "b.jpg", "", "", "desc two", newer).
		AddRow("entry-1", "user-a", "Fire Damage", "a.jpg", "", "", "desc one", older)

	mock.ExpectQuery("SELECT (.+) FROM history_entries").
		WithArgs("user-a").
		WillReturnRows(rows)

	entries, err := repo.ListByUser(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID != "entry-2" || entries[1].ID != "entry-1" {
		t.Errorf("unexpected order: %q, %q", entries[0].ID, entries[1].ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListByUserEmpty(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM history_entries").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(entryColumns()))

	entries, err := repo.ListByUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if entries == nil {
		t.Error("ListByUser returned nil, want empty slice")
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestGetByIDMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM history_entries").
		WithArgs("user-a", "absent").
		WillReturnRows(sqlmock.NewRows(entryColumns()))

	entry, err := repo.GetByID(context.Background(), "user-a", "absent")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if entry != nil {
		t.Errorf("got entry %+v, want nil", entry)
	}
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM history_entries").
		WithArgs("user-a", "entry-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.Delete(context.Background(), "user-a", "entry-1")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Error("Delete reported false for an existing entry")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteMissingEntry(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM history_entries").
		WithArgs("user-a", "absent").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), "user-a", "absent")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted {
		t.Error("Delete reported true for a missing entry")
	}
}
