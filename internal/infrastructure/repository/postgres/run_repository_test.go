package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*RunRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &RunRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestSaveRunInsertsRecord(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	run := &domain.RunRecord{
		ID:        "run-1",
		Query:     "amoxicillin dosage?",
		Answer:    "an answer",
		Category:  "General",
		Tone:      "Simplified Educational",
		Success:   true,
		Attempts:  1,
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO pipeline_runs").
		WithArgs(run.ID, run.Query, run.Answer, run.Category, run.Tone,
			run.Success, run.IsFallback, run.Attempts, run.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveRun(context.Background(), run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveRunRejectsMissingID(t *testing.T) {
	repo, _, done := newRepoWithMock(t)
	defer done()

	err := repo.SaveRun(context.Background(), &domain.RunRecord{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetRunByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, query, answer, category, tone").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetRunByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetRunByIDScansRecord(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	createdAt := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "query", "answer", "category", "tone", "success", "is_fallback", "attempts", "created_at",
	}).AddRow("run-1", "q", "a", "General", "Simplified Educational", true, false, 2, createdAt)

	mock.ExpectQuery("SELECT id, query, answer, category, tone").
		WithArgs("run-1").
		WillReturnRows(rows)

	run, err := repo.GetRunByID(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("GetRunByID() error = %v", err)
	}
	if run.ID != "run-1" || run.Attempts != 2 {
		t.Fatalf("unexpected run %+v", run)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
