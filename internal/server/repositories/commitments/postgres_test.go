package commitments

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/glueauth/internal/common"
	"github.com/dmitrijs2005/glueauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQuery = `(?s)^INSERT\s+INTO\s+commitments\s*\(merkle_index,\s*user_id,\s*commitment\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+created_at\s*$`

func TestLock(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`SELECT\s+pg_advisory_xact_lock\(\$1\)`).
		WithArgs(advisoryLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Lock(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestExists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+commitments\s+WHERE\s+commitment\s*=\s*\$1\)$`
	mock.ExpectQuery(q).WithArgs("c1").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(q).WithArgs("c2").WillReturnError(errors.New("db down"))

	ok, err := repo.Exists(context.Background(), "c1")
	if err != nil || !ok {
		t.Fatalf("Exists: got (%v, %v)", ok, err)
	}

	_, err = repo.Exists(context.Background(), "c2")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestNextIndex(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+COALESCE\(MAX\(merkle_index\)\s*\+\s*1,\s*0\)\s+FROM\s+commitments$`
	mock.ExpectQuery(q).WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(int64(7)))

	next, err := repo.NextIndex(context.Background())
	if err != nil || next != 7 {
		t.Fatalf("NextIndex: got (%d, %v)", next, err)
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now()
	mock.ExpectQuery(insertQuery).
		WithArgs(int64(3), "u-1", "abcd").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	got, err := repo.Create(context.Background(), &models.Commitment{MerkleIndex: 3, UserID: "u-1", Value: "abcd"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.MerkleIndex != 3 || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs(int64(0), "u-1", "abcd").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.Commitment{MerkleIndex: 0, UserID: "u-1", Value: "abcd"})
	if !errors.Is(err, common.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs(int64(0), "u-1", "abcd").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Commitment{MerkleIndex: 0, UserID: "u-1", Value: "abcd"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+merkle_index,\s*user_id,\s*commitment,\s*created_at\s+FROM\s+commitments\s+ORDER\s+BY\s+merkle_index\s*$`
	now := time.Now()
	rows := sqlmock.NewRows([]string{"merkle_index", "user_id", "commitment", "created_at"}).
		AddRow(int64(0), "u-0", "c0", now).
		AddRow(int64(1), "u-1", "c1", now)
	mock.ExpectQuery(q).WillReturnRows(rows)

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[0].Value != "c0" || got[1].MerkleIndex != 1 {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestList_ScanError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"merkle_index", "user_id", "commitment", "created_at"}).
		AddRow("not-a-number", "u-0", "c0", time.Now())
	mock.ExpectQuery(`SELECT`).WillReturnRows(rows)

	if _, err := repo.List(context.Background()); err == nil {
		t.Fatalf("expected scan error")
	}
}
