package application

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasap-ot/thesis-project/internal/apperr"
)

const (
	lockSQL   = `SELECT company_id FROM offers WHERE id = \$1 FOR UPDATE`
	statusSQL = `SELECT status FROM applications WHERE student_id = \$1 AND offer_id = \$2`
	setSQL    = `UPDATE applications SET status = \$1\s+WHERE student_id = \$2 AND offer_id = \$3 AND status = \$4`
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

func expectLock(mock sqlmock.Sqlmock, offerID int64, owner any) {
	mock.ExpectQuery(lockSQL).WithArgs(offerID).
		WillReturnRows(sqlmock.NewRows([]string{"company_id"}).AddRow(owner))
}

func expectStatus(mock sqlmock.Sqlmock, studentID, offerID int64, s Status) {
	mock.ExpectQuery(statusSQL).WithArgs(studentID, offerID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(s)))
}

func TestRepositoryAcceptRejectsWaitingCompetitors(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	expectLock(mock, 7, int64(3))
	expectStatus(mock, 1, 7, StatusWaiting)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM applications WHERE offer_id = \$1 AND status IN \(\$2, \$3, \$4, \$5\)\)`).
		WithArgs(7, "ACCEPTED", "ONGOING", "COMPLETED", "ARCHIVED").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(setSQL).WithArgs("ACCEPTED", 1, 7, "WAITING").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`student_id <> \$3 AND status = \$4\s+RETURNING student_id`).WithArgs("REJECTED", 7, 1, "WAITING").
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow(int64(2)).AddRow(int64(5)))
	mock.ExpectCommit()

	res, err := repo.Accept(context.Background(), 3, 7, 1)

	require.NoError(t, err)
	assert.Equal(t, int64(1), res.AcceptedStudentID)
	assert.ElementsMatch(t, []int64{2, 5}, res.RejectedStudentIDs)
}

func TestRepositoryAcceptLosesRace(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	expectLock(mock, 7, int64(3))
	expectStatus(mock, 1, 7, StatusWaiting)
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(setSQL).WithArgs("ACCEPTED", 1, 7, "WAITING").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Accept(context.Background(), 3, 7, 1)

	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRepositoryAcceptRefusesSecondWinner(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	expectLock(mock, 7, int64(3))
	expectStatus(mock, 4, 7, StatusWaiting)
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.Accept(context.Background(), 3, 7, 4)

	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRepositoryAcceptUniqueIndexIsConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	expectLock(mock, 7, int64(3))
	expectStatus(mock, 4, 7, StatusWaiting)
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(setSQL).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "applications_single_winner"})
	mock.ExpectRollback()

	_, err := repo.Accept(context.Background(), 3, 7, 4)

	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRepositoryAcceptChecksOwnershipUnderLock(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	expectLock(mock, 7, int64(9))
	mock.ExpectRollback()

	_, err := repo.Accept(context.Background(), 3, 7, 1)

	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestRepositoryAcceptMissingApplication(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	expectLock(mock, 7, int64(3))
	mock.ExpectQuery(statusSQL).WithArgs(1, 7).WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	_, err := repo.Accept(context.Background(), 3, 7, 1)

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRepositoryRefusesUnknownStoredStatus(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	expectLock(mock, 7, int64(3))
	expectStatus(mock, 1, 7, Status("PENDING"))
	mock.ExpectRollback()

	_, err := repo.Advance(context.Background(), 3, 7, 1, ActionStart)

	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Contains(t, err.Error(), `unknown application status "PENDING"`)
}

func TestRepositoryCancelAcceptedReopensOffer(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	expectLock(mock, 7, int64(3))
	expectStatus(mock, 1, 7, StatusAccepted)
	mock.ExpectExec(`DELETE FROM applications`).WithArgs(1, 7, "ACCEPTED").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`WHERE offer_id = \$2 AND student_id <> \$3\s+RETURNING student_id`).WithArgs("WAITING", 7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow(int64(2)))
	mock.ExpectCommit()

	res, err := repo.Cancel(context.Background(), 1, 7)

	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, res.PreviousStatus)
	assert.Equal(t, []int64{2}, res.ResetStudentIDs)
	require.NotNil(t, res.CompanyID)
	assert.Equal(t, int64(3), *res.CompanyID)
}

func TestRepositoryCancelWaitingOnlyDeletes(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	expectLock(mock, 7, nil)
	expectStatus(mock, 1, 7, StatusWaiting)
	mock.ExpectExec(`DELETE FROM applications`).WithArgs(1, 7, "WAITING").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.Cancel(context.Background(), 1, 7)

	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, res.PreviousStatus)
	assert.Empty(t, res.ResetStudentIDs)
	assert.Nil(t, res.CompanyID)
}

func TestRepositoryCancelOngoingIsConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	expectLock(mock, 7, int64(3))
	expectStatus(mock, 1, 7, StatusOngoing)
	mock.ExpectRollback()

	_, err := repo.Cancel(context.Background(), 1, 7)

	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRepositoryInsertDuplicateIsConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`INSERT INTO applications`).WithArgs(1, 7, "WAITING").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Insert(context.Background(), 1, 7)

	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRepositoryInsertMissingOfferIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`INSERT INTO applications`).WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := repo.Insert(context.Background(), 1, 7)

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRepositoryAdvanceRequiresExactStatus(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	expectLock(mock, 7, int64(3))
	expectStatus(mock, 1, 7, StatusWaiting)
	mock.ExpectRollback()

	_, err := repo.Advance(context.Background(), 3, 7, 1, ActionStart)

	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRepositoryAdvanceCompletes(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	expectLock(mock, 7, int64(3))
	expectStatus(mock, 1, 7, StatusOngoing)
	mock.ExpectExec(setSQL).WithArgs("COMPLETED", 1, 7, "ONGOING").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	to, err := repo.Advance(context.Background(), 3, 7, 1, ActionComplete)

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, to)
}

func TestRepositoryCreateStudentReportArchives(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	expectLock(mock, 7, int64(3))
	expectStatus(mock, 1, 7, StatusCompleted)
	mock.ExpectQuery(`INSERT INTO student_reports`).WithArgs(1, 7, 9, 8, 7, "solid").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "offer_id", "overall_grade", "technical_grade", "communication_grade", "comment"}).
			AddRow(int64(1), int64(7), 9, 8, 7, "solid"))
	mock.ExpectExec(setSQL).WithArgs("ARCHIVED", 1, 7, "COMPLETED").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rep, err := repo.CreateStudentReport(context.Background(), 3, StudentReport{
		StudentID: 1, OfferID: 7, OverallGrade: 9, TechnicalGrade: 8, CommunicationGrade: 7, Comment: "solid",
	})

	require.NoError(t, err)
	assert.Equal(t, "solid", rep.Comment)
}

func TestRepositoryCreateStudentReportBeforeCompletion(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	expectLock(mock, 7, int64(3))
	expectStatus(mock, 1, 7, StatusOngoing)
	mock.ExpectRollback()

	_, err := repo.CreateStudentReport(context.Background(), 3, StudentReport{StudentID: 1, OfferID: 7})

	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRepositoryDeleteStudentReportUnarchives(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	expectLock(mock, 7, int64(3))
	mock.ExpectExec(`DELETE FROM student_reports`).WithArgs(1, 7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setSQL).WithArgs("COMPLETED", 1, 7, "ARCHIVED").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteStudentReport(context.Background(), 3, 1, 7))
}

func TestRepositoryCreateCompanyReportNeedsFinishedInternship(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	expectLock(mock, 7, int64(3))
	expectStatus(mock, 1, 7, StatusAccepted)
	mock.ExpectRollback()

	_, err := repo.CreateCompanyReport(context.Background(), CompanyReport{StudentID: 1, OfferID: 7})

	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRepositoryApplicantsScansRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	f := DefaultFilter()
	f.Subjects = []SubjectRequirement{{Name: "Math", MinGrade: 8}}
	mock.ExpectQuery(`HAVING COUNT\(CASE WHEN name = \$6 AND grade >= \$7 THEN 1 END\) > 0\) ORDER BY s.id`).
		WithArgs(7, 0.0, 10.0, 0, 300, "Math", 8).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "date_of_birth", "university", "major", "credits", "gpa", "region_id", "status"}).
			AddRow(int64(1), "ana@uni.test", "Ana", nil, "Tech", "CS", 180, 9.1, int64(1), "WAITING"))

	applicants, err := repo.Applicants(context.Background(), 7, f)

	require.NoError(t, err)
	require.Len(t, applicants, 1)
	assert.Equal(t, "Ana", applicants[0].Name)
	assert.Equal(t, StatusWaiting, applicants[0].Status)
	assert.Nil(t, applicants[0].DateOfBirth)
}
