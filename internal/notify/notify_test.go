package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasap-ot/thesis-project/internal/queue"
)

type fakeDirectory struct {
	fields   map[int64]string
	company  map[int64]string
	students map[int64]string
}

func (f fakeDirectory) OfferField(_ context.Context, offerID int64) (string, error) {
	v, ok := f.fields[offerID]
	if !ok {
		return "", ErrNoRecipient
	}
	return v, nil
}

func (f fakeDirectory) CompanyEmail(_ context.Context, offerID int64) (string, error) {
	v, ok := f.company[offerID]
	if !ok {
		return "", ErrNoRecipient
	}
	return v, nil
}

func (f fakeDirectory) StudentEmails(_ context.Context, ids []int64) ([]string, error) {
	var out []string
	for _, id := range ids {
		if v, ok := f.students[id]; ok {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoRecipient
	}
	return out, nil
}

type captureMailer struct {
	sent []Email
	err  error
}

func (m *captureMailer) Send(_ context.Context, e Email) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, e)
	return nil
}

var directory = fakeDirectory{
	fields:   map[int64]string{1: "Backend", 2: "Design"},
	company:  map[int64]string{1: "hr@acme.test"},
	students: map[int64]string{10: "ana@uni.test", 11: "bo@uni.test"},
}

func TestQueueNotifierRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := queue.NewInMemory(1)
	n := NewQueueNotifier(q)
	n.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, n.Notify(ctx, StatusChanged(1, "REJECTED", 10, 11)))

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)
	msg := <-msgs
	assert.Equal(t, "status_changed", msg.Type)

	note, err := Decode(msg)
	require.NoError(t, err)
	assert.NotEmpty(t, note.ID)
	assert.Equal(t, []int64{10, 11}, note.StudentIDs)
	assert.Equal(t, "REJECTED", note.Status)
	assert.Equal(t, n.now(), note.CreatedAt)
}

type failingQueue struct{ queue.Queue }

func (failingQueue) Publish(context.Context, queue.Message) error { return errors.New("redis down") }

func TestQueueNotifierReportsPublishFailure(t *testing.T) {
	err := NewQueueNotifier(failingQueue{}).Notify(context.Background(), NewApplicant(1))
	assert.ErrorContains(t, err, "redis down")
}

func TestDispatchCompanyKinds(t *testing.T) {
	mailer := &captureMailer{}
	d := NewDispatcher(directory, mailer, nil)

	require.NoError(t, d.Dispatch(context.Background(), NewApplicant(1)))
	require.NoError(t, d.Dispatch(context.Background(), ApplicantCancelled(1)))

	require.Len(t, mailer.sent, 2)
	assert.Equal(t, []string{"hr@acme.test"}, mailer.sent[0].To)
	assert.Equal(t, "Backend Offer - New Applicant", mailer.sent[0].Subject)
	assert.Equal(t, "Backend Offer - Applicant Cancellation", mailer.sent[1].Subject)
}

func TestDispatchStatusChangeToEveryStudent(t *testing.T) {
	mailer := &captureMailer{}
	d := NewDispatcher(directory, mailer, nil)

	require.NoError(t, d.Dispatch(context.Background(), StatusChanged(2, "WAITING", 10, 11, 99)))

	require.Len(t, mailer.sent, 1)
	assert.ElementsMatch(t, []string{"ana@uni.test", "bo@uni.test"}, mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, "'Design' offer has been updated to WAITING")
}

func TestDispatchOrphanedOfferHasNoRecipient(t *testing.T) {
	d := NewDispatcher(directory, &captureMailer{}, nil)

	err := d.Dispatch(context.Background(), NewApplicant(2))

	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestRunKeepsGoingAfterFailures(t *testing.T) {
	mailer := &captureMailer{}
	d := NewDispatcher(directory, mailer, nil)
	msgs := make(chan queue.Message, 3)
	msgs <- queue.Message{Type: "new_applicant", Body: []byte(`not json`)}
	msgs <- queue.Message{Type: "new_applicant", Body: []byte(`{"kind":"new_applicant","offer_id":2}`)}
	msgs <- queue.Message{Type: "new_applicant", Body: []byte(`{"kind":"new_applicant","offer_id":1}`)}
	close(msgs)

	d.Run(context.Background(), msgs)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"hr@acme.test"}, mailer.sent[0].To)
}

func TestDBDirectory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	dir := NewDBDirectory(sqlx.NewDb(db, "pgx"))

	mock.ExpectQuery("SELECT c.email FROM offers o").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("hr@acme.test"))
	mock.ExpectQuery(`SELECT email FROM students WHERE id IN \(\$1, \$2\) ORDER BY id`).WithArgs(10, 11).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("ana@uni.test"))
	mock.ExpectQuery(`SELECT email FROM students WHERE id IN \(\$1\)`).WithArgs(12).
		WillReturnRows(sqlmock.NewRows([]string{"email"}))

	email, err := dir.CompanyEmail(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "hr@acme.test", email)

	emails, err := dir.StudentEmails(context.Background(), []int64{10, 11})
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@uni.test"}, emails)

	_, err = dir.StudentEmails(context.Background(), []int64{12})
	assert.ErrorIs(t, err, ErrNoRecipient)
	_, err = dir.StudentEmails(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoRecipient)
	assert.NoError(t, mock.ExpectationsWereMet())
}
