package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(rdb *redis.Client) *Service {
	svc := NewWithClient(rdb, Config{
		From:     "noreply@kestiv.app",
		FromName: "Kestiv",
		SMTPHost: "smtp.test.com",
		SMTPPort: "587",
		SMTPUser: "test@example.com",
		SMTPPass: "password",
	})
	svc.retryDelay = time.Millisecond
	return svc
}

func TestSend(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.Regexp().ExpectLPush("emails", `.*`).SetVal(1)

	err := newTestService(db).Send(context.Background(), "user@example.com", "User", "Hello", "Test body")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendError(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.Regexp().ExpectLPush("emails", `.*`).SetErr(assert.AnError)

	err := newTestService(db).Send(context.Background(), "user@example.com", "User", "Hello", "Test body")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendExpiryReminder(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.Regexp().ExpectLPush("emails", `.*`).SetVal(1)

	expires := time.Now().Add(3 * 24 * time.Hour)
	err := newTestService(db).SendExpiryReminder(context.Background(), "m@example.com", "Member", "Iron Gym", "Monthly", expires, 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendPlanConfirmation(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.Regexp().ExpectLPush("emails", `.*`).SetVal(1)

	err := newTestService(db).SendPlanConfirmation(context.Background(), "m@example.com", "Member", "Unlimited", nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()

	mock.ExpectLLen("emails").SetVal(5)

	assert.Equal(t, int64(5), newTestService(db).QueueLength(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliver_Success(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := newTestService(db)

	var gotTo []string
	svc.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		assert.Equal(t, "smtp.test.com:587", addr)
		assert.Contains(t, string(msg), "Subject: Hi")
		gotTo = to
		return nil
	}

	svc.deliver(context.Background(), EmailJob{Type: TypeGeneric, To: "a@b.c", Subject: "Hi"})

	assert.Equal(t, []string{"a@b.c"}, gotTo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliver_RequeuesOnFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := newTestService(db)
	svc.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("smtp down")
	}

	job := EmailJob{Type: TypeGeneric, To: "a@b.c", Subject: "Hi"}
	requeued := job
	requeued.Tries = 1
	data, err := json.Marshal(requeued)
	require.NoError(t, err)
	mock.ExpectLPush("emails", data).SetVal(1)

	svc.deliver(context.Background(), job)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliver_MovesToFailedQueueAfterMaxTries(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := newTestService(db)
	svc.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("smtp down")
	}

	mock.Regexp().ExpectLPush("emails:failed", `.*`).SetVal(1)

	svc.deliver(context.Background(), EmailJob{Type: TypeGeneric, To: "a@b.c", Tries: maxTries - 1})

	assert.NoError(t, mock.ExpectationsWereMet())
}
