package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST", "/members", "201", 0.1)
	RecordHTTPRequest("POST", "/members", "201", 0.2)
	RecordHTTPRequest("POST", "/members", "400", 0.05)

	assert.Equal(t, float64(2), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/members", "201")))
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/members", "400")))
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestRecordMemberMutation(t *testing.T) {
	MemberMutationsTotal.Reset()

	RecordMemberMutation("session_use", nil)
	RecordMemberMutation("session_use", nil)
	RecordMemberMutation("freeze", errors.New("already frozen"))

	assert.Equal(t, float64(2), testutil.ToFloat64(MemberMutationsTotal.WithLabelValues("session_use", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(MemberMutationsTotal.WithLabelValues("freeze", "error")))
}

func TestRecordTransaction(t *testing.T) {
	TransactionsTotal.Reset()
	TransactionAmount.Reset()

	RecordTransaction("sale", "cash", 12.5)
	RecordTransaction("sale", "cash", 7.5)

	assert.Equal(t, float64(2), testutil.ToFloat64(TransactionsTotal.WithLabelValues("sale", "cash")))
	assert.Equal(t, float64(20), testutil.ToFloat64(TransactionAmount.WithLabelValues("sale", "cash")))
}

func TestRecordEmail(t *testing.T) {
	EmailsSentTotal.Reset()

	RecordEmail("expiry_reminder", "queued")

	assert.Equal(t, float64(1), testutil.ToFloat64(EmailsSentTotal.WithLabelValues("expiry_reminder", "queued")))
}

func TestRecordReminderRun(t *testing.T) {
	ReminderRunsTotal.Reset()

	RecordReminderRun("ok")
	RecordReminderRun("error")
	RecordReminderRun("ok")

	assert.Equal(t, float64(2), testutil.ToFloat64(ReminderRunsTotal.WithLabelValues("ok")))
}
