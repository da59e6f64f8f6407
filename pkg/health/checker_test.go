package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticChecker struct {
	name   string
	status Status
	delay  time.Duration
}

func (c staticChecker) Check(ctx context.Context) CheckResult {
	time.Sleep(c.delay)
	return NewCheckResult(c.name, c.status, "", nil)
}

func (c staticChecker) Name() string { return c.name }

func TestHealthChecker_Aggregates(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"one unhealthy", []Status{StatusDegraded, StatusUnhealthy}, StatusUnhealthy},
		{"none registered", nil, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker(time.Second)
			for i, s := range tt.statuses {
				h.Register(staticChecker{name: string(rune('a' + i)), status: s})
			}

			status, results := h.Check(context.Background())

			assert.Equal(t, tt.want, status)
			assert.Len(t, results, len(tt.statuses))
		})
	}
}

func TestHealthChecker_TimesOutSlowChecks(t *testing.T) {
	h := NewHealthChecker(20 * time.Millisecond)
	h.Register(staticChecker{name: "slow", status: StatusHealthy, delay: time.Second})

	status, results := h.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, status)
	assert.Contains(t, results["slow"].Error, "timed out")
}

func TestFuncChecker(t *testing.T) {
	ok := NewFuncChecker("store", func(ctx context.Context) error { return nil })
	bad := NewFuncChecker("store", func(ctx context.Context) error { return errors.New("boom") })

	assert.Equal(t, StatusHealthy, ok.Check(context.Background()).Status)
	result := bad.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Equal(t, "boom", result.Error)
}

func TestDatabaseChecker(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	result := NewDatabaseChecker(db, time.Second).Check(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	result = NewDatabaseChecker(db, time.Second).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Equal(t, "connection refused", result.Error)

	assert.NoError(t, mock.ExpectationsWereMet())
}
