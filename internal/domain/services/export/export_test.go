package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stack-service/backoffice/internal/domain/entities"
)

func TestWriteTransactionsCSV(t *testing.T) {
	txs := []*entities.Transaction{
		{
			ID:          "tx-1",
			InvestorID:  "inv-1",
			Type:        entities.TransactionTypeWithdrawal,
			Amount:      decimal.NewFromInt(-1000),
			Status:      entities.TransactionStatusPending,
			Date:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Description: "Withdrawal request via bank",
		},
		{
			ID:          "tx-2",
			InvestorID:  "inv-1",
			Type:        entities.TransactionTypeEarnings,
			Amount:      decimal.RequireFromString("12.5"),
			Status:      entities.TransactionStatusCompleted,
			Description: `Quarterly "bonus", Q1`,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, txs))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "investorId", "type", "amount", "status", "date", "description"}, rows[0])
	assert.Equal(t, []string{"tx-1", "inv-1", "Withdrawal", "-1000.00", "Pending", "2024-03-01T12:00:00Z", "Withdrawal request via bank"}, rows[1])
	assert.Equal(t, "12.50", rows[2][3])
	assert.Equal(t, "", rows[2][5])
	assert.Equal(t, `Quarterly "bonus", Q1`, rows[2][6])
}

func TestWriteTransactionsCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, nil))

	assert.Equal(t, "id,investorId,type,amount,status,date,description\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]int{"investors": 2}))

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded["investors"])
}

func TestReportFilename(t *testing.T) {
	now := time.Date(2024, 3, 1, 23, 30, 0, 0, time.FixedZone("WAT", 3600))

	assert.Equal(t, "performance-report-2024-03-01.json", ReportFilename("Performance Report", "json", now))
	assert.Equal(t, "transactions-2024-03-01.csv", ReportFilename("transactions", ".csv", now))
}
