package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/job"
)

func TestExcelWriter_Write(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	w := NewExcelWriter(logger)

	records := []job.Record{
		{
			Timestamp: "2026-03-14 15:09:27", Operator: "Grace",
			MachineID: "resin", MachineName: "Resin Printer",
			MaterialType: "Tough Resin", MaterialAmount: 50,
			MaterialSource: "Lab", UnitSuffix: "ml", CostRate: 0.3, Cost: 15,
		},
		{
			Timestamp: "2026-03-14 15:09:26", Operator: "Ada",
			MachineID: "fdm", MachineName: "FDM Printer",
			MaterialType: "PLA", MaterialAmount: 100,
			MaterialSource: "External", UnitSuffix: "g",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, w.Write(records, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Jobs")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "timestamp", rows[0][0])
	assert.Equal(t, "cost", rows[0][16])
	assert.Equal(t, "2026-03-14 15:09:27", rows[1][0])
	assert.Equal(t, "Grace", rows[1][1])
	assert.Equal(t, "15", rows[1][16])
	assert.Equal(t, "Ada", rows[2][1])
}

func TestExcelWriter_Empty(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	w := NewExcelWriter(logger)

	var buf bytes.Buffer
	require.NoError(t, w.Write(nil, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Jobs")
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}
