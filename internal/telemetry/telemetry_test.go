package telemetry_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Akira-11-20/hilsim/internal/telemetry"
)

func TestControllerLogger_WritesHeaderAndFlushesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", telemetry.ControllerLogFilename)
	logger, err := telemetry.NewControllerLogger(path)
	require.NoError(t, err)

	require.NoError(t, logger.WriteRow(telemetry.ControllerRow{Seq: 1, Altitude: 1.5, Timeout: false}))
	require.NoError(t, logger.WriteRow(telemetry.ControllerRow{Seq: 2, Timeout: true}))
	require.NoError(t, logger.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "seq", records[0][0])
	require.Equal(t, "1", records[1][0])
	require.Equal(t, "false", records[1][len(records[1])-1])
	require.Equal(t, "true", records[2][len(records[2])-1])
}

func TestPlantLogger_WritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), telemetry.PlantLogFilename)
	logger, err := telemetry.NewPlantLogger(path)
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })

	require.NoError(t, logger.WriteRow(telemetry.PlantRow{
		Seq: 7, ClientAddr: "127.0.0.1:5000", PacketSize: 32,
	}))
	require.NoError(t, logger.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "client_addr", records[0][len(records[0])-2])
	require.Equal(t, "127.0.0.1:5000", records[1][len(records[1])-2])
	require.Equal(t, "32", records[1][len(records[1])-1])
}

func TestRunDir_UsesExplicitDateDir(t *testing.T) {
	got := telemetry.RunDir("/logs", "2026-01-15", "ignored", time.Now())
	require.Equal(t, filepath.Join("/logs", "2026-01-15"), got)
}

func TestRunDir_GeneratesFromNow(t *testing.T) {
	now := time.Date(2026, 7, 29, 14, 5, 9, 0, time.UTC)
	got := telemetry.RunDir("/logs", "", "altitude-hold", now)
	require.Equal(t, filepath.Join("/logs", "2026-07-29", "140509_altitude-hold"), got)
}

func TestRunDir_GeneratesWithoutDescription(t *testing.T) {
	now := time.Date(2026, 7, 29, 14, 5, 9, 0, time.UTC)
	got := telemetry.RunDir("/logs", "", "", now)
	require.Equal(t, filepath.Join("/logs", "2026-07-29", "140509"), got)
}
