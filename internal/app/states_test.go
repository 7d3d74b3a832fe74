package app

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gosms/internal/system"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func TestCaptureRequiresGame(t *testing.T) {
	sm := NewStateManager(t.TempDir())
	_, err := sm.Capture(system.New(log.NewTestLogger(t)), "")
	assert.True(t, errors.Is(err, ErrNotRunning))
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	sys := newRunningSystem(t)
	_, err := sys.Tick()
	assert.NoError(t, err)
	sys.Memory.Write(0xC010, 0x5A)

	dir := filepath.Join(t.TempDir(), "states")
	sm := NewStateManager(dir)
	sm.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }

	path, err := sm.SaveSnapshot(sys, "game.sms")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "state_000001_20240506_070809.json"), path)

	snapshot, err := LoadSnapshot(path)
	assert.NoError(t, err)
	assert.Equal(t, "game.sms", snapshot.ROMPath)
	assert.Equal(t, "NTSC", snapshot.Region)
	assert.Equal(t, "rom-only", snapshot.Mapper)
	assert.Equal(t, uint64(1), snapshot.FrameCount)
	assert.Equal(t, uint16(0x0002), snapshot.CPU.PC)
	assert.Equal(t, uint16(0x42), snapshot.CPU.AF>>8)
	assert.True(t, snapshot.CPU.Halted)
	assert.Equal(t, 192, snapshot.VDP.ActiveLines)
	assert.Len(t, snapshot.VDP.CRAM, 32)
	assert.Len(t, snapshot.WorkRAM, 0x2000)
	assert.Equal(t, uint8(0x5A), snapshot.WorkRAM[0x10])

	files, err := sm.ListSnapshots()
	assert.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestListSnapshotsMissingDirectory(t *testing.T) {
	sm := NewStateManager(filepath.Join(t.TempDir(), "missing"))
	files, err := sm.ListSnapshots()
	assert.NoError(t, err)
	assert.Len(t, files, 0)
}

func TestLoadSnapshotMissing(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}
