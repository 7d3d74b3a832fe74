package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gosms/internal/system"
	"gosms/internal/version"
)

// work RAM window of the Z80 address space
const (
	workRAMStart = 0xC000
	workRAMSize  = 0x2000
	cramSize     = 32
)

const snapshotPrefix = "state_"

// StateManager writes machine state snapshots for debugging
type StateManager struct {
	directory string
	now       func() time.Time
}

// Snapshot is a machine state dump of a running game
type Snapshot struct {
	// Metadata
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	ROMPath   string    `json:"rom_path"`
	Region    string    `json:"region"`
	Mapper    string    `json:"mapper"`

	FrameCount uint64 `json:"frame_count"`
	CycleCount uint64 `json:"cycle_count"`

	CPU CPUStateData `json:"cpu"`
	VDP VDPStateData `json:"vdp"`

	WorkRAM []uint8 `json:"work_ram"`
}

// CPUStateData represents the Z80 registers in a snapshot
type CPUStateData struct {
	PC     uint16 `json:"pc"`
	SP     uint16 `json:"sp"`
	AF     uint16 `json:"af"`
	BC     uint16 `json:"bc"`
	DE     uint16 `json:"de"`
	HL     uint16 `json:"hl"`
	IX     uint16 `json:"ix"`
	IY     uint16 `json:"iy"`
	I      uint8  `json:"i"`
	R      uint8  `json:"r"`
	IFF1   bool   `json:"iff1"`
	IFF2   bool   `json:"iff2"`
	IM     uint8  `json:"im"`
	Halted bool   `json:"halted"`
	Cycles uint64 `json:"cycles"`
	Flags  string `json:"flags"`
}

// VDPStateData represents the VDP in a snapshot
type VDPStateData struct {
	Line           int       `json:"line"`
	VCounter       uint8     `json:"vcounter"`
	HCounter       uint8     `json:"hcounter"`
	Status         uint8     `json:"status"`
	ActiveLines    int       `json:"active_lines"`
	DisplayEnabled bool      `json:"display_enabled"`
	Registers      [11]uint8 `json:"registers"`
	CRAM           []uint8   `json:"cram"`
}

// NewStateManager creates a state manager writing to directory
func NewStateManager(directory string) *StateManager {
	return &StateManager{
		directory: directory,
		now:       time.Now,
	}
}

// Capture builds a snapshot of the running system
func (sm *StateManager) Capture(sys *system.System, romPath string) (*Snapshot, error) {
	game := sys.Game()
	if sys.State() != system.Running || game == nil {
		return nil, ErrNotRunning
	}

	cpuState := sys.CPUState()
	vdpState := sys.VDPState()

	snapshot := &Snapshot{
		Version:    version.GetVersion(),
		Timestamp:  sm.now(),
		ROMPath:    romPath,
		Region:     vdpState.Region.String(),
		Mapper:     game.MapperKind().String(),
		FrameCount: sys.FrameCount(),
		CycleCount: sys.CycleCount(),
		CPU: CPUStateData{
			PC:     cpuState.PC,
			SP:     cpuState.SP,
			AF:     cpuState.AF,
			BC:     cpuState.BC,
			DE:     cpuState.DE,
			HL:     cpuState.HL,
			IX:     cpuState.IX,
			IY:     cpuState.IY,
			I:      cpuState.I,
			R:      cpuState.R,
			IFF1:   cpuState.IFF1,
			IFF2:   cpuState.IFF2,
			IM:     uint8(cpuState.IM),
			Halted: cpuState.Halted,
			Cycles: cpuState.Cycles,
			Flags:  cpuState.Flags,
		},
		VDP: VDPStateData{
			Line:           vdpState.Line,
			VCounter:       vdpState.VCounter,
			HCounter:       vdpState.HCounter,
			Status:         vdpState.Status,
			ActiveLines:    int(vdpState.LineMode),
			DisplayEnabled: vdpState.DisplayEnabled,
			Registers:      vdpState.Registers,
			CRAM:           make([]uint8, cramSize),
		},
		WorkRAM: make([]uint8, workRAMSize),
	}

	for i := range snapshot.VDP.CRAM {
		snapshot.VDP.CRAM[i] = sys.VDP.CRAM(i)
	}
	for i := range snapshot.WorkRAM {
		snapshot.WorkRAM[i] = sys.Memory.Read(uint16(workRAMStart + i))
	}
	return snapshot, nil
}

// SaveSnapshot captures the system state and writes it as JSON, returning
// the file path.
func (sm *StateManager) SaveSnapshot(sys *system.System, romPath string) (string, error) {
	snapshot, err := sm.Capture(sys, romPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(sm.directory, 0755); err != nil {
		return "", fmt.Errorf("creating state directory: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling state: %w", err)
	}

	name := fmt.Sprintf("%s%06d_%s.json", snapshotPrefix, snapshot.FrameCount,
		snapshot.Timestamp.Format("20060102_150405"))
	path := filepath.Join(sm.directory, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing state file: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot file back for inspection
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}
	return &snapshot, nil
}

// ListSnapshots returns the snapshot files in the state directory sorted by name
func (sm *StateManager) ListSnapshots() ([]string, error) {
	entries, err := os.ReadDir(sm.directory)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || filepath.Ext(name) != ".json" {
			continue
		}
		files = append(files, filepath.Join(sm.directory, name))
	}
	sort.Strings(files)
	return files, nil
}
