package app

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gosms/internal/system"
)

// ErrNotRunning is returned when stepping an emulator without a loaded game.
var ErrNotRunning = errors.New("emulator is not running")

// frames kept in the timing history, a few seconds at 60 FPS
const timingHistorySize = 180

// Emulator drives the system frame by frame and keeps timing statistics
type Emulator struct {
	system *system.System
	config *Config

	targetFrameTime time.Duration
	nextFrame       time.Time
	now             func() time.Time
	sleep           func(time.Duration)

	// performance monitoring
	emulationTime    time.Duration
	averageFrameTime time.Duration
	frameTimes       *CircularTimingBuffer
	frameCount       uint64
	cappedFrames     uint64
	lastResetTime    time.Time

	isRunning bool
	paused    bool
}

// EmulatorStats holds the statistics reported by the emulator
type EmulatorStats struct {
	FrameCount       uint64
	CycleCount       uint64
	CappedFrames     uint64
	EmulationTime    time.Duration
	AverageFrameTime time.Duration
	TargetFrameTime  time.Duration
	FrameJitter      time.Duration
	EmulationSpeed   float64
	Uptime           time.Duration
	IsRunning        bool
	Paused           bool
}

// NewEmulator creates a new emulator for a system
func NewEmulator(sys *system.System, config *Config) *Emulator {
	e := &Emulator{
		system:     sys,
		config:     config,
		now:        time.Now,
		sleep:      time.Sleep,
		frameTimes: NewCircularTimingBuffer(timingHistorySize),
	}
	e.Reset()
	return e
}

// Reset clears the statistics and takes the frame time of the loaded game
func (e *Emulator) Reset() {
	e.targetFrameTime = e.system.SystemInfo().FrameTargetTime
	e.nextFrame = time.Time{}
	e.emulationTime = 0
	e.averageFrameTime = 0
	e.frameCount = 0
	e.cappedFrames = 0
	e.frameTimes.Clear()
	e.lastResetTime = e.now()
}

// Start starts the emulator
func (e *Emulator) Start() {
	e.isRunning = true
	e.nextFrame = time.Time{}
}

// Stop stops the emulator
func (e *Emulator) Stop() {
	e.isRunning = false
}

// SetPaused pauses or resumes frame emulation
func (e *Emulator) SetPaused(paused bool) {
	e.paused = paused
	e.nextFrame = time.Time{}
}

// TogglePause flips the paused state and returns the new state
func (e *Emulator) TogglePause() bool {
	e.SetPaused(!e.paused)
	return e.paused
}

// IsPaused returns whether emulation is paused
func (e *Emulator) IsPaused() bool {
	return e.paused
}

// Update runs one frame unless the emulator is stopped or paused
func (e *Emulator) Update() error {
	if !e.isRunning || e.paused {
		return nil
	}
	return e.StepFrame()
}

// StepFrame executes exactly one frame of emulation
func (e *Emulator) StepFrame() error {
	if e.system.State() != system.Running {
		return ErrNotRunning
	}

	start := e.now()
	result, err := e.system.Tick()
	e.emulationTime = e.now().Sub(start)
	if err != nil {
		return fmt.Errorf("frame execution error: %w", err)
	}

	e.frameCount++
	if result.CapReached {
		e.cappedFrames++
	}
	e.updatePerformanceMetrics()
	return nil
}

func (e *Emulator) updatePerformanceMetrics() {
	e.frameTimes.Add(e.emulationTime)
	if e.averageFrameTime == 0 {
		e.averageFrameTime = e.emulationTime
		return
	}
	e.averageFrameTime = time.Duration(
		float64(e.averageFrameTime)*0.95 + float64(e.emulationTime)*0.05,
	)
}

// WaitForNextFrame sleeps until the next frame is due when frame limiting is
// enabled. A host that fell more than a frame behind resynchronizes instead of
// running frames back to back.
func (e *Emulator) WaitForNextFrame() {
	if !e.config.Emulation.FrameLimit || e.targetFrameTime <= 0 {
		return
	}

	now := e.now()
	if e.nextFrame.IsZero() || now.Sub(e.nextFrame) > e.targetFrameTime {
		e.nextFrame = now.Add(e.targetFrameTime)
		return
	}

	if wait := e.nextFrame.Sub(now); wait > 0 {
		e.sleep(wait)
	}
	e.nextFrame = e.nextFrame.Add(e.targetFrameTime)
}

// GetFrameCount returns the number of frames emulated since the last reset
func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

// GetTargetFrameTime returns the frame time of the loaded game's region
func (e *Emulator) GetTargetFrameTime() time.Duration {
	return e.targetFrameTime
}

// GetEmulationSpeed returns how much faster than real time a frame is
// emulated, as a percentage.
func (e *Emulator) GetEmulationSpeed() float64 {
	if e.averageFrameTime == 0 {
		return 0.0
	}
	return float64(e.targetFrameTime) / float64(e.averageFrameTime) * 100.0
}

// IsRunning returns whether the emulator is running
func (e *Emulator) IsRunning() bool {
	return e.isRunning
}

// GetPerformanceStats returns the current statistics
func (e *Emulator) GetPerformanceStats() EmulatorStats {
	return EmulatorStats{
		FrameCount:       e.frameCount,
		CycleCount:       e.system.CycleCount(),
		CappedFrames:     e.cappedFrames,
		EmulationTime:    e.emulationTime,
		AverageFrameTime: e.averageFrameTime,
		TargetFrameTime:  e.targetFrameTime,
		FrameJitter:      e.frameTimes.Jitter(),
		EmulationSpeed:   e.GetEmulationSpeed(),
		Uptime:           e.now().Sub(e.lastResetTime),
		IsRunning:        e.isRunning,
		Paused:           e.paused,
	}
}

// CircularTimingBuffer keeps the most recent frame durations
type CircularTimingBuffer struct {
	values []time.Duration
	next   int
	count  int
}

// NewCircularTimingBuffer creates a buffer holding up to size durations
func NewCircularTimingBuffer(size int) *CircularTimingBuffer {
	return &CircularTimingBuffer{
		values: make([]time.Duration, size),
	}
}

// Add stores a duration, overwriting the oldest one when full
func (b *CircularTimingBuffer) Add(d time.Duration) {
	b.values[b.next] = d
	b.next = (b.next + 1) % len(b.values)
	if b.count < len(b.values) {
		b.count++
	}
}

// Clear removes all durations
func (b *CircularTimingBuffer) Clear() {
	b.next = 0
	b.count = 0
}

// Len returns the number of stored durations
func (b *CircularTimingBuffer) Len() int {
	return b.count
}

// Average returns the mean of the stored durations
func (b *CircularTimingBuffer) Average() time.Duration {
	if b.count == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range b.values[:b.count] {
		sum += d
	}
	return sum / time.Duration(b.count)
}

// Jitter returns the standard deviation of the stored durations
func (b *CircularTimingBuffer) Jitter() time.Duration {
	if b.count < 2 {
		return 0
	}
	avg := float64(b.Average())
	var variance float64
	for _, d := range b.values[:b.count] {
		diff := float64(d) - avg
		variance += diff * diff
	}
	return time.Duration(math.Sqrt(variance / float64(b.count)))
}
