package graphics

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// terminal size used when stdout is not a terminal
const (
	fallbackColumns = 80
	fallbackRows    = 24
)

// TerminalBackend implements the Backend interface for terminal-based rendering
type TerminalBackend struct {
	initialized bool
	config      Config
}

// TerminalWindow renders frames with ANSI true color half blocks
type TerminalWindow struct {
	title   string
	width   int
	height  int
	running bool
	out     io.Writer
	fd      int
	isTTY   bool
}

// NewTerminalBackend creates a new terminal graphics backend
func NewTerminalBackend() Backend {
	return &TerminalBackend{}
}

// Initialize initializes the terminal backend
func (b *TerminalBackend) Initialize(config Config) error {
	if b.initialized {
		return errors.New("terminal backend already initialized")
	}

	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates a terminal "window" on stdout
func (b *TerminalBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, errors.New("backend not initialized")
	}

	fd := int(os.Stdout.Fd())
	w := &TerminalWindow{
		title:   title,
		width:   width,
		height:  height,
		running: true,
		out:     os.Stdout,
		fd:      fd,
		isTTY:   term.IsTerminal(fd),
	}
	return w, nil
}

// Cleanup releases all terminal resources
func (b *TerminalBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false (terminal has basic output)
func (b *TerminalBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *TerminalBackend) GetName() string {
	return "Terminal"
}

// SetTitle sets the terminal title
func (w *TerminalWindow) SetTitle(title string) {
	w.title = title
	if w.isTTY {
		fmt.Fprintf(w.out, "\033]0;%s\007", title)
	}
}

// GetSize returns the terminal size in character cells
func (w *TerminalWindow) GetSize() (width, height int) {
	if w.isTTY {
		if cols, rows, err := term.GetSize(w.fd); err == nil {
			return cols, rows
		}
	}
	return fallbackColumns, fallbackRows
}

// ShouldClose returns true if window should close
func (w *TerminalWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns empty events list (no input handling for now)
func (w *TerminalWindow) PollEvents() []InputEvent {
	return nil
}

// RenderFrame draws the frame scaled to the terminal size
func (w *TerminalWindow) RenderFrame(frame Frame) error {
	cols, rows := w.GetSize()
	return renderANSI(w.out, frame, cols, rows)
}

// Cleanup resets the terminal colors
func (w *TerminalWindow) Cleanup() error {
	w.running = false
	_, err := fmt.Fprint(w.out, "\033[0m\n")
	return err
}

// renderANSI writes the frame as rows of upper half blocks, each cell showing
// two vertically adjacent pixels. The last terminal row holds the status line.
func renderANSI(out io.Writer, frame Frame, cols, rows int) error {
	if err := frame.Validate(); err != nil {
		return err
	}

	cols = min(cols, frame.Width)
	rows = max(rows-1, 1)
	// keep the aspect ratio, a cell is roughly twice as high as wide
	cellRows := min(rows, frame.Height*cols/frame.Width/2)
	cellRows = max(cellRows, 1)
	cols = max(min(cols, frame.Width*cellRows*2/frame.Height), 1)

	bw := bufio.NewWriter(out)
	fmt.Fprint(bw, "\033[H")

	pixel := func(x, y int) (uint8, uint8, uint8) {
		px := x * frame.Width / cols
		py := y * frame.Height / (cellRows * 2)
		i := (py*frame.Width + px) * 3
		return frame.Pixels[i], frame.Pixels[i+1], frame.Pixels[i+2]
	}

	for row := 0; row < cellRows; row++ {
		for x := 0; x < cols; x++ {
			tr, tg, tb := pixel(x, row*2)
			br, bg, bb := pixel(x, row*2+1)
			fmt.Fprintf(bw, "\033[38;2;%d;%d;%dm\033[48;2;%d;%d;%dm▀", tr, tg, tb, br, bg, bb)
		}
		fmt.Fprint(bw, "\033[0m\n")
	}

	if frame.Status != "" {
		fmt.Fprintf(bw, "\033[0m%s\033[K\n", frame.Status)
	}
	return bw.Flush()
}
