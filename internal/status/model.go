// Package status renders a terminal dashboard of the receiver's
// timing and buffering state: sync quality, queue depth, line/frame
// time, and applied gain.
package status

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/airsync-go/raopcore/pkg/raop/output"
)

// Model is the bubbletea model backing the dashboard.
type Model struct {
	width, height int

	deviceName string
	connected  bool

	synced   bool
	offsetMS float64

	stats output.Stats

	showDebug bool

	volumeCtrl *VolumeControl
}

// NewModel constructs the dashboard's initial state.
func NewModel(deviceName string, volCtrl *VolumeControl) Model {
	return Model{deviceName: deviceName, volumeCtrl: volCtrl}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}
	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	s := m.renderHeader()
	s += m.renderQueue()
	if m.showDebug {
		s += m.renderDebug()
	}
	s += m.renderHelp()
	return s
}

func (m Model) renderHeader() string {
	conn := "waiting for sender"
	if m.connected {
		conn = "streaming from " + m.deviceName
	}

	sync := "not synchronized"
	if m.synced {
		sync = fmt.Sprintf("synced (offset %+.2fms)", m.offsetMS)
	}

	return fmt.Sprintf(
		"┌─ raop-core ──────────────────────────────────┐\n"+
			"│ %-46s │\n"+
			"│ %-46s │\n"+
			"├────────────────────────────────────────────┤\n",
		conn, sync,
	)
}

func (m Model) renderQueue() string {
	return fmt.Sprintf(
		"│ queue depth:   %-30d │\n"+
			"│ line frames:   %-30d │\n"+
			"│ gain:          %-30.2f │\n",
		m.stats.QueueDepth, m.stats.LineFramesWritten, m.stats.AppliedGain,
	)
}

func (m Model) renderDebug() string {
	return fmt.Sprintf(
		"├────────────────────────────────────────────┤\n"+
			"│ latest frame seen: %-26d │\n",
		m.stats.LatestSeenFrameTime,
	)
}

func (m Model) renderHelp() string {
	return "│ ↑/↓:gain  d:debug  q:quit                   │\n" +
		"└────────────────────────────────────────────┘\n"
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up":
		m.requestGain(m.stats.AppliedGain + 0.05)
	case "down":
		m.requestGain(m.stats.AppliedGain - 0.05)
	case "d":
		m.showDebug = !m.showDebug
	}
	return m, nil
}

func (m Model) requestGain(gain float32) {
	if m.volumeCtrl == nil {
		return
	}
	select {
	case m.volumeCtrl.Changes <- GainChangeMsg{Gain: gain}:
	default:
	}
}

func (m *Model) applyStatus(msg StatusMsg) {
	m.connected = msg.Connected
	m.synced = msg.Synced
	m.offsetMS = msg.OffsetMS
	m.stats = msg.Stats
}

// StatusMsg carries a snapshot of receiver state into the dashboard.
type StatusMsg struct {
	Connected bool
	Synced    bool
	OffsetMS  float64
	Stats     output.Stats
}

// GainChangeMsg requests a new linear gain from the dashboard.
type GainChangeMsg struct {
	Gain float32
}
