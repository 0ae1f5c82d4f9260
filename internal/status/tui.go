package status

import (
	tea "github.com/charmbracelet/bubbletea"
)

// VolumeControl carries gain-change requests from the dashboard back
// to the caller driving the output queue.
type VolumeControl struct {
	Changes chan GainChangeMsg
}

// NewVolumeControl creates a buffered gain-change channel.
func NewVolumeControl() *VolumeControl {
	return &VolumeControl{Changes: make(chan GainChangeMsg, 10)}
}

// Run builds the dashboard program for deviceName, wired to volCtrl
// for outgoing gain-change requests. The returned program is not yet
// running; the caller starts it with its Run method.
func Run(deviceName string, volCtrl *VolumeControl) *tea.Program {
	return tea.NewProgram(NewModel(deviceName, volCtrl), tea.WithAltScreen())
}
