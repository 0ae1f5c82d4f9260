package status

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/airsync-go/raopcore/pkg/raop/output"
)

func TestApplyStatusUpdatesStats(t *testing.T) {
	m := NewModel("test", nil)
	m.width = 50

	updated, _ := m.Update(StatusMsg{
		Connected: true,
		Synced:    true,
		OffsetMS:  1.5,
		Stats:     output.Stats{QueueDepth: 3, LineFramesWritten: 1000},
	})

	mm := updated.(Model)
	require.True(t, mm.connected)
	require.True(t, mm.synced)
	require.Equal(t, 3, mm.stats.QueueDepth)
}

func TestQuitKeyReturnsQuitCmd(t *testing.T) {
	m := NewModel("test", nil)
	m.width = 50

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
}

func TestUpArrowSendsGainChangeRequest(t *testing.T) {
	volCtrl := NewVolumeControl()
	m := NewModel("test", volCtrl)
	m.width = 50
	m.stats.AppliedGain = 0.5

	m.Update(tea.KeyMsg{Type: tea.KeyUp})

	select {
	case msg := <-volCtrl.Changes:
		require.InDelta(t, 0.55, msg.Gain, 0.001)
	default:
		t.Fatal("expected a gain change request")
	}
}
