// Package tui implements a live dashboard for a running policy loop,
// grounded in rawwerks-srps-arch/internal/ui's bubbletea+lipgloss monitor:
// a ticking Model pulling the latest snapshot off a channel and rendering
// per-app gauge bars. `cmd/monitor` attaches this to a running Supervisor
// via the Snapshot-producing Observer in this package.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/edge-dvfs/policyd/internal/sensor"
	"github.com/edge-dvfs/policyd/internal/supervisor"
)

// Snapshot is the latest known state of every app plus the sampler, as
// published by Observer.
type Snapshot struct {
	Apps      map[string]supervisor.Heartbeat
	Rails     map[sensor.Rail]float64
	CPUFreq   int64
	GPUFreq   int64
	Crashed   map[string]bool
	Timestamp time.Time
}

func newSnapshot() Snapshot {
	return Snapshot{
		Apps:    map[string]supervisor.Heartbeat{},
		Rails:   map[sensor.Rail]float64{},
		Crashed: map[string]bool{},
	}
}

// Observer implements supervisor.Observer, republishing every event as an
// updated Snapshot on Stream(). Unlike metrics.Recorder (a pure sink), the
// TUI needs the latest full picture per tick, so it keeps one mutable
// Snapshot and re-sends a copy on every event.
type Observer struct {
	out  chan Snapshot
	snap Snapshot
}

// NewObserver returns an Observer whose Stream channel is buffered by one
// slot, so a slow-to-render TUI drops intermediate ticks rather than
// blocking the Supervisor (spec.md's Observer contract: must never affect
// Execute's return value or its pacing).
func NewObserver() *Observer {
	return &Observer{out: make(chan Snapshot, 1), snap: newSnapshot()}
}

// Stream returns the channel of Snapshot updates.
func (o *Observer) Stream() <-chan Snapshot { return o.out }

func (o *Observer) WorkerHeartbeat(app string, hb supervisor.Heartbeat) {
	o.snap.Apps[app] = hb
	o.publish()
}

func (o *Observer) SamplerTick(rec supervisor.SamplerRecord) {
	for rail, v := range rec.AvgPowerMilliwatt {
		o.snap.Rails[rail] = v
	}
	o.snap.CPUFreq = rec.CPUFreq
	o.snap.GPUFreq = rec.GPUFreq
	o.publish()
}

func (o *Observer) WorkerCrashed(app string, _ error) {
	o.snap.Crashed[app] = true
	o.publish()
}

func (o *Observer) publish() {
	o.snap.Timestamp = time.Now()
	cp := o.snap
	cp.Apps = cloneHB(o.snap.Apps)
	cp.Rails = cloneRail(o.snap.Rails)
	cp.Crashed = cloneBool(o.snap.Crashed)

	select {
	case o.out <- cp:
	default:
		select {
		case <-o.out:
		default:
		}
		o.out <- cp
	}
}

func cloneHB(m map[string]supervisor.Heartbeat) map[string]supervisor.Heartbeat {
	c := make(map[string]supervisor.Heartbeat, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneRail(m map[sensor.Rail]float64) map[sensor.Rail]float64 {
	c := make(map[sensor.Rail]float64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneBool(m map[string]bool) map[string]bool {
	c := make(map[string]bool, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Model is the bubbletea model driving the dashboard.
type Model struct {
	stream    <-chan Snapshot
	ctxCancel context.CancelFunc
	latest    Snapshot
}

// New builds a Model consuming stream; cancel is called when the user
// presses q or ctrl+c, letting the caller tear down the Supervisor Run
// the dashboard is attached to.
func New(stream <-chan Snapshot, cancel context.CancelFunc) *Model {
	return &Model{stream: stream, ctxCancel: cancel, latest: newSnapshot()}
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) Init() tea.Cmd { return tickCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.ctxCancel != nil {
				m.ctxCancel()
			}
			return m, tea.Quit
		}
	case tickMsg:
		select {
		case snap, ok := <-m.stream:
			if ok {
				m.latest = snap
			}
		default:
		}
		return m, tickCmd()
	}
	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

func (m *Model) View() string {
	s := m.latest
	header := titleStyle.Render("policyd monitor") + "  " +
		fmt.Sprintf("cpu=%d gpu=%d", s.CPUFreq, s.GPUFreq)

	names := make([]string, 0, len(s.Apps))
	for name := range s.Apps {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows []string
	for _, name := range names {
		hb := s.Apps[name]
		status := name
		if s.Crashed[name] {
			status = warnStyle.Render(name + " CRASHED")
		}
		rows = append(rows, fmt.Sprintf("%-16s observed=%7.2f actual=%7.2f", status, hb.ObservedTp, hb.ActualTp))
	}
	appsCard := card("Apps", strings.Join(rows, "\n"))

	var railRows []string
	for _, rail := range sensor.Rails {
		if v, ok := s.Rails[rail]; ok {
			railRows = append(railRows, fmt.Sprintf("%-16s %8.2f mW", rail, v))
		}
	}
	powerCard := card("Power", strings.Join(railRows, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left, header, lipgloss.JoinHorizontal(lipgloss.Top, appsCard, powerCard))
}

func card(title, body string) string {
	return cardStyle.Render(labelStyle.Render(title) + "\n" + body)
}

// Run starts the Bubble Tea program, blocking until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, stream <-chan Snapshot) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	model := New(stream, cancel)
	prog := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		<-ctx.Done()
		prog.Quit()
	}()

	_, err := prog.Run()
	return err
}
