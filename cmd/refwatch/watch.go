package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/term"

	"github.com/wippyai/hostref/hostvm"
	"github.com/wippyai/hostref/ref"
	"github.com/wippyai/hostref/resource"
)

const (
	refreshInterval = 250 * time.Millisecond
	eventBacklog    = 256
	eventLines      = 8
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run workloads continuously with a live view",
	Long: `Repeats the run workload until q is pressed, showing live counters
and the latest reference events. Needs a terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("watch needs a terminal; use run instead")
		}
		return runWatch(cmd.Context())
	},
}

// eventFeed forwards reference events to the view. It runs under the VM
// lock, so it only formats and never blocks.
type eventFeed struct {
	ch chan string
}

func (f *eventFeed) OnResourceEvent(e resource.Event) {
	line := fmt.Sprintf("%-15s %-6s slot=%-4d thread=%-7d %s",
		e.Type, hostvm.RefKind(e.TypeID), e.Handle, e.Owner, hostvm.Describe(e))
	select {
	case f.ch <- line:
	default:
	}
}

type statsMsg hostvm.Stats

type eventMsg string

type passMsg struct {
	err error
}

type watchModel struct {
	ctx     context.Context
	vm      *hostvm.VM
	feed    *eventFeed
	work    *workload
	running *sync.WaitGroup
	table   table.Model
	events  []string
	err     error
	passes   int
	paused   bool
	inFlight bool
}

func newWatchModel(ctx context.Context, vm *hostvm.VM, feed *eventFeed, w *workload) *watchModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "counter", Width: 20},
			{Title: "value", Width: 12},
		}),
		table.WithHeight(len(statRows(hostvm.Stats{}))+1),
	)
	return &watchModel{ctx: ctx, vm: vm, feed: feed, work: w, running: &sync.WaitGroup{}, table: t}
}

func (m *watchModel) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.nextEvent(), m.runPass())
}

func (m *watchModel) tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return statsMsg(m.vm.Stats())
	})
}

func (m *watchModel) nextEvent() tea.Cmd {
	return func() tea.Msg {
		line, ok := <-m.feed.ch
		if !ok {
			return nil
		}
		return eventMsg(line)
	}
}

// runPass runs a snapshot of the workload settings, so toggles only take
// effect on the next pass. At most one pass runs at a time; the next one is
// started by the passMsg of the current one.
func (m *watchModel) runPass() tea.Cmd {
	if m.inFlight {
		return nil
	}
	m.inFlight = true
	w := *m.work
	m.running.Add(1)
	return func() tea.Msg {
		defer m.running.Done()
		return passMsg{err: w.run(m.ctx)}
	}
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "p":
			m.paused = !m.paused
			if !m.paused {
				return m, m.runPass()
			}
		case "l":
			m.work.leak = !m.work.leak
		case "m":
			m.work.missing = !m.work.missing
		}

	case statsMsg:
		rows := make([]table.Row, 0, 12)
		for _, r := range statRows(hostvm.Stats(msg)) {
			rows = append(rows, table.Row{r[0], r[1]})
		}
		m.table.SetRows(rows)
		return m, m.tick()

	case eventMsg:
		m.events = append(m.events, string(msg))
		if len(m.events) > eventLines {
			m.events = m.events[len(m.events)-eventLines:]
		}
		return m, m.nextEvent()

	case passMsg:
		m.inFlight = false
		m.passes++
		if msg.err != nil {
			m.err = msg.err
		}
		if !m.paused {
			return m, m.runPass()
		}
	}
	return m, nil
}

func (m *watchModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("refwatch"))
	fmt.Fprintf(&b, " %d passes", m.passes)
	if m.paused {
		b.WriteString(" (paused)")
	}
	fmt.Fprintf(&b, "  leak=%v missing=%v\n\n", m.work.leak, m.work.missing)

	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("recent events"))
	b.WriteString("\n")
	for _, e := range m.events {
		b.WriteString(e)
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("p pause • l toggle leak • m toggle missing • q quit"))
	return b.String()
}

func runWatch(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d, err := loadDefinition()
	if err != nil {
		return err
	}
	vm, err := hostvm.New(ctx, vmOptions(d)...)
	if err != nil {
		return err
	}
	ref.RegisterHost(vm)

	feed := &eventFeed{ch: make(chan string, eventBacklog)}
	vm.Subscribe(feed)

	w := &workload{def: d, workers: workers, iterations: iterations, leak: leak, missing: missing}
	model := newWatchModel(ctx, vm, feed, w)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()

	cancel()
	model.running.Wait()
	vm.Unsubscribe(feed)
	close(feed.ch)
	return multierr.Append(err, vm.Close(context.Background()))
}
