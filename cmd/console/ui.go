package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wricardo/monopoly-game/game/board"
	"github.com/wricardo/monopoly-game/game/driver"
	"github.com/wricardo/monopoly-game/game/engine"
	"github.com/wricardo/monopoly-game/game/service"
)

const (
	playersPanelWidth = 46
	maxLogLines       = 200
)

// botPollInterval is how often the console checks on computer turns, which
// the server plays on its own
var botPollInterval = 400 * time.Millisecond

type phase int

const (
	phaseSelect phase = iota
	phasePlay
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	api *apiClient

	phase    phase
	configs  []*service.ConfigInfo
	selected int

	gameID    string
	state     *engine.GameState
	log       []string
	lastEvent time.Time

	logViewport viewport.Model
	ready       bool
	width       int
	height      int
	loading     bool
	err         error
}

type configsLoadedMsg struct {
	configs []*service.ConfigInfo
	err     error
}

type gameCreatedMsg struct {
	info *service.SessionInfo
	err  error
}

type turnMsg struct {
	result *driver.TurnResult
	err    error
}

type botsMsg struct {
	state  *engine.GameState
	events []driver.Event
	err    error
}

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("205")).
			Bold(true)

	offerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // yellow
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

// playerColors maps preset color names onto terminal colors
var playerColors = map[string]lipgloss.Color{
	"red":    "196",
	"blue":   "39",
	"green":  "46",
	"yellow": "226",
	"purple": "129",
	"orange": "208",
	"pink":   "205",
	"cyan":   "51",
}

func NewConsoleUI(api *apiClient) ConsoleUI {
	return ConsoleUI{
		api:         api,
		phase:       phaseSelect,
		loading:     true,
		logViewport: viewport.New(60, 20),
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadConfigs()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logViewport.Width = max(m.width-playersPanelWidth-6, 20)
		m.logViewport.Height = max(m.height-8, 5)
		m.ready = true
		m.refreshLog()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		if m.phase == phaseSelect {
			return m.updateSelect(msg)
		}
		return m.updatePlay(msg)

	case configsLoadedMsg:
		m.loading = false
		m.configs, m.err = msg.configs, msg.err
		return m, nil

	case gameCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.phase = phasePlay
		m.gameID = msg.info.ID
		m.state = msg.info.GameState
		m.appendLog(fmt.Sprintf("Started %s as game %s", msg.info.ConfigName, msg.info.ID))
		return m.advance()

	case turnMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.logEvents(msg.result.Events)
		if msg.result.State != nil {
			m.state = msg.result.State
		}
		return m.advance()

	case botsMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.logEvents(msg.events)
			m.state = msg.state
		}
		return m.advance()
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

func (m ConsoleUI) updateSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loading || len(m.configs) == 0 {
		return m, nil
	}
	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.configs)-1 {
			m.selected++
		}
	case "enter":
		m.loading = true
		return m, m.createGame(m.configs[m.selected].ConfigID)
	}
	return m, nil
}

func (m ConsoleUI) updatePlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	switch msg.String() {
	case "r":
		if m.canRoll() {
			m.loading = true
			return m, m.turn("roll")
		}
	case "b", "y":
		if m.canDecide() {
			m.loading = true
			return m, m.turn("buy")
		}
	case "s", "n":
		if m.canDecide() {
			m.loading = true
			return m, m.turn("skip")
		}
	default:
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// advance follows the server's computer turns until a human has to act
func (m ConsoleUI) advance() (tea.Model, tea.Cmd) {
	if active, ok := m.activePlayer(); ok && active.IsAI {
		m.loading = true
		return m, m.waitForBots()
	}
	return m, nil
}

func (m *ConsoleUI) logEvents(events []driver.Event) {
	for _, e := range events {
		if e.Timestamp.After(m.lastEvent) {
			m.lastEvent = e.Timestamp
		}
		if e.Type == driver.EventMove {
			continue
		}
		m.appendLog(e.Message)
	}
}

func (m ConsoleUI) activePlayer() (engine.PlayerState, bool) {
	if m.state == nil {
		return engine.PlayerState{}, false
	}
	return m.state.ActivePlayer()
}

func (m ConsoleUI) humanTurn() bool {
	active, ok := m.activePlayer()
	return ok && !active.IsAI
}

func (m ConsoleUI) canRoll() bool {
	return m.humanTurn() && m.state.WaitingFor == engine.AwaitingRoll
}

func (m ConsoleUI) canDecide() bool {
	return m.humanTurn() && m.state.WaitingFor == engine.AwaitingPropertyDecision
}

func (m *ConsoleUI) appendLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
	m.refreshLog()
}

func (m *ConsoleUI) refreshLog() {
	m.logViewport.SetContent(strings.Join(m.log, "\n"))
	m.logViewport.GotoBottom()
}

func (m ConsoleUI) loadConfigs() tea.Cmd {
	return func() tea.Msg {
		configs, err := m.api.listConfigs()
		return configsLoadedMsg{configs: configs, err: err}
	}
}

func (m ConsoleUI) createGame(configID string) tea.Cmd {
	return func() tea.Msg {
		info, err := m.api.createGame(configID)
		return gameCreatedMsg{info: info, err: err}
	}
}

func (m ConsoleUI) turn(action string) tea.Cmd {
	gameID := m.gameID
	return func() tea.Msg {
		result, err := m.api.turn(gameID, action)
		return turnMsg{result: result, err: err}
	}
}

func (m ConsoleUI) waitForBots() tea.Cmd {
	gameID, since := m.gameID, m.lastEvent
	return tea.Tick(botPollInterval, func(time.Time) tea.Msg {
		state, err := m.api.state(gameID)
		if err != nil {
			return botsMsg{err: err}
		}
		events, err := m.api.eventsSince(gameID, since)
		return botsMsg{state: state, events: events, err: err}
	})
}

func (m ConsoleUI) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("MONOPOLY") + "\n\n")

	if m.phase == phaseSelect {
		b.WriteString(m.viewSelect())
	} else {
		b.WriteString(m.viewPlay())
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()))
	}
	return b.String()
}

func (m ConsoleUI) viewSelect() string {
	if m.loading {
		return "Loading...\n"
	}

	var b strings.Builder
	b.WriteString("Choose a game setup:\n\n")
	for i, c := range m.configs {
		line := fmt.Sprintf(" %s (%d players, $%d) ", c.Name, c.Players, c.StartingMoney)
		if i == m.selected {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("↑/↓ select • enter start • q quit") + "\n")
	return b.String()
}

func (m ConsoleUI) viewPlay() string {
	players := panelStyle.Width(playersPanelWidth).Render(renderPlayers(m.state))
	events := panelStyle.Render(m.logViewport.View())

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, players, events) + "\n")
	b.WriteString(m.status() + "\n")
	b.WriteString(helpStyle.Render("r roll • b buy • s skip • ↑/↓ scroll • q quit") + "\n")
	return b.String()
}

// status describes what the table is waiting for
func (m ConsoleUI) status() string {
	if m.state == nil {
		return ""
	}
	active, ok := m.activePlayer()
	switch {
	case ok && active.IsAI:
		return fmt.Sprintf("%s is thinking...", active.Name)
	case m.loading:
		return "..."
	case m.canDecide():
		tile := board.Get(m.state.CurrentProperty)
		return offerStyle.Render(fmt.Sprintf("Buy %s for $%d? [b]uy / [s]kip", tile.Name, tile.Price))
	case m.canRoll():
		return fmt.Sprintf("%s, press r to roll", active.Name)
	}
	return ""
}

func renderPlayers(state *engine.GameState) string {
	if state == nil {
		return ""
	}

	var b strings.Builder
	for i, p := range state.Players {
		marker := "  "
		if i == state.Turn {
			marker = "> "
		}

		name := p.Name
		if color, ok := playerColors[p.Color]; ok {
			name = lipgloss.NewStyle().Foreground(color).Bold(true).Render(p.Name)
		}
		if p.IsAI {
			name += helpStyle.Render(" (ai)")
		}

		b.WriteString(fmt.Sprintf("%s%s  $%d\n", marker, name, p.Money))
		b.WriteString(fmt.Sprintf("    on %s, owns %d\n", board.Get(p.Position).Name, len(state.OwnedBy(p.ID))))
	}

	if state.LastRoll > 0 {
		b.WriteString(fmt.Sprintf("\nLast roll: %d + %d = %d\n", state.Dice[0], state.Dice[1], state.LastRoll))
	}
	return b.String()
}
