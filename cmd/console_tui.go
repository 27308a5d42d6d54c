// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/meridian/pkg/starneto"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Focus states
const (
	focusHeadList = iota
	focusCommandInput
)

const listWidth = 30

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// headItem is one sentence type in the list, with its latest sentence
type headItem struct {
	headInfo
	last   *starneto.Sentence
	lastAt time.Time
}

// Implement list.Item interface
func (h headItem) Title() string       { return fmt.Sprintf("%s %s", h.head, starneto.FormatHead(h.head)) }
func (h headItem) Description() string { return fmt.Sprintf("%d sentences, %.1f Hz", h.count, h.rate()) }
func (h headItem) FilterValue() string { return h.head }

// consoleModel is the Bubble Tea model for the console TUI
type consoleModel struct {
	// Connection manager (for sending commands and reconnection)
	connMgr  *connectionManager
	connInfo string

	// Sentence tracking
	survey   *surveyResult
	latest   map[string]headItem
	headList list.Model

	// Monitoring (reused from tui.go patterns)
	stats         *starneto.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int

	// Commands
	commandInput textinput.Model
	focusedField int
	sent         int
	replies      int

	// UI state
	width          int
	height         int
	synchronized   bool
	quitting       bool
	connectionLost bool
	sourceEnded    bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type consoleTickMsg time.Time

type consoleDataMsg struct {
	sentenceEvent
	parser starneto.ParserStats
	synced bool // first valid sentence on this connection
}

type consoleBatchMsg struct {
	messages []consoleDataMsg
}

type connectionLostMsg struct {
	err   error
	final bool // no reconnection will be attempted
}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialConsoleModel(connMgr *connectionManager, connInfo string, maxLogEntries int) consoleModel {
	ti := textinput.New()
	ti.Placeholder = "get product"
	ti.Prompt = "$cmd> "
	ti.CharLimit = 120
	ti.Width = 40

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	headList := list.New([]list.Item{}, delegate, listWidth, 10)
	headList.Title = "Sentences"
	headList.SetShowStatusBar(false)
	headList.SetShowHelp(false)
	headList.SetFilteringEnabled(false)

	if maxLogEntries <= 0 {
		maxLogEntries = 100
	}

	return consoleModel{
		connMgr:       connMgr,
		connInfo:      connInfo,
		survey:        newSurveyResult(),
		latest:        make(map[string]headItem),
		headList:      headList,
		stats:         starneto.NewStatistics(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: maxLogEntries,
		commandInput:  ti,
		focusedField:  focusHeadList,
		width:         80,
		height:        24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m consoleModel) Init() tea.Cmd {
	return consoleTickCmd()
}

func consoleTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return consoleTickMsg(t)
	})
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			m.headList, _ = m.headList.Update(msg)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case consoleTickMsg:
		m.stats.CalculateRates()
		return m, consoleTickCmd()

	case consoleBatchMsg:
		for _, data := range msg.messages {
			m.processConsoleData(data)
		}
		m.updateHeadList()

	case connectionLostMsg:
		m.connectionLost = true
		switch {
		case msg.final:
			m.sourceEnded = true
			m.addLogEntry("Source closed", msg.err != nil)
		case msg.err != nil:
			m.addLogEntry(fmt.Sprintf("Connection lost (%v) - reconnecting...", msg.err), true)
		default:
			m.addLogEntry("Connection lost - reconnecting...", true)
		}

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.synchronized = false
		m.addLogEntry("Reconnected", false)
	}

	// Update child components
	var cmd tea.Cmd
	if m.focusedField == focusCommandInput {
		m.commandInput, cmd = m.commandInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m consoleModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "q":
		// q is ordinary text while typing a command
		if m.focusedField != focusCommandInput {
			m.quitting = true
			return m, tea.Quit
		}

	case "tab", "shift+tab":
		return m.toggleFocus(), nil

	case "enter":
		if m.focusedField == focusCommandInput {
			return m.sendCommand()
		}

	case "up", "k", "down", "j":
		if m.focusedField == focusHeadList {
			m.headList, _ = m.headList.Update(msg)
			return m, nil
		}
	}

	// Pass through to focused component
	if m.focusedField == focusCommandInput {
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m consoleModel) toggleFocus() consoleModel {
	if m.focusedField == focusHeadList {
		m.focusedField = focusCommandInput
		m.commandInput.Focus()
	} else {
		m.focusedField = focusHeadList
		m.commandInput.Blur()
	}
	return m
}

func (m consoleModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	// Header
	s.WriteString(titleStyle.Render("MERIDIAN CONSOLE"))
	s.WriteString(" ")
	connStatus := m.connInfo
	switch {
	case m.sourceEnded:
		connStatus = errorStyle.Render("SOURCE CLOSED")
	case m.connectionLost:
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit Tab=switch", connStatus)))
	s.WriteString("\n\n")

	if !m.synchronized && len(m.latest) == 0 {
		s.WriteString(warningStyle.Render("Waiting for sentences..."))
		s.WriteString("\n\n")
	}

	// Layout: left panel (sentence list) | right panel (latest sentence)
	rightWidth := m.width - listWidth - 6
	if rightWidth < 20 {
		rightWidth = 20
	}

	listStyle := boxStyle.Width(listWidth)
	if m.focusedField == focusHeadList {
		listStyle = focusedBoxStyle.Width(listWidth)
	}
	listPanel := listStyle.Render(m.headList.View())
	detailPanel := boxStyle.Width(rightWidth).Render(m.renderDetail(statsLabelStyle, headerStyle))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, listPanel, " ", detailPanel))
	s.WriteString("\n\n")

	// Statistics bar
	s.WriteString(m.renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle))
	s.WriteString("\n\n")

	// Command box
	inputStyle := boxStyle.Width(m.width - 4)
	if m.focusedField == focusCommandInput {
		inputStyle = focusedBoxStyle.Width(m.width - 4)
	}
	s.WriteString(inputStyle.Render(fmt.Sprintf("%s\n%s",
		m.commandInput.View(),
		headerStyle.Render(fmt.Sprintf("sent %d, replies %d", m.sent, m.replies)))))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(m.renderEventLog(statsLabelStyle, warningStyle, boxStyle))

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m consoleModel) renderDetail(statsLabelStyle, headerStyle lipgloss.Style) string {
	item := m.selectedHead()
	if item == nil || item.last == nil {
		return headerStyle.Render("No sentence selected")
	}
	return statsLabelStyle.Render("LATEST") + "\n" +
		strings.TrimSuffix(starneto.FormatSentence(item.last, item.lastAt), "\n")
}

func (m consoleModel) renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle lipgloss.Style) string {
	m.stats.CalculateRates()
	var validPercent, errorPercent float64
	if frames := m.stats.TotalSentences + m.stats.ChecksumErrors; frames > 0 {
		validPercent = float64(m.stats.ValidSentences) * 100.0 / float64(frames)
		errorPercent = float64(m.stats.ErrorCount()) * 100.0 / float64(frames)
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalSentences)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%.1f%%", validPercent)),
		statsLabelStyle.Render("Errors:"), func() string {
			if errorPercent > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f%%", errorPercent))
			}
			return statsValueStyle.Render("0.0%")
		}(),
		statsLabelStyle.Render("Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f sent/s", m.stats.SentenceRate)),
	)

	return boxStyle.Width(m.width - 4).Render(content)
}

func (m consoleModel) renderEventLog(statsLabelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyleLocal := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	logHeight := 8
	if len(m.errorLog) < logHeight {
		logHeight = len(m.errorLog)
	}
	startIdx := len(m.errorLog) - logHeight

	if len(m.errorLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyleLocal
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(timestamp),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

//////////////////////////////////////////////////////////////
// Data Processing
//////////////////////////////////////////////////////////////

func (m *consoleModel) processConsoleData(msg consoleDataMsg) {
	m.stats.ObserveParser(msg.parser)
	m.stats.Update(msg.sentence, msg.decodeErr, msg.validationErrors)

	if msg.synced {
		m.synchronized = true
		if msg.parser.SkippedBytes > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d invalid bytes", msg.parser.SkippedBytes), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}
	}

	if msg.decodeErr != nil {
		m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", msg.decodeErr), true)
		return
	}
	if msg.sentence == nil {
		return
	}

	head := msg.sentence.Message.Head()
	if m.survey.observe(msg.sentence, msg.at) {
		m.addLogEntry(fmt.Sprintf("New sentence type: %s (%s)", head, starneto.FormatHead(head)), false)
	}
	m.latest[head] = headItem{headInfo: *m.survey.heads[head], last: msg.sentence, lastAt: msg.at}

	if reply, ok := msg.sentence.Message.(*starneto.Command); ok {
		m.replies++
		m.addLogEntry(fmt.Sprintf("Reply: %s", starneto.Rebuild(starneto.HeadCommand, reply.Tail(), 0)), false)
	}

	for _, verr := range msg.validationErrors {
		m.addLogEntry(fmt.Sprintf("%s: %s", head, verr.Message), true)
	}
}

//////////////////////////////////////////////////////////////
// Commands
//////////////////////////////////////////////////////////////

func (m consoleModel) sendCommand() (tea.Model, tea.Cmd) {
	if m.connectionLost {
		m.addLogEntry("Cannot send command: connection lost", true)
		return m, nil
	}

	args := strings.Fields(m.commandInput.Value())
	if len(args) == 0 {
		args = strings.Fields(m.commandInput.Placeholder)
	}
	command := commandFromArgs(args)

	if err := m.connMgr.write(starneto.EncodeCommand(command)); err != nil {
		m.addLogEntry(fmt.Sprintf("Failed to send command: %v", err), true)
		return m, nil
	}

	m.sent++
	m.addLogEntry(fmt.Sprintf("Sent %s", starneto.Rebuild(starneto.HeadCommand, command.Tail(), 0)), false)
	if !command.Verb.Known() {
		m.addLogEntry(fmt.Sprintf("Verb %q is not get, set or through", command.Verb), true)
	}
	m.commandInput.SetValue("")
	return m, nil
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *consoleModel) addLogEntry(message string, isError bool) {
	entry := errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.errorLog = append(m.errorLog, entry)

	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

// sortedHeads returns the tracked heads in list order
func (m *consoleModel) sortedHeads() []string {
	heads := make([]string, 0, len(m.latest))
	for head := range m.latest {
		heads = append(heads, head)
	}
	sort.Strings(heads)
	return heads
}

func (m *consoleModel) selectedHead() *headItem {
	heads := m.sortedHeads()
	idx := m.headList.Index()
	if idx < 0 || idx >= len(heads) {
		return nil
	}
	item := m.latest[heads[idx]]
	return &item
}

func (m *consoleModel) updateHeadList() {
	heads := m.sortedHeads()
	items := make([]list.Item, len(heads))
	for i, head := range heads {
		items[i] = m.latest[head]
	}
	m.headList.SetItems(items)
}

func (m *consoleModel) updateListSize() {
	// Adjust list size based on terminal size
	listHeight := m.height / 3
	if listHeight < 5 {
		listHeight = 5
	}
	m.headList.SetSize(listWidth-2, listHeight)
}
