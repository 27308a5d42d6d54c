// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Thermoquad/meridian/pkg/starneto"
)

// recordingConnection captures writes
type recordingConnection struct {
	bytes.Buffer
}

func (r *recordingConnection) Close() error { return nil }

func sentenceOf(m starneto.Message) *starneto.Sentence {
	return &starneto.Sentence{Message: m}
}

// ============================================================
// Monitor Model Tests
// ============================================================

func TestModel_ProcessEvent(t *testing.T) {
	m := initialModel("File: capture.nmea", 10, false, 3)
	events := streamEvents(t, sentenceLine(starneto.HeadGGA, ggaTail)+sentenceLine(starneto.HeadGGA, badGGATail))
	require.Len(t, events, 2)

	for _, ev := range events {
		m.processEvent(monitorEvent{sentenceEvent: ev})
	}

	require.NotNil(t, m.lastNavigation)
	assert.Equal(t, starneto.HeadGGA, m.lastNavigation.head)
	assert.Equal(t, "17", m.lastNavigation.satellites)
	assert.Equal(t, "3959.55874779 N", m.lastNavigation.latitude)

	require.Len(t, m.errorLog, 1)
	assert.True(t, m.errorLog[0].isError)
	assert.Contains(t, m.errorLog[0].message, "DECODE ERROR")

	assert.Equal(t, uint64(2), m.stats.TotalSentences)
	assert.Equal(t, uint64(1), m.stats.ValidSentences)
	assert.Equal(t, uint64(1), m.stats.ParseFailures)
}

func TestModel_AttitudeSolutionWins(t *testing.T) {
	m := initialModel("", 10, false, 10)
	now := time.Now()

	m.parseNavigation(&starneto.FPD{NSV1: 12, NSV2: 9, Heading: 90500}, now)
	m.parseNavigation(&starneto.GGA{Satellites: 3}, now)

	require.NotNil(t, m.lastNavigation)
	assert.Equal(t, starneto.HeadFPD, m.lastNavigation.head)
	assert.Equal(t, "12/9", m.lastNavigation.satellites)
	assert.Equal(t, "90.500°", m.lastNavigation.heading)
}

func TestModel_LogLimitAndValidationEntries(t *testing.T) {
	m := initialModel("", 10, true, 2)

	verrs := []starneto.ValidationError{{Type: starneto.ANOMALY_UNKNOWN_VERB, Message: "Unknown command verb \"x\""}}
	m.processEvent(monitorEvent{sentenceEvent: sentenceEvent{sentence: sentenceOf(&starneto.RMC{Raw: rmcTail})}})
	m.processEvent(monitorEvent{sentenceEvent: sentenceEvent{sentence: sentenceOf(starneto.NewCommand("x", "")), validationErrors: verrs}})
	m.processEvent(monitorEvent{sentenceEvent: sentenceEvent{sentence: sentenceOf(&starneto.CHC{Raw: "1"})}})

	require.Len(t, m.errorLog, 2)
	assert.Equal(t, "cmd: Unknown command verb \"x\"", m.errorLog[0].message)
	assert.Equal(t, "GPCHC (valid)", m.errorLog[1].message)
	assert.Equal(t, uint64(1), m.stats.UnknownVerbs)
}

func TestModel_ResetKey(t *testing.T) {
	m := initialModel("", 10, false, 10)
	m.processEvent(monitorEvent{sentenceEvent: sentenceEvent{decodeErr: errors.New("bad")}})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = updated.(model)

	assert.Zero(t, m.stats.TotalSentences)
	assert.Equal(t, "Statistics reset", m.errorLog[len(m.errorLog)-1].message)
}

// ============================================================
// Console Model Tests
// ============================================================

func newTestConsole(conn Connection) consoleModel {
	cm := &connectionManager{conn: conn, done: make(chan struct{}), log: zap.NewNop()}
	return initialConsoleModel(cm, "test", 10)
}

func TestConsoleModel_ProcessBatch(t *testing.T) {
	m := newTestConsole(&recordingConnection{})
	start := time.Now()

	batch := consoleBatchMsg{messages: []consoleDataMsg{
		{sentenceEvent: sentenceEvent{at: start, sentence: sentenceOf(&starneto.RMC{Raw: rmcTail})}, synced: true},
		{sentenceEvent: sentenceEvent{at: start.Add(time.Second), sentence: sentenceOf(&starneto.RMC{Raw: rmcTail})}},
		{sentenceEvent: sentenceEvent{at: start, sentence: sentenceOf(starneto.NewCommand(starneto.VerbGet, "product,newton-m3"))}},
	}}
	updated, _ := m.Update(batch)
	m = updated.(consoleModel)

	assert.True(t, m.synchronized)
	assert.Equal(t, 1, m.replies)
	assert.Equal(t, []string{starneto.HeadRMC, starneto.HeadCommand}, m.sortedHeads())
	assert.Len(t, m.headList.Items(), 2)

	// List order is by head name
	item := m.selectedHead()
	require.NotNil(t, item)
	assert.Equal(t, starneto.HeadRMC, item.head)
	assert.Equal(t, uint64(2), item.count)
	assert.Equal(t, "2 sentences, 1.0 Hz", item.Description())

	var messages []string
	for _, entry := range m.errorLog {
		messages = append(messages, entry.message)
	}
	assert.Contains(t, messages, "Reply: $cmd,get,product,newton-m3*ff")
	assert.Contains(t, messages, "New sentence type: GPRMC (GNSS_RECOMMENDED)")
}

func TestConsoleModel_SendCommand(t *testing.T) {
	conn := &recordingConnection{}
	m := newTestConsole(conn)

	// Tab focuses the command box, Enter with no input sends the placeholder
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(consoleModel)
	require.Equal(t, focusCommandInput, m.focusedField)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(consoleModel)
	assert.Equal(t, "$cmd,get,product*ff\r\n", conn.String())

	m.commandInput.SetValue("set baud 460800")
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(consoleModel)
	assert.True(t, strings.HasSuffix(conn.String(), "$cmd,set,baud,460800*ff\r\n"))
	assert.Equal(t, 2, m.sent)
	assert.Empty(t, m.commandInput.Value())
}

func TestConsoleModel_SendWhileDisconnected(t *testing.T) {
	conn := &recordingConnection{}
	m := newTestConsole(conn)

	updated, _ := m.Update(connectionLostMsg{err: errors.New("unplugged")})
	m = updated.(consoleModel)
	m.focusedField = focusCommandInput

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(consoleModel)

	assert.Zero(t, conn.Len())
	assert.Equal(t, "Cannot send command: connection lost", m.errorLog[len(m.errorLog)-1].message)

	updated, _ = m.Update(reconnectedMsg{connInfo: "Serial: /dev/ttyUSB1 @ 115200 baud"})
	m = updated.(consoleModel)
	assert.False(t, m.connectionLost)
	assert.Equal(t, "Serial: /dev/ttyUSB1 @ 115200 baud", m.connInfo)
}

func TestConsoleModel_QuitKeys(t *testing.T) {
	m := newTestConsole(&recordingConnection{})

	// q is text while the command box has focus
	m.focusedField = focusCommandInput
	m.commandInput.Focus()
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = updated.(consoleModel)
	assert.False(t, m.quitting)
	assert.Equal(t, "q", m.commandInput.Value())

	m.focusedField = focusHeadList
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = updated.(consoleModel)
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
}
