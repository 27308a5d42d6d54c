// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/meridian/internal/config"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive TUI for monitoring and commanding the receiver",
	Long: `Monitor the receiver and send it commands via an interactive terminal UI.

Features:
  - Live list of sentence types with counts and rates
  - Decoded fields of the latest sentence of the selected type
  - Command box: type "get product" or "set baud 460800" and press Enter
    to send $cmd,get,product*ff
  - Statistics tracking
  - Event logging, including every $cmd reply
  - Automatic reconnection on connection loss (serial and WebSocket)

Tab switches between the sentence list and the command box. Arrow keys
navigate the list.`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

// connectionManager handles connection lifecycle and reconnection
type connectionManager struct {
	conn     Connection
	connInfo string
	open     func() (Connection, string, error)
	mu       sync.RWMutex
	p        *tea.Program
	done     chan struct{}
	log      *zap.Logger
}

func (cm *connectionManager) getConn() Connection {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.conn
}

func (cm *connectionManager) setConn(conn Connection, connInfo string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.conn = conn
	cm.connInfo = connInfo
}

// write sends bytes on the current connection
func (cm *connectionManager) write(data []byte) error {
	conn := cm.getConn()
	if conn == nil {
		return errSourceClosed
	}
	_, err := conn.Write(data)
	return err
}

func runConsole(cmd *cobra.Command, args []string) error {
	// Resolve the password once so reconnects never prompt under the TUI
	cc := cfg.Connection
	password := ""
	if cc.URL != "" && cc.Username != "" {
		var err error
		if password, err = GetPassword(); err != nil {
			return err
		}
	}
	open := func() (Connection, string, error) { return openConnection(cc, password) }

	conn, connInfo, err := open()
	if err != nil {
		return err
	}

	cm := &connectionManager{
		conn:     conn,
		connInfo: connInfo,
		open:     open,
		done:     make(chan struct{}),
		log:      quietLogger(cmd),
	}

	m := initialConsoleModel(cm, connInfo, cfg.Monitor.AnomalyLogLimit)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(cmd.Context()))
	cm.p = p

	go cm.readerLoop(canReconnect(cc))

	_, err = p.Run()
	close(cm.done)
	if c := cm.getConn(); c != nil {
		c.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// canReconnect reports whether a lost source is worth reopening
func canReconnect(cc config.ConnectionConfig) bool {
	return cc.File == ""
}

// readerLoop reads from the connection, reconnecting when it is lost
func (cm *connectionManager) readerLoop(reconnect bool) {
	for {
		select {
		case <-cm.done:
			return
		default:
		}

		err := cm.readFromConnection()

		select {
		case <-cm.done:
			return
		default:
		}

		if !reconnect {
			cm.p.Send(connectionLostMsg{err: err, final: true})
			return
		}
		cm.p.Send(connectionLostMsg{err: err})
		if !cm.reconnect() {
			return
		}
	}
}

// readFromConnection streams sentences to the TUI until the connection fails
func (cm *connectionManager) readFromConnection() error {
	batchChan := make(chan consoleDataMsg, 100)
	readerDone := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-cm.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Batch sender - forwards batched updates to the TUI at a fixed rate
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-readerDone:
				cm.flush(batchChan)
				return
			case <-ticker.C:
				cm.flush(batchChan)
			}
		}
	}()

	reader := newSentenceReader(cm.getConn(), cfg.Parser.BufferSize, cm.log)
	synchronized := false
	err := reader.run(ctx, func(ev sentenceEvent) bool {
		msg := consoleDataMsg{sentenceEvent: ev, parser: reader.parser.Stats()}
		if !synchronized && ev.sentence != nil {
			synchronized = true
			msg.synced = true
		}
		select {
		case batchChan <- msg:
		default:
		}
		return true
	})
	close(readerDone)
	return err
}

// flush sends everything queued on batchChan as one batch
func (cm *connectionManager) flush(batchChan chan consoleDataMsg) {
	var batch consoleBatchMsg
	for {
		select {
		case msg := <-batchChan:
			batch.messages = append(batch.messages, msg)
		default:
			if len(batch.messages) > 0 {
				cm.p.Send(batch)
			}
			return
		}
	}
}

// reconnect attempts to reconnect with exponential backoff.
// Returns false if shutdown was requested during reconnection.
func (cm *connectionManager) reconnect() bool {
	if conn := cm.getConn(); conn != nil {
		conn.Close()
	}

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-cm.done:
			return false
		case <-time.After(backoff):
		}

		conn, connInfo, err := cm.open()
		if err == nil {
			cm.setConn(conn, connInfo)
			cm.log.Info("reconnected", zap.String("connection", connInfo))
			cm.p.Send(reconnectedMsg{connInfo: connInfo})
			return true
		}
		cm.log.Warn("reconnect failed", zap.Error(err), zap.Duration("backoff", backoff))

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
