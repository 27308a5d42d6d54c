// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/meridian/pkg/starneto"
)

// Error log entry
type errorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for warnings
}

// navigationData is the latest solution shown in the TUI
type navigationData struct {
	timestamp  time.Time
	head       string
	status     string
	latitude   string
	longitude  string
	altitude   string
	heading    string
	satellites string
}

// imuData is the latest raw IMU sample shown in the TUI
type imuData struct {
	gyro        string
	accel       string
	temperature string
}

// TUI model
type model struct {
	connInfo       string
	statsInterval  int
	showAll        bool
	stats          *starneto.Statistics
	errorLog       []errorLogEntry
	maxLogEntries  int
	synchronized   bool
	invalidBytes   uint64
	width          int
	height         int
	quitting       bool
	streamEnded    bool
	lastNavigation *navigationData
	lastIMU        *imuData
}

// Messages
type tickMsg time.Time
type syncMsg struct {
	invalidBytes uint64
}
type streamEndMsg struct {
	err error
}

func initialModel(connInfo string, statsInterval int, showAll bool, maxLogEntries int) model {
	if maxLogEntries <= 0 {
		maxLogEntries = 100
	}
	return model{
		connInfo:      connInfo,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         starneto.NewStatistics(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: maxLogEntries,
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.stats.Reset()
			m.addLogEntry("Statistics reset", false)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.stats.CalculateRates()
		return m, tickCmd()

	case syncMsg:
		m.synchronized = true
		m.invalidBytes = msg.invalidBytes
		if msg.invalidBytes > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d invalid bytes", msg.invalidBytes), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}

	case streamEndMsg:
		m.streamEnded = true
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Connection lost: %v", msg.err), true)
		} else {
			m.addLogEntry("Source closed", false)
		}

	case monitorEvent:
		m.processEvent(msg)
	}

	return m, nil
}

// processEvent folds one pull result into the statistics and event log
func (m *model) processEvent(ev monitorEvent) {
	m.stats.ObserveParser(ev.parser)
	m.stats.Update(ev.sentence, ev.decodeErr, ev.validationErrors)

	if ev.decodeErr != nil {
		m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", ev.decodeErr), true)
		return
	}
	if ev.sentence == nil {
		return
	}

	m.parseNavigation(ev.sentence.Message, ev.at)

	head := ev.sentence.Message.Head()
	if len(ev.validationErrors) > 0 {
		for _, verr := range ev.validationErrors {
			m.addLogEntry(fmt.Sprintf("%s: %s", head, verr.Message), true)
		}
	} else if m.showAll {
		m.addLogEntry(fmt.Sprintf("%s (valid)", head), false)
	}
}

func (m *model) addLogEntry(message string, isError bool) {
	entry := errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.errorLog = append(m.errorLog, entry)

	// Keep only last N entries
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

// parseNavigation keeps the latest solution and IMU sample for display
func (m *model) parseNavigation(msg starneto.Message, at time.Time) {
	switch msg := msg.(type) {
	case *starneto.FPD:
		m.lastNavigation = &navigationData{
			timestamp:  at,
			head:       msg.Head(),
			status:     fmt.Sprintf("%s / %s", msg.Status.System, msg.Status.RTK),
			latitude:   starneto.FormatFixed(msg.Latitude, starneto.LatLonPlaces) + "°",
			longitude:  starneto.FormatFixed(msg.Longitude, starneto.LatLonPlaces) + "°",
			altitude:   starneto.FormatFixed(msg.Altitude, starneto.AltitudePlaces) + " m",
			heading:    starneto.FormatFixed(msg.Heading, starneto.AnglePlaces) + "°",
			satellites: fmt.Sprintf("%d/%d", msg.NSV1, msg.NSV2),
		}

	case *starneto.HPD:
		m.lastNavigation = &navigationData{
			timestamp:  at,
			head:       msg.Head(),
			status:     msg.Status.String(),
			latitude:   starneto.FormatFixed(msg.Latitude, starneto.LatLonPlaces) + "°",
			longitude:  starneto.FormatFixed(msg.Longitude, starneto.LatLonPlaces) + "°",
			altitude:   starneto.FormatFixed(msg.Altitude, starneto.AltitudePlaces) + " m",
			heading:    starneto.FormatFixed(msg.Heading, starneto.AnglePlaces) + "°",
			satellites: fmt.Sprintf("%d/%d", msg.NSV1, msg.NSV2),
		}

	case *starneto.GGA:
		// GGA only fills in a solution when no attitude sentence is present
		if m.lastNavigation != nil && m.lastNavigation.head != starneto.HeadGGA {
			return
		}
		m.lastNavigation = &navigationData{
			timestamp:  at,
			head:       msg.Head(),
			status:     msg.Quality.String(),
			latitude:   fmt.Sprintf("%s %c", msg.Latitude, msg.NS),
			longitude:  fmt.Sprintf("%s %c", msg.Longitude, msg.EW),
			altitude:   fmt.Sprintf("%s %c", msg.Altitude, msg.AltitudeUnit),
			heading:    "-",
			satellites: fmt.Sprintf("%d", msg.Satellites),
		}

	case *starneto.IMU:
		m.lastIMU = &imuData{
			gyro: fmt.Sprintf("%s %s %s deg/s",
				starneto.FormatFixed(msg.GyroX, starneto.GyroPlaces),
				starneto.FormatFixed(msg.GyroY, starneto.GyroPlaces),
				starneto.FormatFixed(msg.GyroZ, starneto.GyroPlaces)),
			accel: fmt.Sprintf("%s %s %s g",
				starneto.FormatFixed(msg.AccX, starneto.AccelPlaces),
				starneto.FormatFixed(msg.AccY, starneto.AccelPlaces),
				starneto.FormatFixed(msg.AccZ, starneto.AccelPlaces)),
			temperature: starneto.FormatFixed(msg.Temperature, starneto.TemperaturePlaces) + "°C",
		}
	}
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

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

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("MERIDIAN - ERROR DETECTION"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | 'r' reset, 'q' quit",
		m.connInfo, func() string {
			if m.showAll {
				return "All sentences"
			}
			return "Errors only"
		}())))
	s.WriteString("\n\n")

	// Sync status
	switch {
	case m.streamEnded:
		s.WriteString(errorStyle.Render("✗ Stream ended"))
		s.WriteString("\n\n")
	case !m.synchronized:
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
		s.WriteString("\n\n")
	default:
		s.WriteString(statsValueStyle.Render("✓ Synchronized"))
		if m.invalidBytes > 0 {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" (skipped %d invalid bytes)", m.invalidBytes)))
		}
		s.WriteString("\n\n")
	}

	// Statistics
	m.stats.CalculateRates()
	totalErrors := m.stats.ErrorCount()
	var validPercent, errorPercent float64
	if frames := m.stats.TotalSentences + m.stats.ChecksumErrors; frames > 0 {
		validPercent = float64(m.stats.ValidSentences) * 100.0 / float64(frames)
		errorPercent = float64(totalErrors) * 100.0 / float64(frames)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalSentences)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidSentences, validPercent)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", totalErrors, errorPercent)),
	))

	if m.stats.ChecksumErrors > 0 || m.stats.DecodeErrors > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
			statsLabelStyle.Render("Checksum Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.ChecksumErrors)),
			statsLabelStyle.Render("Decode Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.DecodeErrors)),
		))
		if m.stats.DecodeErrors > 0 {
			statsContent.WriteString(fmt.Sprintf(" (%s: %d, %s: %d)",
				headerStyle.Render("missing"), m.stats.MissingFields,
				headerStyle.Render("unparsable"), m.stats.ParseFailures,
			))
		}
		statsContent.WriteString("\n")
	}

	if m.stats.AnomalousValues > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s (%s: %d, %s: %d, %s: %d, %s: %d, %s: %d)\n",
			statsLabelStyle.Render("Anomalous:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.AnomalousValues)),
			headerStyle.Render("position"), m.stats.InvalidPosition,
			headerStyle.Render("heading"), m.stats.InvalidAngle,
			headerStyle.Render("no fix"), m.stats.NoFix,
			headerStyle.Render("no sats"), m.stats.NoSatellites,
			headerStyle.Render("temp"), m.stats.InvalidTemp,
		))
	}

	if m.stats.SkippedBytes > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Skipped Bytes:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.SkippedBytes)),
		))
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Sentence Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f sent/s", m.stats.SentenceRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if m.stats.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Navigation section (only shown once a solution arrives)
	if m.lastNavigation != nil || m.lastIMU != nil {
		s.WriteString(statsLabelStyle.Render("Latest Solution:"))
		s.WriteString("\n")

		navContent := strings.Builder{}
		if nav := m.lastNavigation; nav != nil {
			navContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
				statsLabelStyle.Render("Source:"), statsValueStyle.Render(nav.head),
				statsLabelStyle.Render("Status:"), statsValueStyle.Render(nav.status),
			))
			navContent.WriteString(fmt.Sprintf("%s %s, %s   %s %s\n",
				statsLabelStyle.Render("Position:"), statsValueStyle.Render(nav.latitude), statsValueStyle.Render(nav.longitude),
				statsLabelStyle.Render("Alt:"), statsValueStyle.Render(nav.altitude),
			))
			navContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
				statsLabelStyle.Render("Heading:"), statsValueStyle.Render(nav.heading),
				statsLabelStyle.Render("Satellites:"), statsValueStyle.Render(nav.satellites),
			))
		}
		if imu := m.lastIMU; imu != nil {
			navContent.WriteString(fmt.Sprintf("%s %s\n%s %s   %s %s\n",
				statsLabelStyle.Render("Gyro:"), statsValueStyle.Render(imu.gyro),
				statsLabelStyle.Render("Accel:"), statsValueStyle.Render(imu.accel),
				statsLabelStyle.Render("IMU Temp:"), statsValueStyle.Render(imu.temperature),
			))
		}

		s.WriteString(boxStyle.Render(strings.TrimSuffix(navContent.String(), "\n")))
		s.WriteString("\n\n")
	}

	// Error log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	// Calculate how many log entries we can show
	logHeight := m.height - 20 // Reserve space for header and stats
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.errorLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.errorLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.errorLog); i++ {
			entry := m.errorLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
