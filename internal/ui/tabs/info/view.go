package info

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/export"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/styles"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderDatasetCard())
	sections = append(sections, m.renderSnapshotCard())
	sections = append(sections, m.renderConfigCard())
	sections = append(sections, m.renderAboutCard())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Dataset, configuration and build information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

// renderDatasetCard describes the loaded session and the active filter.
func (m *Model) renderDatasetCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Dataset"))
	rows = append(rows, "")

	session := m.state.GetSession()
	if session == nil {
		rows = append(rows, styles.HelpStyle.Render("No dataset loaded"))
		return styles.CardStyle.Width(m.cardWidth()).Render(
			lipgloss.JoinVertical(lipgloss.Left, rows...),
		)
	}

	rows = append(rows, m.renderConfigRow("Source", session.Source))
	rows = append(rows, m.renderConfigRow("Session", session.ID))
	rows = append(rows, m.renderConfigRow("Loaded", humanize.Time(session.LoadedAt)))
	rows = append(rows, m.renderConfigRow("Records", components.FormatCount(m.state.All().Len())))
	rows = append(rows, m.renderConfigRow("Shown", components.FormatCount(m.state.View().Len())))
	rows = append(rows, m.renderConfigRow("Filter", m.state.GetFilter().String()))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderSnapshotCard describes the newest SQLite snapshot in the export
// directory.
func (m *Model) renderSnapshotCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Last Snapshot"))
	rows = append(rows, "")

	if m.config == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
		return styles.CardStyle.Width(m.cardWidth()).Render(
			lipgloss.JoinVertical(lipgloss.Left, rows...),
		)
	}

	path := filepath.Join(m.config.ExportDir, export.DefaultSnapshotName)
	meta, err := m.latestSnapshot(path)
	switch {
	case err != nil:
		rows = append(rows, m.renderConfigRow("File", path))
		rows = append(rows, styles.ErrorTextStyle.Render("Unreadable: "+err.Error()))
	case meta == nil:
		rows = append(rows, styles.HelpStyle.Render("No snapshot exported yet"))
	default:
		rows = append(rows, m.renderConfigRow("File", path))
		rows = append(rows, m.renderConfigRow("Created", humanize.Time(meta.CreatedAt)))
		rows = append(rows, m.renderConfigRow("Session", meta.SessionID))
		rows = append(rows, m.renderConfigRow("Source", meta.Source))
		rows = append(rows, m.renderConfigRow("Filter", meta.Filter))
		rows = append(rows, m.renderConfigRow("Records", components.FormatCount(meta.RecordCount)))
		rows = append(rows, m.renderConfigRow("Calls", components.FormatCalls(meta.TotalCalls)))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// latestSnapshot rereads the snapshot only when its modification time moves.
func (m *Model) latestSnapshot(path string) (*models.SnapshotMeta, error) {
	fi, err := os.Stat(path)
	if err != nil {
		m.snapshot, m.snapshotErr, m.snapshotMod = nil, nil, time.Time{}
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if !fi.ModTime().Equal(m.snapshotMod) {
		m.snapshot, m.snapshotErr = export.LatestSnapshot(path)
		m.snapshotMod = fi.ModTime()
	}
	return m.snapshot, m.snapshotErr
}

// renderConfigCard renders the effective configuration.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if m.config != nil {
		logFile := m.config.LogFile
		if logFile == "" {
			logFile = "stderr"
		}
		rows = append(rows, m.renderConfigRow("Data File", m.config.DataPath))
		rows = append(rows, m.renderConfigRow("Export Dir", m.config.ExportDir))
		rows = append(rows, m.renderConfigRow("Top N", strconv.Itoa(m.config.TopN)))
		rows = append(rows, m.renderConfigRow("Watch File", strconv.FormatBool(m.config.WatchDataFile)))
		rows = append(rows, m.renderConfigRow("Desktop Notify", strconv.FormatBool(m.config.DesktopNotify)))
		rows = append(rows, m.renderConfigRow("Log", fmt.Sprintf("%s (%s)", logFile, m.config.LogLevel)))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About "+version.Name))
	rows = append(rows, "")

	rows = append(rows, m.renderConfigRow("Version", version.GetVersion()))
	rows = append(rows, m.renderConfigRow("Build Date", version.GetDate()))
	rows = append(rows, m.renderConfigRow("Git Commit", version.GetCommit()))
	rows = append(rows, m.renderConfigRow("Go Version", runtime.Version()))
	rows = append(rows, m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
