package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/app"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/services"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/tabs/data"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/tabs/flags"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/tabs/info"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/tabs/origins"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/tabs/overview"
)

// skipDashboardEnv disables the terminal program so the wiring can be tested.
const skipDashboardEnv = "FUD_SKIP_DASHBOARD_RUN"

// runDashboard builds the services and tabs and runs the Bubble Tea program
// until the user quits.
func runDashboard() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// stderr belongs to the alternate screen while the program runs.
	cfg.LogFile = cfg.DashboardLogFile()
	logCloser, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog(logCloser)

	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	model := app.NewModel(svcManager)

	state := model.GetState()
	model.SetTabs([]app.Tab{
		overview.New(state, cfg.TopN),
		origins.New(state),
		flags.New(state),
		data.New(state),
		info.New(state, cfg),
	})

	if os.Getenv(skipDashboardEnv) == "true" {
		return nil
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
