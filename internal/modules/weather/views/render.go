package views

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"time"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/modules/weather/types"
)

var dashboardTmpl *template.Template

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	dashboardTmpl, err = template.ParseFS(sub, "*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads the embedded dashboard templates. Call during startup
// before serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// StationRow is the view model for one dashboard table row; every field is
// pre-formatted so the template stays free of logic.
type StationRow struct {
	StationID      string
	Temperature    string
	Humidity       string
	AvgTemperature string
	AvgHumidity    string
	LastSeen       string
	Status         types.Status
}

type DashboardData struct {
	Rows        []StationRow
	GeneratedAt string
}

// BuildRow formats one snapshot (plus the station's last reading, if any)
// into a table row.
func BuildRow(s types.StationSnapshot, last *types.Reading) StationRow {
	row := StationRow{
		StationID:      s.StationID,
		Temperature:    "n/a",
		Humidity:       "n/a",
		AvgTemperature: formatOptional(s.AvgTemperature5m, "°C"),
		AvgHumidity:    formatOptional(s.AvgHumidity5m, "%"),
		LastSeen:       "n/a",
		Status:         s.Status,
	}
	if last != nil {
		row.Temperature = fmt.Sprintf("%.1f °C", last.Temperature)
		row.Humidity = fmt.Sprintf("%.1f %%", last.Humidity)
	}
	if s.LastSeen != nil {
		row.LastSeen = s.LastSeen.UTC().Format(time.RFC3339)
	}
	return row
}

func formatOptional(v *float64, unit string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f %s", *v, unit)
}

func RenderDashboard(w io.Writer, data DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}
