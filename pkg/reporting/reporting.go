// pkg/reporting/reporting.go - exports application lists for external tools
// and prints them to the console.

package reporting

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/appsweep/pkg/apps"
	"github.com/windowsadmins/appsweep/pkg/logging"
	"github.com/windowsadmins/appsweep/pkg/retry"
)

// Format is an export file format.
type Format int

const (
	FormatCSV Format = iota
	FormatJSON
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "csv"
	}
}

// FormatFor picks the format from the file extension; anything other than
// .json, .yaml or .yml is written as CSV.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatCSV
	}
}

// csvHeader names the exported columns.
var csvHeader = []string{"Display Name", "Display Version", "Publisher", "Install Location", "Uninstall String"}

const csvLineEnding = "\r\n"

// WriteCSV writes a header row and one row per application. Every field is
// quoted with embedded quotes doubled.
func WriteCSV(w io.Writer, list []apps.Application) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, csvHeader)
	for _, app := range list {
		writeRow(bw, []string{app.DisplayName, app.DisplayVersion, app.Publisher, app.InstallLocation, app.UninstallString})
	}
	return bw.Flush()
}

func writeRow(w *bufio.Writer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(field, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteString(csvLineEnding)
}

// Encode renders list in the given format.
func Encode(list []apps.Application, format Format) ([]byte, error) {
	if list == nil {
		list = []apps.Application{}
	}
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		return yaml.Marshal(list)
	default:
		var buf bytes.Buffer
		if err := WriteCSV(&buf, list); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// Exporter writes application lists to files.
type Exporter struct {
	fs     afero.Fs
	logger *logging.Logger
}

// NewExporter creates an Exporter on fs.
func NewExporter(fs afero.Fs, logger *logging.Logger) *Exporter {
	return &Exporter{fs: fs, logger: logger}
}

// Export writes list to path, creating the parent directory. An existing
// file is overwritten; a write that fails, typically because another
// program holds the file open, is retried. Failures are logged and returned.
func (e *Exporter) Export(ctx context.Context, path string, list []apps.Application) error {
	format := FormatFor(path)
	data, err := Encode(list, format)
	if err != nil {
		err = fmt.Errorf("failed to encode %s export: %w", format, err)
		e.logger.Error("Error writing application list", "file", path, "error", err)
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := e.fs.MkdirAll(dir, 0755); err != nil {
			err = fmt.Errorf("failed to create directory %s: %w", dir, err)
			e.logger.Error("Error writing application list", "file", path, "error", err)
			return err
		}
	}
	err = retry.Retry(ctx, e.logger, retry.DefaultConfig, func() error {
		return afero.WriteFile(e.fs, path, data, 0644)
	})
	if err != nil {
		err = fmt.Errorf("failed to write %s: %w", path, err)
		e.logger.Error("Error writing application list", "file", path, "error", err)
		return err
	}

	e.logger.Info("Wrote application list", "file", path, "format", format.String(), "count", len(list))
	return nil
}

// PrintApplications writes the five labelled fields of each application,
// separated by blank lines.
func PrintApplications(w io.Writer, list []apps.Application) {
	for _, app := range list {
		fmt.Fprintf(w, "Display Name: %s\n", app.DisplayName)
		fmt.Fprintf(w, "Display Version: %s\n", app.DisplayVersion)
		fmt.Fprintf(w, "Publisher: %s\n", app.Publisher)
		fmt.Fprintf(w, "Install Location: %s\n", app.InstallLocation)
		fmt.Fprintf(w, "Uninstall String: %s\n", app.UninstallString)
		fmt.Fprintln(w)
	}
}
