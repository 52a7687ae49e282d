package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/triangletodd/flasktasks/app/services"
)

// Exporter renders a snapshot of the task list in a downloadable format.
type Exporter struct {
	service *services.TaskService
}

// NewExporter creates an exporter over the task service.
func NewExporter(service *services.TaskService) *Exporter {
	return &Exporter{service: service}
}

// Export returns the current task list as json, csv or pdf. The rows come
// out in list-view order, so children follow their parent.
func (e *Exporter) Export(ctx context.Context, format string) ([]byte, error) {
	tasks, err := e.service.GetTasks(ctx)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(tasks, "", "  ")

	case "csv":
		var b strings.Builder
		w := csv.NewWriter(&b)
		_ = w.Write([]string{"id", "task", "completed", "parent_id", "child_count", "created_at", "updated_at"})
		for _, t := range tasks {
			parent := ""
			if t.ParentID != nil {
				parent = *t.ParentID
			}
			_ = w.Write([]string{
				t.ID,
				t.Text,
				strconv.FormatBool(t.Completed),
				parent,
				strconv.Itoa(t.ChildCount),
				t.CreatedAt.Format(time.RFC3339),
				t.UpdatedAt.Format(time.RFC3339),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return []byte(b.String()), nil

	case "pdf":
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(40, 10, "FlaskTasks")
		pdf.Ln(12)
		pdf.SetFont("Arial", "", 10)
		for _, t := range tasks {
			mark := "[ ]"
			if t.Completed {
				mark = "[x]"
			}
			indent := ""
			if t.IsChild() {
				indent = "        "
			}
			line := fmt.Sprintf("%s%s %s", indent, mark, t.Text)
			if t.HasChildren() {
				line += fmt.Sprintf(" (%s)", t.SubtaskLabel())
			}
			pdf.MultiCell(0, 6, line, "0", "L", false)
		}
		var buf bytes.Buffer
		if err := pdf.Output(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unknown format %s", format)
	}
}
