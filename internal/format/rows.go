package format

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"cpgantt/internal/interact"
	"cpgantt/internal/model"
	"cpgantt/internal/shape"
)

const dateLayout = "2006-01-02"

// Days-remaining thresholds for table colouring.
const soonDays = 14

// RowView is the printable form of a shaped row.
type RowView struct {
	Team          string `json:"team"`
	Project       string `json:"project"`
	CP3           string `json:"cp3"`
	CP35          string `json:"cp35,omitempty"`
	CP4           string `json:"cp4,omitempty"`
	CP5           string `json:"cp5,omitempty"`
	DaysRemaining *int   `json:"daysRemaining,omitempty"`
}

// RowsResult is what `cpgantt rows` prints.
type RowsResult struct {
	Rows   []RowView    `json:"rows"`
	Report shape.Report `json:"report"`
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

// NewRowView converts r, computing days remaining to CP5 from now.
func NewRowView(r model.Row, now time.Time) RowView {
	cp3 := r.CP3
	v := RowView{
		Team:    r.Team,
		Project: r.Project,
		CP3:     formatDate(&cp3),
		CP35:    formatDate(r.CP35),
		CP4:     formatDate(r.CP4),
		CP5:     formatDate(r.CP5),
	}
	if r.CP5 != nil {
		d := interact.DaysRemaining(*r.CP5, now)
		v.DaysRemaining = &d
	}
	return v
}

// NewRowsResult converts rows for output.
func NewRowsResult(rows []model.Row, report shape.Report, now time.Time) RowsResult {
	out := RowsResult{Rows: make([]RowView, 0, len(rows)), Report: report}
	for _, r := range rows {
		out.Rows = append(out.Rows, NewRowView(r, now))
	}
	return out
}

// WriteRows writes res in format; table output is coloured when useColor is set.
func WriteRows(w io.Writer, res RowsResult, format string, pretty, useColor bool) error {
	if format == Table {
		return writeRowsTable(w, res, useColor)
	}
	return Write(w, res, format, pretty)
}

func writeRowsTable(w io.Writer, res RowsResult, useColor bool) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Team", "Project", "CP3", "CP3.5", "CP4", "CP5", "Days left"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	var red, yellow, green, grey, bold func(...any) string
	if useColor {
		red = color.New(color.FgRed, color.Bold).SprintFunc()
		yellow = color.New(color.FgYellow).SprintFunc()
		green = color.New(color.FgGreen).SprintFunc()
		grey = color.New(color.FgHiBlack).SprintFunc()
		bold = color.New(color.Bold).SprintFunc()
	} else {
		red, yellow, green, grey, bold = fmt.Sprint, fmt.Sprint, fmt.Sprint, fmt.Sprint, fmt.Sprint
	}

	dash := func(s string) string {
		if s == "" {
			return grey("-")
		}
		return s
	}

	data := make([][]string, 0, len(res.Rows))
	for _, r := range res.Rows {
		days := grey("open")
		if r.DaysRemaining != nil {
			n := *r.DaysRemaining
			s := strconv.Itoa(n)
			switch {
			case n < 0:
				days = red(s)
			case n <= soonDays:
				days = yellow(s)
			default:
				days = green(s)
			}
		}
		data = append(data, []string{
			bold(r.Team),
			r.Project,
			r.CP3,
			dash(r.CP35),
			dash(r.CP4),
			dash(r.CP5),
			days,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, res.Report.String())
	return err
}
