package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/optimode/mxprobe"
)

func writeResults(w io.Writer, format string, results []mxprobe.VerificationResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "csv":
		return writeCSV(w, results)
	case "table":
		writeTable(w, results)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeCSV(w io.Writer, results []mxprobe.VerificationResult) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"email", "status", "detail", "attempts", "mx_host", "smtp_code", "reason", "disposable", "suggestion"})
	for _, r := range results {
		code := ""
		if r.SMTPCode != 0 {
			code = strconv.Itoa(r.SMTPCode)
		}
		_ = cw.Write([]string{
			r.Address,
			string(r.Status),
			r.Detail,
			strconv.Itoa(r.Attempts),
			r.MXHost,
			code,
			r.Reason,
			strconv.FormatBool(r.Disposable),
			r.Suggestion,
		})
	}
	cw.Flush()
	return cw.Error()
}

func writeTable(w io.Writer, results []mxprobe.VerificationResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Email", "Status", "Detail", "Attempts", "MX", "Note"})
	for i, r := range results {
		note := ""
		switch {
		case r.Disposable:
			note = "disposable"
		case r.Suggestion != "":
			note = "did you mean " + r.Suggestion + "?"
		}
		t.AppendRow(table.Row{i + 1, r.Address, statusText(r.Status), r.Detail, r.Attempts, r.MXHost, note})
	}
	s := mxprobe.Summarize(results)
	t.AppendFooter(table.Row{"", "Total", s.Total,
		fmt.Sprintf("%d valid / %d invalid / %d undetermined", s.Valid, s.Invalid, s.Undetermined)})
	t.Render()
}

func statusText(s mxprobe.Status) string {
	switch s {
	case mxprobe.StatusValid:
		return color.GreenString(string(s))
	case mxprobe.StatusInvalid:
		return color.RedString(string(s))
	default:
		return color.YellowString(string(s))
	}
}
