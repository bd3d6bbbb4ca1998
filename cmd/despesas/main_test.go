package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "despesas.db"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestAddAndList(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "add", "--label", "Aluguel", "--month", "janeiro=1.234,56", "--month", "fevereiro=100")
	var view struct {
		ID          int64  `json:"id"`
		Label       string `json:"despesa"`
		AnnualTotal string `json:"annual_total"`
	}
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode add output: %v\n%s", err, out)
	}
	if view.ID == 0 || view.Label != "Aluguel" || view.AnnualTotal != "1334.56" {
		t.Errorf("unexpected view %+v", view)
	}

	mustRun(t, "add", "--label", "Internet", "--month", "marco=99.90")

	out = mustRun(t, "list", "--sort", "total", "--order", "asc")
	if strings.Index(out, "Internet") > strings.Index(out, "Aluguel") {
		t.Errorf("ascending total order should list Internet first:\n%s", out)
	}

	out = mustRun(t, "list", "--label", "alug")
	if !strings.Contains(out, "Aluguel") || strings.Contains(out, "Internet") {
		t.Errorf("label filter output:\n%s", out)
	}
}

func TestAdd_Invalid(t *testing.T) {
	setupEnv(t)

	if _, err := run(t, "add", "--label", "   "); err == nil {
		t.Error("empty label should fail")
	}
	if _, err := run(t, "add", "--label", "x", "--month", "janember=1"); err == nil {
		t.Error("unknown month should fail")
	}
	if _, err := run(t, "add", "--label", "x", "--month", "janeiro"); err == nil {
		t.Error("month without value should fail")
	}
}

func TestFormulaHistoryRevert(t *testing.T) {
	setupEnv(t)
	mustRun(t, "add", "--label", "Luz", "--month", "abril=50")

	out := mustRun(t, "formula", "1", "abril", "multiply", "2", "--user", "7")
	if !strings.Contains(out, `"annual_total": "100"`) {
		t.Errorf("formula output:\n%s", out)
	}

	out = mustRun(t, "history", "1")
	var events []struct {
		ID    int64  `json:"id"`
		Field string `json:"field"`
	}
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(events) != 1 || events[0].Field != "abril" {
		t.Fatalf("unexpected history %+v", events)
	}

	out = mustRun(t, "revert", "1", "abril", "1")
	if !strings.Contains(out, `"annual_total": "50"`) {
		t.Errorf("revert output:\n%s", out)
	}

	if _, err := run(t, "formula", "1", "abril", "divide", "0"); err == nil {
		t.Error("division by zero should fail")
	}
}

func TestSetAndDelete(t *testing.T) {
	setupEnv(t)
	mustRun(t, "add", "--label", "Agua")

	out := mustRun(t, "set", "1", "--label", "Agua e esgoto", "--month", "maio=80")
	if !strings.Contains(out, "Agua e esgoto") {
		t.Errorf("set output:\n%s", out)
	}
	if _, err := run(t, "set", "99", "--month", "maio=1"); err == nil {
		t.Error("updating a missing record should fail")
	}

	out = mustRun(t, "delete", "1", "2")
	if !strings.Contains(out, "deleted 1 of 2") {
		t.Errorf("delete output: %s", out)
	}
}

func TestReport(t *testing.T) {
	setupEnv(t)
	mustRun(t, "add", "--label", "A", "--month", "janeiro=10")
	mustRun(t, "add", "--label", "B", "--month", "dezembro=30")

	out := mustRun(t, "report", "--top", "1")
	var r struct {
		Sum    string `json:"sum"`
		Trends struct {
			Highest string `json:"highest_month"`
			Trend   string `json:"trend"`
		} `json:"trends"`
		Top []struct {
			Label string `json:"despesa"`
		} `json:"top"`
	}
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if r.Sum != "40" || r.Trends.Highest != "dezembro" || r.Trends.Trend != "up" {
		t.Errorf("unexpected report %+v", r)
	}
	if len(r.Top) != 1 || r.Top[0].Label != "B" {
		t.Errorf("unexpected top %+v", r.Top)
	}
}

func TestCheck(t *testing.T) {
	dir := setupEnv(t)
	mustRun(t, "add", "--label", "A", "--month", "janeiro=10")

	metrics := filepath.Join(dir, "despesas.prom")
	out := mustRun(t, "check", "--metrics-file", metrics)
	if !strings.Contains(out, "all totals consistent") {
		t.Errorf("check output: %s", out)
	}
	b, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("read metrics file: %v", err)
	}
	if !strings.Contains(string(b), "despesas_inconsistent_records 0") {
		t.Errorf("metrics file:\n%s", b)
	}
}

func TestCheck_Drift(t *testing.T) {
	setupEnv(t)
	mustRun(t, "add", "--label", "A", "--month", "janeiro=10")

	db := openRaw(t, os.Getenv("SQLITE_DB_PATH"))
	if _, err := db.Exec(`UPDATE despesas SET total_cents = 5000 WHERE id = 1`); err != nil {
		t.Fatalf("corrupt total: %v", err)
	}
	db.Close()

	_, err := run(t, "check")
	if !errors.Is(err, errDrift) {
		t.Errorf("check error = %v, want errDrift", err)
	}
}

func TestAnomalies(t *testing.T) {
	setupEnv(t)
	mustRun(t, "add", "--label", "A",
		"--month", "janeiro=10", "--month", "fevereiro=10", "--month", "marco=10", "--month", "abril=100")

	out := mustRun(t, "anomalies", "1", "--threshold", "150")
	if !strings.Contains(out, `"month": "abril"`) {
		t.Errorf("anomalies output:\n%s", out)
	}

	out = mustRun(t, "anomalies", "1", "--threshold", "1000")
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("expected no anomalies, got:\n%s", out)
	}

	if _, err := run(t, "anomalies", "42"); err == nil {
		t.Error("missing record should fail")
	}
}

func TestExportSheets(t *testing.T) {
	setupEnv(t)
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	mustRun(t, "add", "--label", "A", "--month", "janeiro=10")

	out := mustRun(t, "export-sheets", "--dry-run")
	var rows [][]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode rows: %v\n%s", err, out)
	}
	if len(rows) != 2 || rows[0][0] != "id" || rows[1][1] != "A" {
		t.Errorf("unexpected rows %v", rows)
	}

	if _, err := run(t, "export-sheets"); err == nil || !strings.Contains(err.Error(), "Spreadsheet ID") {
		t.Errorf("export without configuration should fail, got %v", err)
	}
}

func TestRoot_InvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := run(t, "migrate"); err == nil {
		t.Error("invalid driver should fail before running the command")
	}
}

func openRaw(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	return db
}
