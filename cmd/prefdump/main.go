// prefdump inspects the column preferences stored in a formdeck data file.
// It exists for support work: when an operator reports a table that "lost"
// its layout, the stored preference rows show what the client will merge.
package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

type storedColumn struct {
	Field   string `json:"field"`
	Title   string `json:"title"`
	Visible bool   `json:"visible"`
}

type prefRow struct {
	Form      string         `json:"form"`
	State     string         `json:"state"`
	User      string         `json:"user"`
	UpdatedAt string         `json:"updated_at"`
	Columns   []storedColumn `json:"columns"`
	// Raw is set instead of Columns when the stored blob does not decode;
	// the client would discard it and fall back to schema defaults.
	Raw string `json:"raw,omitempty"`
}

func main() {
	var dataPath string
	var form string
	var state string
	var user string
	var outputPath string
	flag.StringVar(&dataPath, "data", "", "path to the formdeck sqlite file (required)")
	flag.StringVar(&form, "form", "", "only dump preferences for this form")
	flag.StringVar(&state, "state", "", "only dump preferences for this record state")
	flag.StringVar(&user, "user", "", "only dump preferences for this user")
	flag.StringVar(&outputPath, "out", "", "output file path (optional, defaults to stdout)")
	flag.Parse()

	if dataPath == "" {
		exitWithError(errors.New("missing --data path"))
	}
	if _, err := os.Stat(dataPath); err != nil {
		exitWithError(fmt.Errorf("open data file: %w", err))
	}

	rows, err := loadPrefRows(dataPath, form, state, user)
	if err != nil {
		exitWithError(err)
	}

	rendered, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		exitWithError(fmt.Errorf("encode output: %w", err))
	}

	if outputPath == "" {
		fmt.Println(string(rendered))
		return
	}
	if err := os.WriteFile(outputPath, append(rendered, '\n'), 0o644); err != nil {
		exitWithError(fmt.Errorf("write output: %w", err))
	}
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "prefdump: %v\n", err)
	os.Exit(1)
}

func loadPrefRows(path, form, state, user string) ([]prefRow, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `SELECT form, state, user, columns, updated_at FROM column_prefs WHERE 1=1`
	var args []any
	if form != "" {
		query += ` AND form = ?`
		args = append(args, form)
	}
	if state != "" {
		query += ` AND state = ?`
		args = append(args, state)
	}
	if user != "" {
		query += ` AND user = ?`
		args = append(args, user)
	}
	query += ` ORDER BY form, state, user`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query column_prefs: %w", err)
	}
	defer rows.Close()

	out := []prefRow{}
	for rows.Next() {
		var row prefRow
		var raw string
		if err := rows.Scan(&row.Form, &row.State, &row.User, &raw, &row.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &row.Columns); err != nil {
			row.Columns = nil
			row.Raw = raw
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
