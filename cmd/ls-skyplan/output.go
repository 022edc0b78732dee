package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

var validFormats = []string{"json", "text"}

// CLIResult is the JSON envelope of every command.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results,omitempty"`
	Error   string `json:"error,omitempty"`
}

func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

// outputResult writes results as JSON, or calls text to render them.
func outputResult(w io.Writer, command string, results any, text func() string) error {
	if flagFormat == "text" {
		_, err := fmt.Fprintln(w, text())
		return err
	}
	return writeJSON(w, CLIResult{Command: command, Results: results})
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	_ = writeJSON(os.Stdout, CLIResult{Command: command, Error: err.Error()})
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
