// Package ui renders wingetbridge output for terminals: status messages,
// package tables, prompts and spinners.
package ui

import (
	"io"
	"os"

	"github.com/fatih/color"

	"wingetbridge/pkg/manager"
)

// Message styles.
var (
	Success = color.New(color.FgGreen, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow, color.Bold)
	Info    = color.New(color.FgCyan)
	Header  = color.New(color.FgMagenta, color.Bold)
	Muted   = color.New(color.FgHiBlack)
)

// Table column styles.
var (
	PackageName    = color.New(color.FgWhite, color.Bold)
	PackageVersion = color.New(color.FgGreen)
	PackageSource  = color.New(color.FgCyan)
	PackageID      = color.New(color.FgHiBlack)
	Available      = color.New(color.FgYellow, color.Bold)
)

// symbols prefixes status messages.
type symbols struct {
	success, failure, warning, info string
}

var (
	unicodeSymbols = symbols{success: "✓", failure: "✗", warning: "!", info: "→"}
	asciiSymbols   = symbols{success: "[OK]", failure: "[ERROR]", warning: "[WARN]", info: "->"}
)

var (
	// UseColors reports whether output is colored.
	UseColors = true

	// UseUnicode selects unicode symbols and spinner frames.
	UseUnicode = true

	sym = unicodeSymbols

	// Messages receives success, info and header lines. Commands printing
	// JSON point it at stderr so stdout stays machine readable.
	Messages io.Writer = color.Output

	// Problems receives warnings and errors.
	Problems io.Writer = color.Error
)

// Init applies the output configuration. NO_COLOR always disables color.
func Init(useColors, useUnicode bool) {
	UseColors = useColors && os.Getenv("NO_COLOR") == ""
	UseUnicode = useUnicode

	color.NoColor = !UseColors
	sym = unicodeSymbols
	if !useUnicode {
		sym = asciiSymbols
	}
}

func printTo(w io.Writer, c *color.Color, prefix, format string, args ...interface{}) {
	if prefix != "" {
		prefix += " "
	}
	c.Fprintf(w, prefix+format+"\n", args...) //nolint:errcheck
}

// SuccessMsg prints a success message.
func SuccessMsg(format string, args ...interface{}) {
	printTo(Messages, Success, sym.success, format, args...)
}

// ErrorMsg prints an error message.
func ErrorMsg(format string, args ...interface{}) {
	printTo(Problems, Error, sym.failure, format, args...)
}

// WarningMsg prints a warning message.
func WarningMsg(format string, args ...interface{}) {
	printTo(Problems, Warning, sym.warning, format, args...)
}

// InfoMsg prints an info message.
func InfoMsg(format string, args ...interface{}) {
	printTo(Messages, Info, sym.info, format, args...)
}

// HeaderMsg prints a section header preceded by a blank line.
func HeaderMsg(format string, args ...interface{}) {
	printTo(Messages, Header, "", "\n"+format, args...)
}

// MutedMsg prints a dim line.
func MutedMsg(format string, args ...interface{}) {
	printTo(Messages, Muted, "", format, args...)
}

// OutcomeMsg prints an operation status in the color of its outcome.
func OutcomeMsg(outcome manager.Outcome, format string, args ...interface{}) {
	switch {
	case outcome.Succeeded():
		SuccessMsg(format, args...)
	case outcome == manager.OutcomeNoApplicableUpdate, outcome == manager.OutcomeAlreadyInstalled, outcome == manager.OutcomeCancelled:
		WarningMsg(format, args...)
	default:
		ErrorMsg(format, args...)
	}
}

// Bold returns s in bold.
func Bold(s string) string { return color.New(color.Bold).Sprint(s) }

// Green returns s in green.
func Green(s string) string { return color.GreenString("%s", s) }

// Red returns s in red.
func Red(s string) string { return color.RedString("%s", s) }

// Cyan returns s in cyan.
func Cyan(s string) string { return color.CyanString("%s", s) }
