// Package console prints user-facing CLI messages with consistent colors.
// Diagnostic logging goes through internal/log instead.
package console

import (
	"fmt"
	"os"

	"github.com/TwiN/go-color"
)

// Verbose logs a gray message when the VERBOSE environment variable is set.
func Verbose(message string, vars ...any) {
	if os.Getenv("VERBOSE") == "" {
		return
	}
	fmt.Printf(color.Ize(color.Gray, message+"\n"), vars...)
}

// Success logs a green message to the console.
func Success(message string, vars ...any) {
	fmt.Printf(color.Ize(color.Green, message+"\n"), vars...)
}

// Info logs a cyan message to the console.
func Info(message string, vars ...any) {
	fmt.Printf(color.Ize(color.Cyan, message+"\n"), vars...)
}

// Warning logs a yellow message to the console.
func Warning(message string, vars ...any) {
	fmt.Printf(color.Ize(color.Yellow, message+"\n"), vars...)
}

// Error returns a red error so command actions can hand it straight back.
func Error(message string, vars ...any) error {
	return fmt.Errorf(color.Ize(color.Red, message), vars...)
}

// ErrorPrint logs a red message to the console.
func ErrorPrint(message string, vars ...any) {
	fmt.Printf(color.Ize(color.Red, message+"\n"), vars...)
}
