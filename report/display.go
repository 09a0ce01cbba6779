package report

import (
	"fmt"

	"github.com/pterm/pterm"
)

var (
	infoColorFG  = pterm.FgLightGreen
	infoStyleBG  = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	warnColorFG  = pterm.FgYellow
	warnStyleBG  = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	errorColorFG = pterm.FgRed
	errorStyleBG = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
)

// displayFatal displays a fatal error message.
func displayFatal(message string) {
	errorStyleBG.Print("Fatal Error")
	errorColorFG.Println(" " + message)
}

// displayError displays a compilation error for the given source path.
func displayError(path string, err error) {
	errorStyleBG.Print("Error")
	errorColorFG.Println(fmt.Sprintf(" %s: %s", path, err))
}

// displayWarning displays a compilation warning for the given source path.
func displayWarning(path, message string) {
	warnStyleBG.Print("Warning")
	warnColorFG.Println(fmt.Sprintf(" %s: %s", path, message))
}

// displayInfo displays an informational message with the given tag.
func displayInfo(tag, message string) {
	infoStyleBG.Print(tag)
	infoColorFG.Println(" " + message)
}
