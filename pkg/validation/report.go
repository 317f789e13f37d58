package validation

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// PrintReport writes a human-readable validation summary for the named
// document to stdout.
func PrintReport(name string, res *Result) {
	FprintReport(os.Stdout, name, res)
}

// FprintReport writes a human-readable validation summary to w.
func FprintReport(w io.Writer, name string, res *Result) {
	header := color.New(color.Bold)
	pass := color.New(color.FgGreen, color.Bold)
	fail := color.New(color.FgRed, color.Bold)
	warn := color.New(color.FgYellow)
	kindColor := color.New(color.FgRed)
	pathColor := color.New(color.FgCyan)

	header.Fprintf(w, "Validation report for %s\n", name)
	if res.OK() {
		pass.Fprintf(w, "  PASS")
		fmt.Fprintf(w, " (no violations)")
	} else {
		fail.Fprintf(w, "  FAIL")
		fmt.Fprintf(w, " (%d violation(s))", len(res.Violations))
	}
	if len(res.Warnings) > 0 {
		fmt.Fprintf(w, ", %d warning(s)", len(res.Warnings))
	}
	fmt.Fprintln(w)

	for _, v := range res.Violations {
		fmt.Fprint(w, "  ")
		kindColor.Fprintf(w, "[%s]", v.Kind)
		if v.Path != "" {
			fmt.Fprint(w, " ")
			pathColor.Fprint(w, v.Path)
		}
		fmt.Fprintf(w, ": %s\n", v.Message)
	}
	for _, wrn := range res.Warnings {
		fmt.Fprint(w, "  ")
		warn.Fprint(w, "[warning]")
		if wrn.Path != "" {
			fmt.Fprint(w, " ")
			pathColor.Fprint(w, wrn.Path)
		}
		fmt.Fprintf(w, ": %s\n", wrn.Message)
	}
}
