// Package diagnostic implements PhysLang's structured diagnostic system
// (§4.9, §7): diagnostics are values collected in an ordered buffer and
// rendered only at the boundary (§9 "Diagnostics as data"), never thrown
// across a phase boundary.
//
// The accumulator shape is grounded on the teacher's validation.Validator
// (AddError/AddWarning appending to an ordered Issue list); the renderer
// adds the span-underline/gutter presentation §4.9 requires, which the
// teacher's flat Issue.Location strings don't need.
package diagnostic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/AnthraxisBR/physlang/token"
)

// Severity classifies a Diagnostic per §4.9.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

// Label attaches a message to a secondary span, used for chained notes
// such as "defined here" (§4.9).
type Label struct {
	Span    token.Span
	Message string
}

// Fix is a structured, mechanically-appliable suggestion (SPEC_FULL §3).
type Fix struct {
	Label       string
	Replacement string
	Span        token.Span
}

// Diagnostic is one compiler message: a stable code, a severity, a
// primary labeled span, any number of secondary labeled spans, and
// optional note/help lines (§4.9).
type Diagnostic struct {
	Severity Severity
	Code     string // "E####" or "W####"
	Primary  Label
	Labels   []Label
	Notes    []string
	Help     []string
	Fix      *Fix
}

// New starts a Diagnostic at the given severity, code, and primary span.
func New(sev Severity, code string, primary token.Span, message string) *Diagnostic {
	return &Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  Label{Span: primary, Message: message},
	}
}

// Errorf is a convenience constructor for SeverityError diagnostics.
func Errorf(code string, primary token.Span, format string, a ...any) *Diagnostic {
	return New(SeverityError, code, primary, fmt.Sprintf(format, a...))
}

// Warnf is a convenience constructor for SeverityWarning diagnostics.
func Warnf(code string, primary token.Span, format string, a ...any) *Diagnostic {
	return New(SeverityWarning, code, primary, fmt.Sprintf(format, a...))
}

// Notef is a convenience constructor for SeverityNote diagnostics, used
// by informational passes (e.g. analysis's unreferenced-particle check)
// that have nothing to block but something worth surfacing.
func Notef(code string, primary token.Span, format string, a ...any) *Diagnostic {
	return New(SeverityNote, code, primary, fmt.Sprintf(format, a...))
}

// WithLabel chains an additional labeled span, e.g. "defined here".
func (d *Diagnostic) WithLabel(span token.Span, format string, a ...any) *Diagnostic {
	d.Labels = append(d.Labels, Label{Span: span, Message: fmt.Sprintf(format, a...)})
	return d
}

// WithNote chains a contextual note (rendered with a leading "=").
func (d *Diagnostic) WithNote(format string, a ...any) *Diagnostic {
	d.Notes = append(d.Notes, fmt.Sprintf(format, a...))
	return d
}

// WithHelp chains a suggested-fix prose line.
func (d *Diagnostic) WithHelp(format string, a ...any) *Diagnostic {
	d.Help = append(d.Help, fmt.Sprintf(format, a...))
	return d
}

// WithFix attaches a structured, mechanically-appliable replacement
// (SPEC_FULL §3).
func (d *Diagnostic) WithFix(label string, span token.Span, replacement string) *Diagnostic {
	d.Fix = &Fix{Label: label, Replacement: replacement, Span: span}
	return d
}

// NoteMagnitude is a helper for diagnostics that quote a large derived
// magnitude (e.g. a position or stability bound); it renders with
// humanize's SI form so "1234000000000" reads as "1.23 T" the way §4.9's
// rendering guidance (readable, not just precise) expects.
func NoteMagnitude(label string, v float64) string {
	return fmt.Sprintf("%s: %s (%.6g)", label, humanize.SIWithDigits(v, 2, ""), v)
}

// Bag accumulates diagnostics in declaration/emission order and enforces
// the configured error cap (§6 options.max_errors, default 50).
type Bag struct {
	diags        []*Diagnostic
	maxErrors    int
	denyWarnings bool
}

// NewBag creates an accumulator capped at maxErrors error-severity
// diagnostics (<=0 means use the default of 50, per §6).
func NewBag(maxErrors int, denyWarnings bool) *Bag {
	if maxErrors <= 0 {
		maxErrors = 50
	}
	return &Bag{maxErrors: maxErrors, denyWarnings: denyWarnings}
}

// Add appends d to the bag unless the error cap has already been reached,
// in which case it is silently dropped (the cap itself is reported once
// by the caller via AtCap).
func (b *Bag) Add(d *Diagnostic) {
	if d.Severity == SeverityError && b.ErrorCount() >= b.maxErrors {
		return
	}
	b.diags = append(b.diags, d)
}

// All returns every accumulated diagnostic in emission order.
func (b *Bag) All() []*Diagnostic { return b.diags }

// ErrorCount returns the number of SeverityError diagnostics so far.
func (b *Bag) ErrorCount() int {
	n := 0
	for _, d := range b.diags {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}

// HasErrors reports whether the bag contains at least one error, or (when
// denyWarnings is set) at least one warning.
func (b *Bag) HasErrors() bool {
	for _, d := range b.diags {
		if d.Severity == SeverityError {
			return true
		}
		if b.denyWarnings && d.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// AtCap reports whether the error cap has been reached.
func (b *Bag) AtCap() bool { return b.ErrorCount() >= b.maxErrors }

// Codes returns every distinct diagnostic code in the bag, deduplicated
// and sorted, for the summary line Render prints once max_errors is
// reached — the emission order itself stays declaration order, but a
// reader skimming a truncated run benefits from a stable, alphabetized
// "what codes fired" line rather than a re-scan of the raw list.
func (b *Bag) Codes() []string {
	seen := make(map[string]struct{}, len(b.diags))
	for _, d := range b.diags {
		seen[d.Code] = struct{}{}
	}
	codes := maps.Keys(seen)
	slices.Sort(codes)
	return codes
}

// Render writes every diagnostic in the bag to w in the style documented
// by §4.9: a filename:line:col gutter, a source snippet with `^^^`
// underlines under the token range, and `=`-prefixed contextual notes.
// sources maps a file name (token.Span.File) to its full text.
func Render(w io.Writer, bag *Bag, sources map[string]string) {
	out, useColor := colorTarget(w)
	bw := bufio.NewWriter(out)
	defer bw.Flush()

	for _, d := range bag.All() {
		renderOne(bw, d, sources, useColor)
	}
	if bag.AtCap() {
		fmt.Fprintf(bw, "error cap of %d reached; distinct codes so far: %s\n",
			bag.maxErrors, strings.Join(bag.Codes(), ", "))
	}
}

// colorTarget decides whether ANSI severity coloring should be emitted and
// wraps w with colorable.NewColorable when w is a real terminal file, so
// color renders correctly on Windows consoles too (§4.9 rendering).
// Non-file writers (a bytes.Buffer in tests, a pipe to the CLI
// collaborator) always get plain text.
func colorTarget(w io.Writer) (io.Writer, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return w, false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return f, false
	}
	return colorable.NewColorable(f), true
}

func renderOne(w io.Writer, d *Diagnostic, sources map[string]string, color bool) {
	sevWord := d.Severity.String()
	if color {
		sevWord = colorize(d.Severity, sevWord)
	}
	fmt.Fprintf(w, "%s[%s]: %s\n", sevWord, d.Code, d.Primary.Message)
	renderSpan(w, d.Primary.Span, d.Primary.Message, sources)
	for _, lbl := range d.Labels {
		renderSpan(w, lbl.Span, lbl.Message, sources)
	}
	for _, n := range d.Notes {
		fmt.Fprintf(w, "  = note: %s\n", n)
	}
	for _, h := range d.Help {
		fmt.Fprintf(w, "  = help: %s\n", h)
	}
	if d.Fix != nil {
		fmt.Fprintf(w, "  = help: %s (replace with %q)\n", d.Fix.Label, d.Fix.Replacement)
	}
	fmt.Fprintln(w)
}

func renderSpan(w io.Writer, sp token.Span, label string, sources map[string]string) {
	src, ok := sources[sp.File]
	if !ok {
		fmt.Fprintf(w, "  --> %s\n", sp)
		return
	}
	line, col, lineText := locate(src, sp.Start)
	width := sp.End - sp.Start
	if width < 1 {
		width = 1
	}
	fmt.Fprintf(w, "  --> %s:%d:%d\n", sp.File, line, col)
	fmt.Fprintf(w, "   | %s\n", lineText)
	fmt.Fprintf(w, "   | %s%s %s\n", strings.Repeat(" ", col-1), strings.Repeat("^", width), label)
}

// locate converts a byte offset into a 1-based line/column and returns the
// full text of that line, for snippet rendering.
func locate(src string, offset int) (line, col int, lineText string) {
	line = 1
	lineStart := 0
	for i := 0; i < offset && i < len(src); i++ {
		if src[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	lineEnd := strings.IndexByte(src[lineStart:], '\n')
	if lineEnd == -1 {
		lineText = src[lineStart:]
	} else {
		lineText = src[lineStart : lineStart+lineEnd]
	}
	col = offset - lineStart + 1
	return line, col, lineText
}

func colorize(sev Severity, s string) string {
	var code string
	switch sev {
	case SeverityError:
		code = "\x1b[31;1m"
	case SeverityWarning:
		code = "\x1b[33;1m"
	default:
		code = "\x1b[36;1m"
	}
	return code + s + "\x1b[0m"
}
