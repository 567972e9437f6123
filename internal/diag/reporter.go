package diag

import "obx/internal/source"

// Reporter is the sink every pass reports through. Implementations:
// BagReporter (accumulates), NopReporter, MultiReporter (fan-out).
type Reporter interface {
	Report(d Diagnostic)
}

// BagReporter writes into a *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}

// MultiReporter fans a diagnostic out to several sinks.
type MultiReporter []Reporter

func (m MultiReporter) Report(d Diagnostic) {
	for _, r := range m {
		r.Report(d)
	}
}

// Error reports an error-severity diagnostic.
func Error(r Reporter, code Code, primary source.Span, msg string) {
	if r == nil {
		return
	}
	r.Report(NewError(code, primary, msg))
}

// Warning reports a warning-severity diagnostic.
func Warning(r Reporter, code Code, primary source.Span, msg string) {
	if r == nil {
		return
	}
	r.Report(NewWarning(code, primary, msg))
}
