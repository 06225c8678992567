package rctransfer

import "time"

// Result is the outcome of transferring one file.
type Result struct {
	File File

	// Outcome holds the package residues (package format only)
	Outcome Outcome

	// FileBytes is the size of the file contents transferred
	FileBytes int64

	// WireBytes is everything written to the link for the file
	WireBytes int64

	// Duration is the time taken for the file
	Duration time.Duration

	// Response is the remote's reply to a package, if any
	Response string

	// Warning is a problem that did not stop the file (a mismatched package
	// is still written)
	Warning error

	// Err is set when the file failed
	Err error
}

// OK reports whether the file was transferred.
func (r Result) OK() bool {
	return r.Err == nil
}

// Report collects the results of a batch.
type Report struct {
	Results []Result
}

// Add appends a result.
func (r *Report) Add(result Result) {
	r.Results = append(r.Results, result)
}

// Merge appends the results of other.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Results = append(r.Results, other.Results...)
}

// Succeeded returns the number of files transferred.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Failed returns the results of the files that were not transferred.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Warnings returns the number of files transferred with a warning.
func (r *Report) Warnings() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() && res.Warning != nil {
			n++
		}
	}
	return n
}

// Totals returns the file and wire bytes over all results.
func (r *Report) Totals() (fileBytes, wireBytes int64) {
	for _, res := range r.Results {
		fileBytes += res.FileBytes
		wireBytes += res.WireBytes
	}
	return fileBytes, wireBytes
}
