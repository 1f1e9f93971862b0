package analysis

import "runtime"

// Stdlib importer modes.
const (
	ImporterSource = "source"
	ImporterNone   = "none"
)

// Options tunes loading, dead-code roots and lint thresholds.
type Options struct {
	IncludeTests       bool
	Exclude            []string
	Jobs               int
	StdlibImporter     string
	ExportedIsLive     bool
	TransitiveDeadCode bool
	MaxComplexity      int
	MaxFunctionLines   int
	MaxParams          int
	RequireDocComments bool
	SecretScan         bool
}

func DefaultOptions() Options {
	return Options{
		IncludeTests:       true,
		Jobs:               runtime.NumCPU(),
		StdlibImporter:     ImporterSource,
		ExportedIsLive:     true,
		MaxComplexity:      15,
		MaxFunctionLines:   80,
		MaxParams:          6,
		RequireDocComments: false,
		SecretScan:         true,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Jobs <= 0 {
		o.Jobs = d.Jobs
	}
	if o.StdlibImporter == "" {
		o.StdlibImporter = d.StdlibImporter
	}
	if o.MaxComplexity <= 0 {
		o.MaxComplexity = d.MaxComplexity
	}
	if o.MaxFunctionLines <= 0 {
		o.MaxFunctionLines = d.MaxFunctionLines
	}
	if o.MaxParams <= 0 {
		o.MaxParams = d.MaxParams
	}
	return o
}
