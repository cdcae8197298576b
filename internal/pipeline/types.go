package pipeline

import (
	"time"

	"github.com/galerija/imagepipe/internal/derive"
)

// State tracks how far a run got. A run that fails is left exactly as
// far along as it got; there is no rollback of partial derivatives.
type State string

const (
	StateReceived     State = "received"
	StateKeyExtracted State = "key_extracted"
	StateDownloaded   State = "downloaded"
	StateProcessing   State = "processing"
	StateCleanup      State = "cleanup"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Task names one source object to process.
type Task struct {
	Bucket string
	Key    string
}

// ProfileOutcome records what one resize profile produced for a run.
type ProfileOutcome struct {
	Profile string
	Keys    []string
	Err     error
}

// RunResult is the observable outcome of a single pipeline run.
type RunResult struct {
	Bucket     string
	Key        string
	State      State
	SkipReason string
	CatalogKey string
	RealKey    string
	Profiles   []ProfileOutcome
	Err        error
	Duration   time.Duration
}

// Skipped reports whether the run was a terminal no-op.
func (r RunResult) Skipped() bool { return r.SkipReason != "" }

// Options gather the policy knobs of a run.
type Options struct {
	Bucket                     string
	SKUMode                    string
	SupportedExtensions        []string
	TempDir                    string
	DeleteOriginalAfterProcess bool
	ExportBasePath             string
}

// Generator renders the derivative files for one source image.
type Generator interface {
	Generate(srcPath string, profiles []derive.Profile) ([]derive.Result, error)
}

// Exporter pushes one derivative file to the remote transfer target.
type Exporter interface {
	Export(localPath, remotePath string) error
}
