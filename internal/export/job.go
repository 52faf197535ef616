package export

import (
	"time"

	"github.com/google/uuid"
)

// Op names a user-facing export operation.
type Op string

const (
	OpDownload    Op = "download"
	OpDownloadAll Op = "download_all"
	OpCopy        Op = "copy"
)

// State is the lifecycle position of one artifact.
type State string

const (
	StateIdle               State = "idle"
	StateFetching           State = "fetching"
	StateDecoding           State = "decoding"
	StateTransforming       State = "transforming"
	StateEncoding           State = "encoding"
	StateDelivering         State = "delivering"
	StateSucceeded          State = "succeeded"
	StateFailedWithFallback State = "failed_with_fallback"
	StateFailedTerminal     State = "failed_terminal"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailedWithFallback, StateFailedTerminal:
		return true
	}
	return false
}

// Kind classifies a failure for the user.
type Kind string

const (
	KindNone       Kind = ""
	KindProcessing Kind = "processing"
	KindClipboard  Kind = "clipboard"
	KindArchive    Kind = "archive"
	KindDelivery   Kind = "delivery"
)

// Artifact tracks one output of a job.
type Artifact struct {
	Index    int     `json:"index"`
	URL      string  `json:"url"`
	State    State   `json:"state"`
	FailedAt State   `json:"failed_at,omitempty"`
	Error    string  `json:"error,omitempty"`
	Filename string  `json:"filename,omitempty"`
	Bytes    int     `json:"bytes,omitempty"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	Quality  float64 `json:"quality,omitempty"`

	err error
}

// Err returns the failure that ended the artifact, if any.
func (a *Artifact) Err() error { return a.err }

func (a *Artifact) advance(s State) { a.State = s }

func (a *Artifact) fail(err error, terminal State) {
	if a.FailedAt == "" {
		a.FailedAt = a.State
	}
	a.err = err
	a.Error = err.Error()
	a.State = terminal
}

// Job is one user-initiated export. It lives only for the duration of the call.
type Job struct {
	ID        string
	Op        Op
	Artifacts []Artifact
	StartedAt time.Time
}

func newJob(op Op, urls []string) *Job {
	j := &Job{ID: uuid.NewString(), Op: op, StartedAt: time.Now(), Artifacts: make([]Artifact, len(urls))}
	for i, u := range urls {
		j.Artifacts[i] = Artifact{Index: i, URL: u, State: StateIdle}
	}
	return j
}

// Notice is the single user-facing status message of a job.
type Notice struct {
	JobID   string `json:"job_id"`
	Op      Op     `json:"op"`
	Success bool   `json:"success"`
	Kind    Kind   `json:"kind,omitempty"`
	Message string `json:"message"`
}

// Report summarizes a finished job.
type Report struct {
	JobID     string        `json:"job_id"`
	Op        Op            `json:"op"`
	State     State         `json:"state"`
	Kind      Kind          `json:"kind,omitempty"`
	Message   string        `json:"message"`
	Filename  string        `json:"filename,omitempty"`
	Entries   int           `json:"entries"`
	Omitted   int           `json:"omitted"`
	Artifacts []Artifact    `json:"artifacts"`
	Elapsed   time.Duration `json:"elapsed"`

	err error
}

// Err returns the error behind a failed report.
func (r Report) Err() error { return r.err }

// Succeeded reports whether the user saw a success notice.
func (r Report) Succeeded() bool {
	return r.State == StateSucceeded || r.State == StateFailedWithFallback
}

func (r Report) notice() Notice {
	return Notice{JobID: r.JobID, Op: r.Op, Success: r.Succeeded(), Kind: r.Kind, Message: r.Message}
}
