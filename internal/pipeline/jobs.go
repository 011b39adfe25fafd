package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/gedgraph/internal/gedcom"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusExporting  JobStatus = "exporting"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Done reports whether no further transitions will happen.
func (s JobStatus) Done() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusPartial, StatusDupSkipped:
		return true
	}
	return false
}

// JobOptions are the per-upload settings.
type JobOptions struct {
	// TreeID, when set, namespaces person ids in the store.
	TreeID      string
	Strict      bool
	Charset     string
	SkipPrivate bool
	// Force stores the tree even when the same file was ingested before.
	Force bool
}

// Job tracks the state of a single GEDCOM file ingestion.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Filename string `json:"filename"`
	Options  JobOptions

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	doc      *gedcom.Document
	errors   []string
	warnings []string
}

// Progress tracks processing progress.
type Progress struct {
	Individuals         int      `json:"individuals"`
	Families            int      `json:"families"`
	Persons             int      `json:"persons"`
	Relationships       int      `json:"relationships"`
	BatchesTotal        int      `json:"batches_total"`
	BatchesDone         int      `json:"batches_done"`
	PersonsStored       int      `json:"persons_stored"`
	RelationshipsStored int      `json:"relationships_stored"`
	Errors              []string `json:"errors"`
	Warnings            []string `json:"warnings"`
}

// NewJob returns a queued job for the given file contents.
func NewJob(filename string, data []byte, opts JobOptions) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		Filename:    filename,
		Options:     opts,
		Status:      StatusQueued,
		Phase:       "queued",
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs and returns how many were dropped.
func (s *JobStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	n := 0
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// CurrentStatus returns the status under the job lock.
func (j *Job) CurrentStatus() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// AddWarning records a problem that did not stop the job.
func (j *Job) AddWarning(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.warnings = append(j.warnings, msg)
	j.Progress.Warnings = j.warnings
	j.UpdatedAt = time.Now()
}

// SetCounts records the size of the parsed file and the exported tree.
func (j *Job) SetCounts(individuals, families, persons, relationships int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Individuals = individuals
	j.Progress.Families = families
	j.Progress.Persons = persons
	j.Progress.Relationships = relationships
	j.UpdatedAt = time.Now()
}

// SetTotalBatches records how many store batches the job will run.
func (j *Job) SetTotalBatches(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.BatchesTotal = n
	j.UpdatedAt = time.Now()
}

// BatchStored counts one finished store batch and what it saved.
func (j *Job) BatchStored(persons, relationships int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.BatchesDone++
	j.Progress.PersonsStored += persons
	j.Progress.RelationshipsStored += relationships
	j.UpdatedAt = time.Now()
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// SetDocument keeps the parsed document for queries and drops the raw
// bytes.
func (j *Job) SetDocument(doc *gedcom.Document) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.doc = doc
	j.fileData = nil
}

// Document returns the parsed document, or nil before parsing finished.
func (j *Job) Document() *gedcom.Document {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.doc
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	TreeID      string    `json:"tree_id,omitempty"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	p := j.Progress
	p.Errors = append([]string{}, j.errors...)
	p.Warnings = append([]string{}, j.warnings...)
	return JobSnapshot{
		ID:          j.ID,
		TreeID:      j.Options.TreeID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		ContentHash: j.ContentHash,
		Progress:    p,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// HashIndex remembers which job first stored each file content.
type HashIndex struct {
	mu     sync.Mutex
	owners map[string]string
}

func NewHashIndex() *HashIndex {
	return &HashIndex{owners: make(map[string]string)}
}

// Claim records jobID as the owner of hash. If another job already owns
// it, Claim returns that job's id and false.
func (h *HashIndex) Claim(hash, jobID string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if owner, ok := h.owners[hash]; ok && owner != jobID {
		return owner, false
	}
	h.owners[hash] = jobID
	return jobID, true
}

// Set records jobID as the owner of hash unconditionally.
func (h *HashIndex) Set(hash, jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.owners[hash] = jobID
}

// Release forgets hash if jobID owns it, so the file can be ingested again.
func (h *HashIndex) Release(hash, jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.owners[hash] == jobID {
		delete(h.owners, hash)
	}
}
