package pipeline

import (
	"testing"
	"time"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob("family.ged", []byte("0 HEAD\n0 TRLR\n"), JobOptions{TreeID: "smith"})
	if job.ID == "" {
		t.Fatal("expected a job id")
	}
	if other := NewJob("family.ged", nil, JobOptions{}); other.ID == job.ID {
		t.Error("expected distinct job ids")
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	if job.ContentHash != ContentHashHex([]byte("0 HEAD\n0 TRLR\n")) {
		t.Errorf("unexpected content hash %q", job.ContentHash)
	}
	if snap := job.Snapshot(); snap.TreeID != "smith" {
		t.Errorf("expected tree id %q, got %q", "smith", snap.TreeID)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusParsing, "parsing"},
		{StatusExporting, "exporting"},
		{StatusStoring, "storing"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJobStatus_Done(t *testing.T) {
	for status, want := range map[JobStatus]bool{
		StatusQueued:     false,
		StatusParsing:    false,
		StatusStoring:    false,
		StatusCompleted:  true,
		StatusFailed:     true,
		StatusPartial:    true,
		StatusDupSkipped: true,
	} {
		if got := status.Done(); got != want {
			t.Errorf("%s.Done() = %v, want %v", status, got, want)
		}
	}
}

func TestJob_AddErrorAndWarning(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("store batch 3: timeout")
	job.AddError("store batch 7: timeout")
	job.AddWarning("ancestry cycle")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "store batch 3: timeout" {
		t.Errorf("expected first error %q, got %q", "store batch 3: timeout", snap.Progress.Errors[0])
	}
	if len(snap.Progress.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(snap.Progress.Warnings))
	}
}

func TestJob_BatchStored(t *testing.T) {
	job := &Job{ID: "batch-test", UpdatedAt: time.Now()}
	job.SetTotalBatches(3)
	job.BatchStored(5, 0)
	job.BatchStored(2, 0)
	job.BatchStored(0, 4)

	snap := job.Snapshot()
	if snap.Progress.BatchesDone != 3 || snap.Progress.BatchesTotal != 3 {
		t.Errorf("expected 3/3 batches, got %d/%d", snap.Progress.BatchesDone, snap.Progress.BatchesTotal)
	}
	if snap.Progress.PersonsStored != 7 {
		t.Errorf("expected 7 persons stored, got %d", snap.Progress.PersonsStored)
	}
	if snap.Progress.RelationshipsStored != 4 {
		t.Errorf("expected 4 relationships stored, got %d", snap.Progress.RelationshipsStored)
	}
}

func TestJob_SetDocumentDropsFileData(t *testing.T) {
	job := NewJob("a.ged", []byte("file content here"), JobOptions{})
	if string(job.FileData()) != "file content here" {
		t.Errorf("unexpected file data %q", job.FileData())
	}
	job.SetDocument(nil)
	if job.FileData() != nil {
		t.Error("expected file data to be released")
	}
}

func TestJob_SnapshotSlicesNotNil(t *testing.T) {
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil || snap.Progress.Warnings == nil {
		t.Error("expected non-nil errors and warnings in snapshot")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	store.Put(&Job{ID: "old", UpdatedAt: time.Now()})
	time.Sleep(100 * time.Millisecond)
	store.Put(&Job{ID: "new", UpdatedAt: time.Now()})

	if n := store.Cleanup(); n != 1 {
		t.Errorf("expected 1 job removed, got %d", n)
	}
	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestHashIndex(t *testing.T) {
	h := NewHashIndex()
	if owner, ok := h.Claim("abc", "job-1"); !ok || owner != "job-1" {
		t.Fatalf("first claim: got %q, %v", owner, ok)
	}
	if _, ok := h.Claim("abc", "job-1"); !ok {
		t.Error("owner should be able to claim again")
	}
	if owner, ok := h.Claim("abc", "job-2"); ok || owner != "job-1" {
		t.Errorf("second claim: got %q, %v", owner, ok)
	}

	h.Release("abc", "job-2")
	if _, ok := h.Claim("abc", "job-2"); ok {
		t.Error("release by a non-owner must not free the hash")
	}
	h.Release("abc", "job-1")
	if _, ok := h.Claim("abc", "job-2"); !ok {
		t.Error("expected hash to be free after release")
	}

	h.Set("abc", "job-3")
	if owner, _ := h.Claim("abc", "job-4"); owner != "job-3" {
		t.Errorf("expected job-3 to own the hash, got %q", owner)
	}
}
