package domain

import "testing"

// TestSetMetaOnce verifies first-writer-wins semantics across repeated
// starts of the same checkpoint
func TestSetMetaOnce(t *testing.T) {
	job := &SyncJob{}
	job.SetMetaOnce("cases", "spring", "cases", "cases_spring")

	if job.Endpoint != "cases" || job.Dataset != "spring" || job.Filename != "cases_spring" {
		t.Fatalf("meta not recorded: %+v", job)
	}
	if job.StartedAt == nil {
		t.Fatal("StartedAt not recorded")
	}
	firstStart := *job.StartedAt

	// A second writer must not overwrite anything.
	job.SetMetaOnce("meetings", "autumn", "meetings", "meetings_autumn")

	if job.Endpoint != "cases" || job.Dataset != "spring" || job.ListKey != "cases" || job.Filename != "cases_spring" {
		t.Errorf("meta overwritten: %+v", job)
	}
	if !job.StartedAt.Equal(firstStart) {
		t.Errorf("StartedAt overwritten: %v != %v", job.StartedAt, firstStart)
	}
}

// TestJobDone verifies completion tracks the remaining item list
func TestJobDone(t *testing.T) {
	job := &SyncJob{Remaining: JSONMapList{{"id": "1"}}}
	if job.Done() {
		t.Error("job with remaining items reported done")
	}
	job.Remaining = JSONMapList{}
	if !job.Done() {
		t.Error("job with no remaining items not done")
	}
}
