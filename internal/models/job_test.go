package models

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestJobLifecycle(t *testing.T) {
	store := NewJobStore()
	job := store.Create("migration-run", "inst-1")

	if job.ID == "" || job.Status != "running" {
		t.Fatalf("fresh job = %+v", job)
	}
	if got := store.Get(job.ID); got != job {
		t.Errorf("Get returned %+v", got)
	}

	job.AppendLog("line 1")
	job.AppendLog("line 2")
	job.AppendLog("line 3")

	if got := job.LogsSince(0); len(got) != 3 {
		t.Errorf("LogsSince(0) = %v", got)
	}
	if got := job.LogsSince(2); len(got) != 1 || got[0] != "line 3" {
		t.Errorf("LogsSince(2) = %v", got)
	}
	if got := job.LogsSince(3); got != nil {
		t.Errorf("LogsSince(past end) = %v, want nil", got)
	}

	report := &Report{}
	report.Append(NewStatus("a", "b", "x", "logins", StatusSuccessful, ""))
	job.SetReport(report)
	job.Complete()

	if job.Status != "completed" || job.FinishedAt == nil {
		t.Errorf("completed job = %+v", job)
	}
	if job.Report == nil || len(job.Report.Statuses) != 1 {
		t.Errorf("report not attached: %+v", job.Report)
	}
}

func TestJobFail(t *testing.T) {
	job := NewJobStore().Create("snapshot-create", "inst-1")
	job.Fail("source connection failed")
	if job.Status != "failed" || job.Error != "source connection failed" || job.FinishedAt == nil {
		t.Errorf("failed job = %+v", job)
	}
}

func TestJobConcurrentLogAppend(t *testing.T) {
	job := NewJobStore().Create("migration-run", "inst-1")
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				job.AppendLog(fmt.Sprintf("worker %d line %d", n, j))
			}
		}(i)
	}
	wg.Wait()
	if got := len(job.LogsSince(0)); got != 1000 {
		t.Errorf("got %d lines, want 1000", got)
	}
}

func TestJobListMostRecentFirst(t *testing.T) {
	store := NewJobStore()
	first := store.Create("a", "")
	first.StartedAt = time.Now().Add(-time.Hour)
	second := store.Create("b", "")

	jobs := store.List()
	if len(jobs) != 2 || jobs[0] != second || jobs[1] != first {
		t.Errorf("List order wrong: %v", jobs)
	}
}
