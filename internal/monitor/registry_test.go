package monitor

import "testing"

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	job := &Job{urlID: 1, url: "http://example.com", cancel: func() {}, done: make(chan struct{})}

	if r.Has(1) {
		t.Error("empty registry should not have job 1")
	}
	if !r.Register(job) {
		t.Fatal("first registration should succeed")
	}
	if r.Register(&Job{urlID: 1}) {
		t.Error("duplicate registration should be rejected")
	}
	if !r.Has(1) || r.Len() != 1 {
		t.Error("expected exactly one registered job")
	}
	if got := r.Get(1); got != job {
		t.Error("Get returned a different job")
	}
	if got := r.Get(2); got != nil {
		t.Error("Get for unknown URL should return nil")
	}

	snapshot := r.Snapshot()
	if len(snapshot) != 1 || snapshot[0] != job {
		t.Error("snapshot should contain the registered job")
	}

	r.Unregister(1)
	if r.Has(1) || r.Len() != 0 {
		t.Error("job should be gone after unregister")
	}
	r.Unregister(1) // idempotent
}
