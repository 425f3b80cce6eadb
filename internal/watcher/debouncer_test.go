package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_SingleEvent_PassesThrough(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: a single event is added
	d.Add(FileEvent{
		Path:      "speech.txt",
		Operation: OpModify,
		Timestamp: time.Now(),
	})

	// Then: the event passes through after the debounce window
	select {
	case events := <-d.Output():
		require.Len(t, events, 1)
		assert.Equal(t, "speech.txt", events[0].Path)
		assert.Equal(t, OpModify, events[0].Operation)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for debounced event")
	}
}

func TestDebouncer_RapidModifies_CoalesceToOne(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(100 * time.Millisecond)
	defer d.Stop()

	// When: multiple events for the same file are added rapidly
	for i := 0; i < 5; i++ {
		d.Add(FileEvent{
			Path:      "speech.txt",
			Operation: OpModify,
			Timestamp: time.Now(),
		})
		time.Sleep(10 * time.Millisecond)
	}

	// Then: only one event comes out
	select {
	case events := <-d.Output():
		require.Len(t, events, 1)
		assert.Equal(t, "speech.txt", events[0].Path)
		assert.Equal(t, OpModify, events[0].Operation)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for debounced events")
	}
}

func TestDebouncer_CreateThenDelete_NoEvent(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: CREATE followed by DELETE for the same file
	d.Add(FileEvent{Path: "temp.txt", Operation: OpCreate, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "temp.txt", Operation: OpDelete, Timestamp: time.Now()})

	// Then: no event is emitted, the file never really existed
	select {
	case events := <-d.Output():
		t.Fatalf("expected no events, got %d", len(events))
	case <-time.After(200 * time.Millisecond):
	}
}

func TestDebouncer_DeleteThenCreate_BecomesModify(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: DELETE followed by CREATE, a rename-replace save
	d.Add(FileEvent{Path: "speech.txt", Operation: OpDelete, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "speech.txt", Operation: OpCreate, Timestamp: time.Now()})

	// Then: one MODIFY comes out, the file was replaced
	select {
	case events := <-d.Output():
		require.Len(t, events, 1)
		assert.Equal(t, OpModify, events[0].Operation)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for debounced event")
	}
}

func TestDebouncer_CreateThenModify_StaysCreate(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: CREATE followed by MODIFY
	d.Add(FileEvent{Path: "new.txt", Operation: OpCreate, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "new.txt", Operation: OpModify, Timestamp: time.Now()})

	// Then: one CREATE comes out, the file is still new
	select {
	case events := <-d.Output():
		require.Len(t, events, 1)
		assert.Equal(t, OpCreate, events[0].Operation)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for debounced event")
	}
}

func TestDebouncer_ModifyDeleteCreate_BecomesModify(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: MODIFY, DELETE, CREATE in one burst
	d.Add(FileEvent{Path: "speech.txt", Operation: OpModify, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "speech.txt", Operation: OpDelete, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "speech.txt", Operation: OpCreate, Timestamp: time.Now()})

	// Then: the chain reduces to a single MODIFY
	select {
	case events := <-d.Output():
		require.Len(t, events, 1)
		assert.Equal(t, OpModify, events[0].Operation)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for debounced event")
	}
}

func TestDebouncer_DistinctPaths_EmitTogether(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: events for two different files arrive in one burst
	d.Add(FileEvent{Path: "a.txt", Operation: OpModify, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "b.txt", Operation: OpDelete, Timestamp: time.Now()})

	// Then: both come out in one batch
	select {
	case events := <-d.Output():
		require.Len(t, events, 2)
		paths := map[string]Operation{}
		for _, ev := range events {
			paths[ev.Path] = ev.Operation
		}
		assert.Equal(t, OpModify, paths["a.txt"])
		assert.Equal(t, OpDelete, paths["b.txt"])
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for debounced events")
	}
}

func TestDebouncer_AddAfterStop_IsIgnored(t *testing.T) {
	// Given: a stopped debouncer
	d := NewDebouncer(10 * time.Millisecond)
	d.Stop()

	// When: adding an event and stopping again
	d.Add(FileEvent{Path: "late.txt", Operation: OpModify, Timestamp: time.Now()})
	d.Stop()

	// Then: the output channel is closed and empty
	_, ok := <-d.Output()
	assert.False(t, ok)
}
