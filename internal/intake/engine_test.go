package intake

import (
	"sync"
	"testing"
	"time"
)

func TestEngineCallbacks(t *testing.T) {
	tests := []struct {
		name           string
		files          []File
		wantComplete   int
		wantAccepted   int
		wantRejected   int
		acceptedCalled bool
		rejectedCalled bool
	}{
		{
			name:           "Mixed batch fires both subset callbacks",
			files:          []File{file("a.png", "image/png", 1), file("b.txt", "text/plain", 1)},
			wantComplete:   2,
			wantAccepted:   1,
			wantRejected:   1,
			acceptedCalled: true,
			rejectedCalled: true,
		},
		{
			name:           "All accepted skips OnRejected",
			files:          []File{file("a.png", "image/png", 1)},
			wantComplete:   1,
			wantAccepted:   1,
			acceptedCalled: true,
		},
		{
			name:           "All rejected skips OnAccepted",
			files:          []File{file("b.txt", "text/plain", 1)},
			wantComplete:   1,
			wantRejected:   1,
			rejectedCalled: true,
		},
		{
			name:         "Empty batch only completes",
			files:        []File{},
			wantComplete: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				completeFiles  []File
				completeRes    Result
				completeCalls  int
				acceptedCalled bool
				rejectedCalled bool
				rejectedErrs   []ValidationError
			)
			cb := Callbacks{
				OnComplete: func(files []File, res Result) {
					completeCalls++
					completeFiles = files
					completeRes = res
				},
				OnAccepted: func(accepted []File) { acceptedCalled = true },
				OnRejected: func(rejected []File, errs []ValidationError) {
					rejectedCalled = true
					rejectedErrs = errs
				},
			}

			e := NewEngine(nil, mustPolicy(t, PolicyConfig{Accept: "image/*", AllowMultiple: true}), cb)
			defer e.Close()

			res := e.Submit(Batch{Origin: OriginPicker, Files: tt.files})

			if completeCalls != 1 {
				t.Fatalf("OnComplete called %d times, want 1", completeCalls)
			}
			if len(completeFiles) != tt.wantComplete {
				t.Errorf("OnComplete files = %d, want %d", len(completeFiles), tt.wantComplete)
			}
			if len(completeRes.Accepted) != tt.wantAccepted || len(res.Accepted) != tt.wantAccepted {
				t.Errorf("accepted = %d, want %d", len(res.Accepted), tt.wantAccepted)
			}
			if len(completeRes.Rejected) != tt.wantRejected {
				t.Errorf("rejected = %d, want %d", len(completeRes.Rejected), tt.wantRejected)
			}
			if acceptedCalled != tt.acceptedCalled {
				t.Errorf("OnAccepted called = %v, want %v", acceptedCalled, tt.acceptedCalled)
			}
			if rejectedCalled != tt.rejectedCalled {
				t.Errorf("OnRejected called = %v, want %v", rejectedCalled, tt.rejectedCalled)
			}
			if tt.rejectedCalled && len(rejectedErrs) != tt.wantRejected {
				t.Errorf("OnRejected errors = %d, want %d", len(rejectedErrs), tt.wantRejected)
			}
		})
	}
}

func TestEngineNilCallbacks(t *testing.T) {
	e := NewEngine(nil, nil, Callbacks{})
	res := e.Submit(Batch{Files: []File{file("x", "", 1)}})
	if len(res.Accepted) != 1 {
		t.Errorf("nil policy should accept, got %+v", res)
	}
}

func TestEngineSetPolicy(t *testing.T) {
	e := NewEngine(nil, nil, Callbacks{})
	batch := Batch{Files: []File{file("a.txt", "text/plain", 1)}}

	if res := e.Submit(batch); len(res.Accepted) != 1 {
		t.Fatal("default policy should accept")
	}

	e.SetPolicy(mustPolicy(t, PolicyConfig{Accept: "image/*"}))
	if res := e.Submit(batch); len(res.Rejected) != 1 {
		t.Fatal("new policy should reject text files")
	}
	if e.Policy().Accept.String() != "image/*" {
		t.Errorf("Policy() = %s", e.Policy())
	}
}

func TestEngineWithChannelSource(t *testing.T) {
	ch := make(chan Batch)
	var (
		mu      sync.Mutex
		results []Result
	)
	done := make(chan struct{}, 4)

	e := NewEngine(NewChannelSource(ch), AllowAll(), Callbacks{
		OnComplete: func(files []File, res Result) {
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			done <- struct{}{}
		},
	})

	ch <- Batch{Origin: OriginDrop, Files: []File{file("a", "", 1)}}
	ch <- Batch{Origin: OriginDrop, Files: []File{file("b", "", 1), file("c", "", 1)}}

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for batch")
		}
	}

	e.Close()
	e.Close()
	time.Sleep(20 * time.Millisecond)

	// After Close nobody reads the channel any more
	select {
	case ch <- Batch{Files: []File{file("late", "", 1)}}:
		t.Fatal("engine still subscribed after Close")
	case <-time.After(50 * time.Millisecond):
	}

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 2 || len(results[1].Accepted) != 2 {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestChannelSourceStopsOnClose(t *testing.T) {
	ch := make(chan Batch)
	delivered := make(chan Batch, 1)
	unsub := NewChannelSource(ch).Subscribe(func(b Batch) { delivered <- b })
	defer unsub()

	close(ch)
	select {
	case b := <-delivered:
		t.Fatalf("unexpected delivery %+v", b)
	case <-time.After(20 * time.Millisecond):
	}
}
