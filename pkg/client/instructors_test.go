package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func TestGetInstructor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/instructors/")
		fmt.Fprintf(w, `{"id":"%s","name":"Instructor %s"}`, id, id)
	}))
	defer server.Close()

	instructor, err := New(server.URL).GetInstructor(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if instructor.Id != "abc" || instructor.Name != "Instructor abc" {
		t.Errorf("Expected instructor abc, got %+v", instructor)
	}
}

func TestGetInstructorMissingIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"anonymous"}`)
	}))
	defer server.Close()

	_, err := New(server.URL).GetInstructor(context.Background(), "abc")
	if err == nil {
		t.Errorf("Expected error for record without id")
	}
}

func TestGetInstructorsBoundedFanOut(t *testing.T) {
	var inFlight atomic.Int32
	var peak atomic.Int32
	var mu sync.Mutex

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)
		mu.Lock()
		if current > peak.Load() {
			peak.Store(current)
		}
		mu.Unlock()
		id := strings.TrimPrefix(r.URL.Path, "/instructors/")
		fmt.Fprintf(w, `{"id":"%s","name":"n"}`, id)
	}))
	defer server.Close()

	ids := make([]string, 20)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
	}
	result, err := New(server.URL).GetInstructors(context.Background(), ids)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result) != 20 {
		t.Errorf("Expected all 20 resolved, got %d", len(result))
	}
	if peak.Load() > detailWorkers {
		t.Errorf("Expected at most %d concurrent lookups, got %d", detailWorkers, peak.Load())
	}
}

func TestGetInstructorsPartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/instructors/")
		if id == "bad" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{"id":"%s","name":"n"}`, id)
	}))
	defer server.Close()

	result, err := New(server.URL).GetInstructors(context.Background(), []string{"a", "bad", "b"})
	if err == nil {
		t.Errorf("Expected first error to be surfaced")
	}
	if len(result) != 2 {
		t.Errorf("Expected the two good ids to resolve, got %v", result)
	}
}

func TestGetInstructorsEmpty(t *testing.T) {
	result, err := New("http://unused").GetInstructors(context.Background(), nil)
	if err != nil || len(result) != 0 {
		t.Errorf("Expected empty result for no ids, got %v %v", result, err)
	}
}
