package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"

	"mercator-hq/storage-helper/pkg/artifact"
)

// fakeGCS emulates the two JSON API endpoints the backend uses. Listings
// are served two items per page.
type fakeGCS struct {
	mu      sync.Mutex
	bucket  string
	objects map[string]string // name -> timeCreated
	deleted []string
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	base := "/storage/v1/b/" + f.bucket + "/o"

	switch {
	case r.Method == http.MethodGet && r.URL.Path == base:
		f.list(w, r)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, base+"/"):
		name := strings.TrimPrefix(r.URL.Path, base+"/")
		if _, ok := f.objects[name]; !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"code":404,"message":"No such object"}}`))
			return
		}
		delete(f.objects, name)
		f.deleted = append(f.deleted, name)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
	}
}

func (f *fakeGCS) list(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	var names []string
	for name := range f.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	start := 0
	if token := r.URL.Query().Get("pageToken"); token != "" {
		for i, name := range names {
			if name == token {
				start = i
				break
			}
		}
	}
	end := min(start+2, len(names))

	type item struct {
		Name        string `json:"name"`
		TimeCreated string `json:"timeCreated,omitempty"`
	}
	resp := struct {
		Items         []item `json:"items"`
		NextPageToken string `json:"nextPageToken,omitempty"`
	}{}
	for _, name := range names[start:end] {
		resp.Items = append(resp.Items, item{Name: name, TimeCreated: f.objects[name]})
	}
	if end < len(names) {
		resp.NextPageToken = names[end]
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func newGCSBackend(t *testing.T, fake *fakeGCS) *GCSBackend {
	t.Helper()

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	backend, err := NewGCSBackend(context.Background(),
		GCSConfig{Bucket: fake.bucket, Endpoint: server.URL + "/storage/v1/"},
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("NewGCSBackend() error = %v", err)
	}
	return backend
}

func TestGCSBackend_ListPages(t *testing.T) {
	fake := &fakeGCS{
		bucket: "assets",
		objects: map[string]string{
			"my-prefix/a-app/1.0.0/a.js": "2023-09-17T10:00:00.123Z",
			"my-prefix/a-app/1.0.0/b.js": "2023-09-17T10:00:01Z",
			"my-prefix/b-app/2.0.0/a.js": "",
			"my-prefix/c-app/3.0.0/a.js": "not-a-time",
			"other/d-app/1.0.0/a.js":     "2023-09-17T10:00:00Z",
		},
	}
	backend := newGCSBackend(t, fake)

	objects, err := backend.List(context.Background(), "my-prefix/")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(objects) != 4 {
		t.Fatalf("List() returned %d objects across pages, want 4", len(objects))
	}
	if objects[0].Name != "my-prefix/a-app/1.0.0/a.js" || objects[0].Created.IsZero() {
		t.Errorf("objects[0] = %+v", objects[0])
	}
	if objects[0].Created.Nanosecond() != 123000000 {
		t.Errorf("objects[0].Created = %v, want fractional seconds preserved", objects[0].Created)
	}
	if !objects[2].Created.IsZero() {
		t.Errorf("objects[2].Created = %v, want zero for missing timeCreated", objects[2].Created)
	}
	if !objects[3].Created.IsZero() {
		t.Errorf("objects[3].Created = %v, want zero for malformed timeCreated", objects[3].Created)
	}

	packages := GroupPackages(objects, "my-prefix/", nil)
	if len(packages) != 1 || packages[0].Key() != "a-app/1.0.0" {
		t.Errorf("GroupPackages() = %v, want only a-app/1.0.0", packages)
	}
}

func TestGCSBackend_DeletePrefix(t *testing.T) {
	fake := &fakeGCS{
		bucket: "assets",
		objects: map[string]string{
			"a-app/1.0.0/a.js":      "2023-09-17T10:00:00Z",
			"a-app/1.0.0/b.js":      "2023-09-17T10:00:00Z",
			"a-app/1.0.0/c/d.js":    "2023-09-17T10:00:00Z",
			"a-app/1.0.0-rc.1/a.js": "2023-09-17T10:00:00Z",
		},
	}
	backend := newGCSBackend(t, fake)

	n, err := backend.DeletePrefix(context.Background(), "a-app/1.0.0/")
	if err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}

	if n != 3 {
		t.Errorf("DeletePrefix() = %d, want 3", n)
	}
	if len(fake.objects) != 1 {
		t.Errorf("%d objects left, want 1", len(fake.objects))
	}
	if _, ok := fake.objects["a-app/1.0.0-rc.1/a.js"]; !ok {
		t.Error("sibling version should not be deleted")
	}
}

func TestGCSBackend_UnknownBucket(t *testing.T) {
	fake := &fakeGCS{bucket: "assets", objects: map[string]string{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	backend, err := NewGCSBackend(context.Background(),
		GCSConfig{Bucket: "missing", Endpoint: server.URL + "/storage/v1/"},
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("NewGCSBackend() error = %v", err)
	}

	_, err = backend.List(context.Background(), "")

	var storageErr *artifact.StorageError
	if !errors.As(err, &storageErr) || storageErr.Operation != "list" {
		t.Errorf("List() error = %v, want list StorageError", err)
	}
	if !isNotFound(err) {
		t.Errorf("isNotFound(%v) = false, want true", err)
	}
}

func TestGCSBackend_Ping(t *testing.T) {
	fake := &fakeGCS{bucket: "assets", objects: map[string]string{"p/a/1.0.0/a.js": "2023-09-17T10:00:00Z"}}
	if err := newGCSBackend(t, fake).Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	missing := &fakeGCS{bucket: "assets", objects: map[string]string{}}
	server := httptest.NewServer(missing)
	t.Cleanup(server.Close)
	backend, err := NewGCSBackend(context.Background(),
		GCSConfig{Bucket: "missing", Endpoint: server.URL + "/storage/v1/"},
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("NewGCSBackend() error = %v", err)
	}

	err = backend.Ping(context.Background())
	var storageErr *artifact.StorageError
	if !errors.As(err, &storageErr) || storageErr.Operation != "ping" {
		t.Errorf("Ping() error = %v, want ping StorageError", err)
	}
}
