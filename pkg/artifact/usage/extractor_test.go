package usage

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/storage-helper/pkg/artifact"
	"mercator-hq/storage-helper/pkg/importmap"
)

const baseURL = "https://assets.domain.com/"

type fakeSource struct {
	envs     []importmap.Environment
	maps     map[string]*importmap.ImportMap
	fail     map[string]error
	listErr  error
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeSource) ListEnvironments(ctx context.Context) ([]importmap.Environment, error) {
	return f.envs, f.listErr
}

func (f *fakeSource) FetchImportMap(ctx context.Context, env string) (*importmap.ImportMap, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		prev := f.maxSeen.Load()
		if n <= prev || f.maxSeen.CompareAndSwap(prev, n) {
			break
		}
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := f.fail[env]; err != nil {
		return nil, err
	}
	return f.maps[env], nil
}

func TestRecordIfUsed_WithPathPrefix(t *testing.T) {
	e := NewExtractor(baseURL, "my-prefix/")
	for _, u := range []string{
		"https://whatever.domain.com/my-pack/pack.js",
		"https://assets.domain.com/wrong-prefix/a-pack/1.0.0/app.js",
		"https://assets.domain.com/my-prefix/b-pack/4.2.0/app.js",
		"https://assets.domain.com/my-prefix/b-pack/4.2.0/",
	} {
		e.RecordIfUsed(u)
	}

	if e.Used().Len() != 1 {
		t.Errorf("Len() = %d, want 1", e.Used().Len())
	}
	if !e.Used().Has("b-pack/4.2.0") {
		t.Error("expected b-pack/4.2.0 to be used")
	}
}

func TestRecordIfUsed_WithoutPathPrefix(t *testing.T) {
	e := NewExtractor(baseURL, "")
	for _, u := range []string{
		"https://whatever.domain.com/my-pack/pack.js",
		"https://assets.domain.com/a-pack/1.0.0/app.js",
		"https://assets.domain.com/b-pack/4.2.0/app.js",
		"https://assets.domain.com/b-pack/4.2.0/",
	} {
		e.RecordIfUsed(u)
	}

	if e.Used().Len() != 2 {
		t.Errorf("Len() = %d, want 2", e.Used().Len())
	}
	for _, key := range []string{"a-pack/1.0.0", "b-pack/4.2.0"} {
		if !e.Used().Has(key) {
			t.Errorf("expected %s to be used", key)
		}
	}
}

func TestRecordIfUsed_IgnoresShortPaths(t *testing.T) {
	tests := []string{
		"https://assets.domain.com/",
		"https://assets.domain.com/app.js",
		"https://assets.domain.com/a-pack/",
		"https://assets.domain.com//1.0.0/app.js",
		"https://other.domain.com/a-pack/1.0.0/app.js",
	}

	for _, u := range tests {
		t.Run(u, func(t *testing.T) {
			e := NewExtractor(baseURL, "")
			e.RecordIfUsed(u)
			if e.Used().Len() != 0 {
				t.Errorf("RecordIfUsed(%q) changed the set", u)
			}
		})
	}
}

func TestSet_Contains(t *testing.T) {
	s := NewSet()
	s.Add("my-app/1.0.0")
	s.Add("my-app/1.0.0")

	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
	if !s.Contains(artifact.Package{Name: "my-app", Version: "1.0.0"}) {
		t.Error("Contains() = false, want true")
	}
	if s.Contains(artifact.Package{Name: "my-app", Version: "1.0.1"}) {
		t.Error("Contains() = true, want false")
	}
}

func TestLoad_ImportsAndScopes(t *testing.T) {
	source := &fakeSource{
		envs: []importmap.Environment{{Name: "my-env"}},
		maps: map[string]*importmap.ImportMap{
			"my-env": {
				Imports: map[string]string{
					"@my-app": "https://assets.domain.com/my-prefix/my-app/2.0.0/app.js",
				},
				Scopes: map[string]map[string]string{
					"/scope": {"@b-app": "https://assets.domain.com/my-prefix/b-app/3.0.0/app.js"},
				},
			},
		},
	}

	set, err := NewExtractor(baseURL, "my-prefix/").Load(context.Background(), source)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if set.Len() != 2 {
		t.Errorf("Len() = %d, want 2", set.Len())
	}
	for _, key := range []string{"my-app/2.0.0", "b-app/3.0.0"} {
		if !set.Has(key) {
			t.Errorf("expected %s to be used", key)
		}
	}
}

func TestLoad_WaitsForEveryEnvironment(t *testing.T) {
	source := &fakeSource{
		delay: 20 * time.Millisecond,
		maps:  map[string]*importmap.ImportMap{},
	}
	for _, env := range []string{"dev", "staging", "prod", "qa"} {
		source.envs = append(source.envs, importmap.Environment{Name: env})
		source.maps[env] = &importmap.ImportMap{
			Imports: map[string]string{"@app": baseURL + "app-" + env + "/1.0.0/app.js"},
		}
	}

	e := NewExtractor(baseURL, "")
	e.SetConcurrency(2)
	set, err := e.Load(context.Background(), source)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if set.Len() != 4 {
		t.Errorf("Len() = %d, want 4 (every environment processed)", set.Len())
	}
	if max := source.maxSeen.Load(); max > 2 {
		t.Errorf("max concurrent fetches = %d, want <= 2", max)
	}
}

func TestLoad_FailureLeavesSetUntouched(t *testing.T) {
	boom := errors.New("connection refused")
	source := &fakeSource{
		envs: []importmap.Environment{{Name: "prod"}, {Name: "broken"}},
		maps: map[string]*importmap.ImportMap{
			"prod": {Imports: map[string]string{"@app": baseURL + "app/1.0.0/app.js"}},
		},
		fail: map[string]error{"broken": boom},
	}

	e := NewExtractor(baseURL, "")
	set, err := e.Load(context.Background(), source)
	if !errors.Is(err, boom) {
		t.Fatalf("Load() error = %v, want %v", err, boom)
	}
	if set != nil {
		t.Error("Load() should not return a partial set")
	}
	if e.Used().Len() != 0 {
		t.Errorf("used set has %d entries after a failed load, want 0", e.Used().Len())
	}
}

func TestLoad_ListEnvironmentsError(t *testing.T) {
	boom := errors.New("unauthorized")
	_, err := NewExtractor(baseURL, "").Load(context.Background(), &fakeSource{listErr: boom})
	if !errors.Is(err, boom) {
		t.Errorf("Load() error = %v, want %v", err, boom)
	}
}
