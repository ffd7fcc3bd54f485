package openapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-resty/resty/v2"
)

func TestParseSource(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw      string
		kind     SourceKind
		location string
		wantErr  bool
	}{
		{raw: "https://api.example.com/openapi.yaml", kind: SourceKindURL, location: "https://api.example.com/openapi.yaml"},
		{raw: " ./specs/../specs/api.yaml ", kind: SourceKindFile, location: filepath.Clean("specs/api.yaml")},
		{raw: "   ", wantErr: true},
		{raw: "http://", wantErr: true},
	}
	for _, tc := range cases {
		src, err := ParseSource(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSource(%q): expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSource(%q): %v", tc.raw, err)
			continue
		}
		if src.Kind() != tc.kind || src.Location() != tc.location {
			t.Errorf("ParseSource(%q) = %s %q, want %s %q", tc.raw, src.Kind(), src.Location(), tc.kind, tc.location)
		}
	}

	if _, err := SourceFromURL("ftp://example.com/api.yaml"); err == nil {
		t.Error("expected unsupported scheme error")
	}
}

func TestLoader_FileAndFS(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fromFile, err := NewLoader().Load(ctx, SourceFromFile("testdata/realestate.yaml"))
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if string(fromFile) != string(loadFixture(t)) {
		t.Fatal("file content mismatch")
	}

	files := fstest.MapFS{"api.yaml": {Data: []byte("openapi: 3.0.3")}}
	got, err := NewLoader(WithFileSystem(files)).Load(ctx, SourceFromFS("api.yaml"))
	if err != nil {
		t.Fatalf("load fs: %v", err)
	}
	if string(got) != "openapi: 3.0.3" {
		t.Fatalf("unexpected fs content %q", got)
	}

	if _, err := NewLoader().Load(ctx, SourceFromFS("api.yaml")); err == nil {
		t.Fatal("expected error without a filesystem")
	}
}

func TestLoader_URL(t *testing.T) {
	t.Parallel()

	fixture := loadFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(fixture)
	}))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	src, err := SourceFromURL(srv.URL + "/openapi.yaml")
	if err != nil {
		t.Fatalf("source: %v", err)
	}

	if _, err := NewLoader().Load(ctx, src); err == nil {
		t.Fatal("expected http support to be disabled by default")
	}

	raw, err := NewLoader(WithHTTPFallback(5*time.Second)).Load(ctx, src)
	if err != nil {
		t.Fatalf("load url: %v", err)
	}
	ids, err := Operations(ctx, raw)
	if err != nil || len(ids) != 2 {
		t.Fatalf("operations from fetched document = %v, %v", ids, err)
	}

	missing, _ := SourceFromURL(srv.URL + "/missing.yaml")
	if _, err := NewLoader(WithHTTPClient(resty.New())).Load(ctx, missing); err == nil {
		t.Fatal("expected error for 404")
	}
}
