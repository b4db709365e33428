package nekoweb

import (
	"context"
	"io"
	"net/http"
	"testing"
)

func TestSplitUploadPath(t *testing.T) {
	tests := []struct {
		path     string
		wantDir  string
		wantName string
	}{
		{"sample.txt", "/", "sample.txt"},
		{"/sample.txt", "/", "sample.txt"},
		{"/a/b/c.txt", "/a/b", "c.txt"},
		{"a/b/c.txt", "/a/b", "c.txt"},
		{"a/../b.txt", "/a", "b.txt"},
		{"../../etc/passwd", "/etc", "passwd"},
		{"./x/./y.txt", "/x", "y.txt"},
		{"a//b/", "/a", "b"},
		{"", "/", "file.bin"},
		{"/", "/", "file.bin"},
		{"../..", "/", "file.bin"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			dir, name := splitUploadPath(tt.path)
			if dir != tt.wantDir {
				t.Errorf("expected dir '%s', got '%s'", tt.wantDir, dir)
			}
			if name != tt.wantName {
				t.Errorf("expected name '%s', got '%s'", tt.wantName, name)
			}
		})
	}
}

func TestCreateFileAndFolder(t *testing.T) {
	tests := []struct {
		name     string
		call     func(ctx context.Context, c *AuthClient) (*Response, error)
		isFolder string
	}{
		{
			name:     "file",
			call:     func(ctx context.Context, c *AuthClient) (*Response, error) { return c.CreateFile(ctx, "/test") },
			isFolder: "false",
		},
		{
			name:     "folder",
			call:     func(ctx context.Context, c *AuthClient) (*Response, error) { return c.CreateFolder(ctx, "/test") },
			isFolder: "true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, auth := newTestClients(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/files/create" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
					t.Errorf("unexpected content type: %s", ct)
				}
				if r.FormValue("pathname") != "/test" {
					t.Errorf("unexpected pathname: %s", r.FormValue("pathname"))
				}
				if r.FormValue("isFolder") != tt.isFolder {
					t.Errorf("expected isFolder %s, got %s", tt.isFolder, r.FormValue("isFolder"))
				}
				w.Write([]byte("File created"))
			})

			resp, err := tt.call(context.Background(), auth)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Text() != "File created" {
				t.Errorf("expected body 'File created', got '%s'", resp.Text())
			}
		})
	}
}

func TestUploadFile(t *testing.T) {
	_, auth := newTestClients(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/files/upload" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart: %v", err)
			return
		}
		if r.FormValue("pathname") != "/a/b" {
			t.Errorf("expected pathname '/a/b', got '%s'", r.FormValue("pathname"))
		}

		file, header, err := r.FormFile("files")
		if err != nil {
			t.Errorf("missing files part: %v", err)
			return
		}
		defer file.Close()

		if header.Filename != "c.txt" {
			t.Errorf("expected filename 'c.txt', got '%s'", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "application/octet-stream" {
			t.Errorf("unexpected part content type: %s", ct)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "hello" {
			t.Errorf("expected content 'hello', got '%s'", data)
		}
		w.Write([]byte("File uploaded"))
	})

	resp, err := auth.UploadFile(context.Background(), "/a/./b/../c.txt", []byte("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestList(t *testing.T) {
	_, auth := newTestClients(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/files/readfolder" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.URL.Query().Get("pathname") != "/" {
			t.Errorf("unexpected pathname query: %s", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "test-key" {
			t.Errorf("unexpected Authorization header: %s", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`[{"name":"a.txt","dir":false},{"name":"sub","dir":true}]`))
	})

	files, err := auth.List(context.Background(), "/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0] != (File{Name: "a.txt", Dir: false}) {
		t.Errorf("unexpected first entry: %+v", files[0])
	}
	if files[1] != (File{Name: "sub", Dir: true}) {
		t.Errorf("unexpected second entry: %+v", files[1])
	}
}

func TestListEscapesPathname(t *testing.T) {
	_, auth := newTestClients(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("pathname"); got != "/my folder/a&b" {
			t.Errorf("unexpected pathname: %s", got)
		}
		w.Write([]byte(`[]`))
	})

	files, err := auth.List(context.Background(), "/my folder/a&b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected 0 files, got %d", len(files))
	}
}

func TestRename(t *testing.T) {
	_, auth := newTestClients(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/files/rename" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.FormValue("pathname") != "/old.html" {
			t.Errorf("unexpected pathname: %s", r.FormValue("pathname"))
		}
		if r.FormValue("newpathname") != "/new.html" {
			t.Errorf("unexpected newpathname: %s", r.FormValue("newpathname"))
		}
	})

	if _, err := auth.Rename(context.Background(), "/old.html", "/new.html"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEdit(t *testing.T) {
	_, auth := newTestClients(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/files/edit" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart: %v", err)
			return
		}
		if r.FormValue("pathname") != "/index.html" {
			t.Errorf("unexpected pathname: %s", r.FormValue("pathname"))
		}
		if r.FormValue("content") != "<h1>hi</h1>" {
			t.Errorf("unexpected content: %s", r.FormValue("content"))
		}
	})

	if _, err := auth.Edit(context.Background(), "/index.html", []byte("<h1>hi</h1>")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete(t *testing.T) {
	_, auth := newTestClients(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/files/delete" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.FormValue("pathname") != "/gone.txt" {
			t.Errorf("unexpected pathname: %s", r.FormValue("pathname"))
		}
	})

	if _, err := auth.Delete(context.Background(), "/gone.txt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
