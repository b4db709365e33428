package http

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ochronus/gonekoweb/internal/app"
	"github.com/ochronus/gonekoweb/internal/config"
	"github.com/ochronus/gonekoweb/internal/services/nekoweb"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	generalLimit   = 250
	bigUploadLimit = 100
	zipLimit       = 10
	limitWindow    = time.Hour
)

// Handler implements the mock Nekoweb API endpoints on top of an afero
// filesystem rooted at "/".
type Handler struct {
	container *app.Container
	config    *config.MockConfig
	logger    *logrus.Logger
	fs        afero.Fs

	mu       sync.Mutex
	sessions map[string]*bytes.Buffer
	site     nekoweb.Site
	buckets  map[string]*bucket
}

type bucket struct {
	limit int
	used  int
	reset time.Time
}

// NewHandler creates a new mock API handler.
func NewHandler(container *app.Container, fs afero.Fs) *Handler {
	cfg := &container.Config.Mock
	now := time.Now().UTC().Truncate(time.Millisecond)

	return &Handler{
		container: container,
		config:    cfg,
		logger:    container.Logger,
		fs:        fs,
		sessions:  make(map[string]*bytes.Buffer),
		site: nekoweb.Site{
			Domain:    cfg.Username + ".nekoweb.org",
			CreatedAt: now,
			UpdatedAt: now,
		},
		buckets: map[string]*bucket{
			"general":     {limit: generalLimit},
			"big_uploads": {limit: bigUploadLimit},
			"zip":         {limit: zipLimit},
		},
	}
}

// RequireKey rejects requests whose Authorization header is not the mock key.
func (h *Handler) RequireKey(c *gin.Context) {
	if c.GetHeader("Authorization") != h.config.APIKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		return
	}
	c.Next()
}

// cleanPath maps a client path onto the mock root. It never escapes "/".
func cleanPath(p string) string {
	return path.Clean("/" + p)
}

// touch records a site update and consumes one unit of the named bucket.
func (h *Handler) touch(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	b := h.buckets[name]
	if !b.reset.IsZero() && now.After(b.reset) {
		b.used = 0
		b.reset = time.Time{}
	}
	if b.used >= b.limit {
		return false
	}
	if b.reset.IsZero() {
		b.reset = now.Add(limitWindow)
	}
	b.used++

	h.site.Updates++
	h.site.UpdatedAt = now.UTC().Truncate(time.Millisecond)
	return true
}

func (h *Handler) limited(c *gin.Context, name string) bool {
	if h.touch(name) {
		return false
	}
	c.String(http.StatusTooManyRequests, "Rate limit exceeded")
	return true
}

// SiteInfo handles GET /site/info and /site/info/:username.
func (h *Handler) SiteInfo(c *gin.Context) {
	username := c.Param("username")
	if username != "" && username != h.config.Username && username != h.site.Domain {
		c.String(http.StatusNotFound, "Site not found")
		return
	}

	h.mu.Lock()
	site := h.site
	h.mu.Unlock()

	c.JSON(http.StatusOK, site)
}

// Limits handles GET /files/limits.
func (h *Handler) Limits(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := gin.H{}
	for name, b := range h.buckets {
		reset := int64(-1)
		if !b.reset.IsZero() {
			reset = b.reset.UnixMilli()
		}
		out[name] = nekoweb.Limit{Limit: b.limit, Remaining: b.limit - b.used, Reset: reset}
	}
	c.JSON(http.StatusOK, out)
}

// Create handles POST /files/create.
func (h *Handler) Create(c *gin.Context) {
	p := cleanPath(c.PostForm("pathname"))
	if p == "/" {
		c.String(http.StatusBadRequest, "Invalid pathname")
		return
	}
	if exists, _ := afero.Exists(h.fs, p); exists {
		c.String(http.StatusBadRequest, "File already exists")
		return
	}
	if h.limited(c, "general") {
		return
	}

	var err error
	if c.PostForm("isFolder") == "true" {
		err = h.fs.MkdirAll(p, 0755)
	} else {
		err = h.writeFile(p, nil)
	}
	if err != nil {
		h.logger.Errorf("create %s: %v", p, err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	c.String(http.StatusOK, "File created")
}

func (h *Handler) writeFile(p string, data []byte) error {
	if err := h.fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return err
	}
	return afero.WriteFile(h.fs, p, data, 0644)
}

// Upload handles POST /files/upload.
func (h *Handler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	dir := cleanPath(c.PostForm("pathname"))
	files := form.File["files"]
	if len(files) == 0 {
		c.String(http.StatusBadRequest, "No files")
		return
	}
	if h.limited(c, "general") {
		return
	}

	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		if err := h.writeFile(path.Join(dir, path.Base(fh.Filename)), data); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
	}

	c.String(http.StatusOK, "File uploaded")
}

// ReadFolder handles GET /files/readfolder.
func (h *Handler) ReadFolder(c *gin.Context) {
	p := cleanPath(c.Query("pathname"))

	infos, err := afero.ReadDir(h.fs, p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.String(http.StatusNotFound, "Folder not found")
			return
		}
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	entries := make([]nekoweb.File, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, nekoweb.File{Name: info.Name(), Dir: info.IsDir()})
	}
	c.JSON(http.StatusOK, entries)
}

// Rename handles POST /files/rename.
func (h *Handler) Rename(c *gin.Context) {
	from := cleanPath(c.PostForm("pathname"))
	to := cleanPath(c.PostForm("newpathname"))

	if exists, _ := afero.Exists(h.fs, from); !exists {
		c.String(http.StatusNotFound, "File not found")
		return
	}
	if h.limited(c, "general") {
		return
	}
	if err := h.fs.MkdirAll(path.Dir(to), 0755); err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.fs.Rename(from, to); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	c.String(http.StatusOK, "File renamed")
}

// Edit handles POST /files/edit.
func (h *Handler) Edit(c *gin.Context) {
	p := cleanPath(c.PostForm("pathname"))

	isDir, err := afero.IsDir(h.fs, p)
	if err != nil {
		c.String(http.StatusNotFound, "File not found")
		return
	}
	if isDir {
		c.String(http.StatusBadRequest, "Cannot edit a folder")
		return
	}
	if h.limited(c, "general") {
		return
	}

	if err := afero.WriteFile(h.fs, p, []byte(c.PostForm("content")), 0644); err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.String(http.StatusOK, "File edited")
}

// Delete handles POST /files/delete.
func (h *Handler) Delete(c *gin.Context) {
	p := cleanPath(c.PostForm("pathname"))
	if p == "/" {
		c.String(http.StatusBadRequest, "Cannot delete root")
		return
	}
	if exists, _ := afero.Exists(h.fs, p); !exists {
		c.String(http.StatusNotFound, "File not found")
		return
	}
	if h.limited(c, "general") {
		return
	}
	if err := h.fs.RemoveAll(p); err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.String(http.StatusOK, "File deleted")
}

// BigCreate handles GET /files/big/create.
func (h *Handler) BigCreate(c *gin.Context) {
	if h.limited(c, "big_uploads") {
		return
	}

	id := uuid.New().String()
	h.mu.Lock()
	h.sessions[id] = &bytes.Buffer{}
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"id": id})
}

// BigAppend handles POST /files/big/append. The chunk may arrive as a file
// part or as a plain form value.
func (h *Handler) BigAppend(c *gin.Context) {
	id := c.PostForm("id")

	var chunk []byte
	if fh, err := c.FormFile("file"); err == nil {
		src, err := fh.Open()
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		chunk, err = io.ReadAll(src)
		src.Close()
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
	} else if v, ok := c.GetPostForm("file"); ok {
		chunk = []byte(v)
	} else {
		c.String(http.StatusBadRequest, "No file")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	buf, ok := h.sessions[id]
	if !ok {
		c.String(http.StatusNotFound, "Upload not found")
		return
	}
	buf.Write(chunk)

	c.String(http.StatusOK, "Chunk appended")
}

// takeSession removes and returns the assembled bytes of a session.
func (h *Handler) takeSession(id string) ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	buf, ok := h.sessions[id]
	if !ok {
		return nil, false
	}
	delete(h.sessions, id)
	return buf.Bytes(), true
}

// BigMove handles POST /files/big/move.
func (h *Handler) BigMove(c *gin.Context) {
	data, ok := h.takeSession(c.PostForm("id"))
	if !ok {
		c.String(http.StatusNotFound, "Upload not found")
		return
	}

	p := cleanPath(c.PostForm("pathname"))
	if err := h.writeFile(p, data); err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	h.touch("general")

	c.String(http.StatusOK, "File moved")
}

// Import handles POST /files/import/:id by extracting the session as a zip
// archive into the root.
func (h *Handler) Import(c *gin.Context) {
	data, ok := h.takeSession(c.Param("id"))
	if !ok {
		c.String(http.StatusNotFound, "Upload not found")
		return
	}
	if h.limited(c, "zip") {
		return
	}

	// Traversing names are remapped by cleanPath below.
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		c.String(http.StatusBadRequest, "Invalid zip file")
		return
	}

	for _, zf := range zr.File {
		p := cleanPath(zf.Name)
		if strings.HasSuffix(zf.Name, "/") {
			if err := h.fs.MkdirAll(p, 0755); err != nil {
				c.String(http.StatusInternalServerError, err.Error())
				return
			}
			continue
		}

		rc, err := zf.Open()
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		if err := h.writeFile(p, content); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
	}

	h.logger.Infof("imported %d entries from upload %s", len(zr.File), c.Param("id"))
	c.String(http.StatusOK, "Imported")
}
