package fixture

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// UploadField is the multipart field carrying uploaded files.
const UploadField = "file"

const maxUploadBytes = 32 << 20

// storedFile.URL is relative to RoutePrefix.
type storedFile struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

func cleanName(name string) string {
	base := path.Base(path.Clean("/" + strings.ReplaceAll(name, "\\", "/")))
	if base == "/" || base == "." {
		return ""
	}
	return base
}

// receiveUpload stores the multipart file and writes a failure response when it cannot.
func (s *Server) receiveUpload(c *gin.Context, prefix string) (storedFile, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile(UploadField)
	if err != nil {
		fail(c, http.StatusOK, http.StatusBadRequest, fmt.Sprintf("missing form field %q", UploadField))
		return storedFile{}, false
	}
	name := cleanName(fh.Filename)
	if name == "" {
		name = "upload"
	}
	name = prefix + name

	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "cannot read upload")
		return storedFile{}, false
	}
	defer func() {
		if errClose := f.Close(); errClose != nil {
			log.Warnf("fixture: close upload: %v", errClose)
		}
	}()
	data, err := io.ReadAll(f)
	if err != nil {
		fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "cannot read upload")
		return storedFile{}, false
	}

	s.mu.Lock()
	dir := s.filesDir
	if dir == "" {
		s.uploads[name] = data
	}
	s.mu.Unlock()
	if dir != "" {
		if err = os.MkdirAll(dir, 0o755); err == nil {
			err = os.WriteFile(filepath.Join(dir, name), data, 0o644)
		}
		if err != nil {
			log.WithError(err).Error("fixture: store upload failed")
			fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "cannot store upload")
			return storedFile{}, false
		}
	}
	log.WithField("file", name).Debugf("fixture: stored upload (%d bytes)", len(data))
	return storedFile{URL: "/files/" + name, Name: name, Size: int64(len(data))}, true
}

func (s *Server) handleUpload(c *gin.Context) {
	stored, valid := s.receiveUpload(c, "")
	if !valid {
		return
	}
	ok(c, "uploaded", stored)
}

// handleFile serves an uploaded file, a file from the files directory, or generated content
// when no files directory is configured.
func (s *Server) handleFile(c *gin.Context) {
	name := cleanName(c.Param("name"))
	if name == "" {
		fail(c, http.StatusNotFound, http.StatusNotFound, "file not found")
		return
	}

	s.mu.RLock()
	dir := s.filesDir
	data, uploaded := s.uploads[name]
	s.mu.RUnlock()

	switch {
	case uploaded:
	case dir != "":
		var err error
		data, err = os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				fail(c, http.StatusNotFound, http.StatusNotFound, "file not found")
				return
			}
			fail(c, http.StatusInternalServerError, http.StatusInternalServerError, "cannot read file")
			return
		}
	default:
		data = []byte(fmt.Sprintf("generated content for %s\n", name))
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, contentType, data)
}
