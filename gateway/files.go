package gateway

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/example/gemora/pkg/apperr"
	"github.com/example/gemora/pkg/storage"
	"github.com/gin-gonic/gin"
)

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

// formFiles reads every file posted under the given multipart fields.
// Non-multipart requests carry no files.
func (g *Gateway) formFiles(c *gin.Context, fields ...string) ([]storage.File, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperr.InvalidInput("Invalid multipart form")
	}

	var files []storage.File
	for _, field := range fields {
		for _, fh := range form.File[field] {
			f, err := g.readFile(fh)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
	}
	return files, nil
}

func (g *Gateway) readFile(fh *multipart.FileHeader) (storage.File, error) {
	if max := g.config.Storage.MaxBytes; max > 0 && fh.Size > max {
		return storage.File{}, apperr.InvalidInput("File too large")
	}
	src, err := fh.Open()
	if err != nil {
		return storage.File{}, apperr.Dependency("Failed to read upload", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return storage.File{}, apperr.Dependency("Failed to read upload", err)
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return storage.File{Name: fh.Filename, ContentType: contentType, Data: data}, nil
}

// upload stores a single file and returns its public URL.
func (g *Gateway) upload(c *gin.Context) {
	if !isMultipart(c) {
		g.respondError(c, apperr.InvalidInput("No file uploaded"))
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		g.respondError(c, apperr.InvalidInput("No file uploaded"))
		return
	}
	f, err := g.readFile(fh)
	if err != nil {
		g.respondError(c, err)
		return
	}

	folder := strings.Trim(g.config.Storage.Folder, "/") + "/uploads"
	url, err := g.services.Uploader.Upload(c.Request.Context(), folder, f)
	if err != nil {
		g.respondError(c, apperr.Dependency("Upload failed", err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
