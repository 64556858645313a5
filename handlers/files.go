package handlers

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"songfetch/services"
	"songfetch/types"
)

// FileHandler serves files from the download location
type FileHandler struct {
	fileService services.FileService
	downloadDir func() string
}

// NewFileHandler creates a new file handler
func NewFileHandler(fs services.FileService, downloadDir func() string) *FileHandler {
	return &FileHandler{
		fileService: fs,
		downloadDir: downloadDir,
	}
}

// ListFiles returns every downloaded file
func (h *FileHandler) ListFiles(c *gin.Context) {
	files, err := h.fileService.ScanFiles(h.downloadDir())
	if err != nil {
		log.Printf("[files] scan failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to scan files",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"files": files,
		"count": len(files),
	})
}

// DownloadFile serves a saved file as an attachment. This is the target of
// every manifest entry's downloadUrl.
func (h *FileHandler) DownloadFile(c *gin.Context) {
	name := c.Param("filename")
	if strings.ContainsAny(name, `/\`) {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid filename"})
		return
	}
	h.serve(c, name, true)
}

// StreamFile streams a file with range support for seeking
func (h *FileHandler) StreamFile(c *gin.Context) {
	h.serve(c, strings.TrimPrefix(c.Param("filepath"), "/"), false)
}

func (h *FileHandler) serve(c *gin.Context, requestedPath string, attachment bool) {
	if err := h.fileService.ValidateFilePath(requestedPath); err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "path security violation",
			"details": err.Error(),
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(requestedPath))
	if ext != types.FormatMP3.Extension() && ext != types.FormatMP4.Extension() && ext != types.FormatWAV.Extension() {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "file extension not allowed",
			"details": "only .mp3, .mp4 and .wav files can be served",
		})
		return
	}

	root, err := filepath.Abs(h.downloadDir())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server configuration error"})
		return
	}
	fullPath, err := filepath.Abs(filepath.Join(root, filepath.FromSlash(requestedPath)))
	if err != nil || !strings.HasPrefix(fullPath, root+string(filepath.Separator)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "path traversal not allowed"})
		return
	}

	file, err := os.Open(fullPath)
	if os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "file not found",
			"path":  requestedPath,
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "file access error",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is not a file"})
		return
	}

	c.Header("Content-Type", h.fileService.GetContentType(requestedPath))
	c.Header("Cache-Control", "public, max-age=3600")
	if attachment {
		c.Header("Content-Disposition", `attachment; filename="`+info.Name()+`"`)
	}
	// ServeContent handles Range and If-Modified-Since
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), file)
}
