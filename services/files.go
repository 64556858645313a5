package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/dhowden/tag"

	"songfetch/types"
)

// generatedName matches stems produced by OutputFilename from known metadata
var generatedName = regexp.MustCompile(`^([a-z0-9]+)-([a-z0-9]+)$`)

// FileService lists and describes files in the download location
type FileService interface {
	ScanFiles(rootPath string) ([]types.AudioFile, error)
	ExtractMetadata(filePath string) *types.AudioMetadata
	ValidateFilePath(path string) error
	GetContentType(filePath string) string
}

// fileService implements the FileService interface
type fileService struct{}

// NewFileService creates a new file service
func NewFileService() FileService {
	return &fileService{}
}

// formatFromExt maps a file extension to a known output format
func formatFromExt(ext string) (types.Format, bool) {
	switch strings.ToLower(ext) {
	case types.FormatMP3.Extension():
		return types.FormatMP3, true
	case types.FormatMP4.Extension():
		return types.FormatMP4, true
	case types.FormatWAV.Extension():
		return types.FormatWAV, true
	default:
		return "", false
	}
}

// ScanFiles walks rootPath for downloaded files, newest name first.
// A missing root is an empty library, not an error.
func (fs *fileService) ScanFiles(rootPath string) ([]types.AudioFile, error) {
	files := []types.AudioFile{}

	if _, err := os.Stat(rootPath); os.IsNotExist(err) {
		return files, nil
	}

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("[files] error accessing %s: %v", path, err)
			return nil
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		format, ok := formatFromExt(filepath.Ext(path))
		if !ok {
			return nil
		}

		relativePath, err := filepath.Rel(rootPath, path)
		if err != nil {
			relativePath = info.Name()
		}

		files = append(files, types.AudioFile{
			Filename: info.Name(),
			Path:     filepath.ToSlash(relativePath),
			Size:     info.Size(),
			Format:   format,
			Metadata: fs.ExtractMetadata(path),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// GetContentType returns the MIME type for a downloaded file
func (fs *fileService) GetContentType(filePath string) string {
	format, _ := formatFromExt(filepath.Ext(filePath))
	switch format {
	case types.FormatMP3:
		return "audio/mpeg"
	case types.FormatMP4:
		return "video/mp4"
	case types.FormatWAV:
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}

// ExtractMetadata reads embedded tags, filling gaps from the file name
func (fs *fileService) ExtractMetadata(filePath string) *types.AudioMetadata {
	fallback := metadataFromName(filePath)

	file, err := os.Open(filePath)
	if err != nil {
		log.Printf("[files] could not open %s: %v", filePath, err)
		return fallback
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		// Freshly downloaded streams usually carry no tags
		return fallback
	}

	metadata := &types.AudioMetadata{
		Title:  meta.Title(),
		Artist: meta.Artist(),
		Album:  meta.Album(),
	}
	if metadata.Title == "" {
		metadata.Title = fallback.Title
	}
	if metadata.Artist == "" {
		metadata.Artist = fallback.Artist
	}
	return metadata
}

// metadataFromName splits an "<artist>-<title>.<ext>" name. Names without a
// dash are bare ids and only give a title.
func metadataFromName(filePath string) *types.AudioMetadata {
	stem := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	if m := generatedName.FindStringSubmatch(stem); m != nil {
		return &types.AudioMetadata{Artist: m[1], Title: m[2]}
	}
	return &types.AudioMetadata{Title: stem}
}

// ValidateFilePath checks for path traversal attempts and other security issues
func (fs *fileService) ValidateFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty path not allowed")
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("path traversal not allowed")
	}
	if strings.HasPrefix(path, "/") || filepath.IsAbs(path) {
		return fmt.Errorf("absolute paths not allowed")
	}
	return nil
}
