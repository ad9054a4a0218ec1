package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"evodata/databases"
	"evodata/models"
)

var contentTypes = map[string]string{
	".png":  "image/png",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// DownloadExport serves one generated artifact from the exports directory.
// The filename is reduced to its base component so traversal never escapes
// the directory.
func DownloadExport(exportsDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("filename")
		if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
			c.JSON(http.StatusBadRequest, models.StandardResponse{
				Error:        "INVALID_FILENAME",
				ErrorMessage: "filename must not contain path components",
			})
			return
		}

		path := filepath.Join(exportsDir, name)
		if _, err := os.Stat(path); err != nil {
			c.JSON(http.StatusNotFound, models.StandardResponse{
				Error:        "FILE_NOT_FOUND",
				ErrorMessage: "no such export: " + name,
			})
			return
		}

		if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
			c.Header("Content-Type", ct)
		}
		c.File(path)
	}
}

// ListExports lists the downloadable artifacts, newest first.
func ListExports(exportsDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := os.ReadDir(exportsDir)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.StandardResponse{
				Error:        "EXPORTS_UNAVAILABLE",
				ErrorMessage: "exports directory is not readable",
			})
			return
		}

		files := make([]models.ExportEntry, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			files = append(files, models.ExportEntry{
				Name:       entry.Name(),
				SizeBytes:  info.Size(),
				ModifiedAt: info.ModTime().Format(time.RFC3339),
			})
		}
		sort.Slice(files, func(i, j int) bool { return files[i].ModifiedAt > files[j].ModifiedAt })

		c.JSON(http.StatusOK, models.StandardResponse{Data: files, Error: "NO_ERROR"})
	}
}

// Health reports database reachability and exports dir state.
func Health(exportsDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		health := map[string]string{"database": "up", "exports": "up"}

		if err := databases.Ping(c.Request.Context()); err != nil {
			health["database"] = "down"
			status = http.StatusServiceUnavailable
		}
		if _, err := os.Stat(exportsDir); err != nil {
			health["exports"] = "down"
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, models.StandardResponse{Data: health, Error: "NO_ERROR"})
	}
}
