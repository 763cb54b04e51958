// Package backup handles export, restore, and deletion of all tracker
// data.
package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dreslan/tapfi/internal/models"
	"github.com/dreslan/tapfi/internal/services/tracker"
	"github.com/dreslan/tapfi/internal/web"
)

const maxBackupSize = 50 << 20

var manager *tracker.Manager

// Initialize sets up the backup package with required dependencies
func Initialize(m *tracker.Manager) {
	manager = m
}

// RegisterRoutes registers all backup routes
func RegisterRoutes(r chi.Router) {
	r.Get("/api/backup/export", handleExport)
	r.Post("/api/backup/restore", handleRestore)
	r.Delete("/api/backup/all", handleDeleteAll)
}

func handleExport(w http.ResponseWriter, r *http.Request) {
	b, err := manager.ExportBackup()
	if err != nil {
		web.Error(w, err)
		return
	}

	filename := fmt.Sprintf("tapfi-backup-%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		log.Printf("Error writing backup: %v", err)
	}
}

func handleRestore(w http.ResponseWriter, r *http.Request) {
	body, err := readBackupBody(r)
	if err != nil {
		web.Error(w, err)
		return
	}

	var b models.Backup
	if err := json.Unmarshal(body, &b); err != nil {
		web.Error(w, &models.ValidationError{Field: "file", Message: "invalid data file format"})
		return
	}

	data, err := manager.ImportBackup(b)
	if err != nil {
		web.Error(w, err)
		return
	}

	log.Printf("Restore complete: %d accounts, %d history entries", len(data.Accounts), len(data.History))
	web.JSON(w, http.StatusOK, map[string]interface{}{
		"accounts": len(data.Accounts),
		"history":  len(data.History),
	})
}

// readBackupBody accepts the backup either as a multipart file upload or
// as a raw JSON body.
func readBackupBody(r *http.Request) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxBackupSize); err != nil {
			return nil, &models.ValidationError{Field: "file", Message: "upload too large"}
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, &models.ValidationError{Field: "file", Message: "backup file is required"}
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	return io.ReadAll(io.LimitReader(r.Body, maxBackupSize))
}

func handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := manager.ClearAll(); err != nil {
		web.Error(w, err)
		return
	}

	log.Println("All tracker data deleted")
	web.JSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
