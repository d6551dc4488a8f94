package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/mcpricer/internal/database"
	"github.com/aristath/mcpricer/internal/reliability"
	"github.com/aristath/mcpricer/internal/scheduler"
)

// JobRunner lists registered jobs and triggers them by name
type JobRunner interface {
	Status() []scheduler.JobStatus
	Trigger(name string) error
}

// SystemHandlers handles system-wide monitoring and operations endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	databases   map[string]*database.DB
	jobs        JobRunner
	backups     *reliability.BackupService
}

// NewSystemHandlers creates a new system handlers instance. jobs and backups may be nil.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	databases map[string]*database.DB,
	jobs JobRunner,
	backups *reliability.BackupService,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("service", "system").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		databases:   databases,
		jobs:        jobs,
		backups:     backups,
	}
}

// RegisterRoutes registers the system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleSystemStatus)
		r.Get("/databases", h.HandleDatabaseStats)
		r.Get("/jobs", h.HandleListJobs)
		r.Post("/jobs/{name}", h.HandleTriggerJob)
		r.Get("/backups", h.HandleListBackups)
	})
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	CPUPercent    float64 `json:"cpu_percent"`
	RAMPercent    float64 `json:"ram_percent"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	DataDirMB     float64 `json:"data_dir_mb"`
	Databases     int     `json:"databases"`
	Jobs          int     `json:"jobs"`
	Backups       bool    `json:"backups_enabled"`
	LastChecked   string  `json:"last_checked"`
}

// DatabaseStatus is one entry of GET /api/system/databases
type DatabaseStatus struct {
	Name    string          `json:"name"`
	Path    string          `json:"path"`
	Healthy bool            `json:"healthy"`
	Error   string          `json:"error,omitempty"`
	Stats   *database.Stats `json:"stats,omitempty"`
}

// HandleSystemStatus returns process and host level status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()

	h.writeJSON(w, http.StatusOK, SystemStatusResponse{
		Status:        "healthy",
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		DataDirMB:     h.getDirSize(h.dataDir),
		Databases:     len(h.databases),
		Jobs:          len(h.jobStatus()),
		Backups:       h.backups != nil,
		LastChecked:   time.Now().Format(time.RFC3339),
	})
}

// HandleDatabaseStats returns health and size statistics for every database
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.databases))
	for name := range h.databases {
		names = append(names, name)
	}
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	statuses := make([]DatabaseStatus, 0, len(names))
	for _, name := range names {
		db := h.databases[name]
		status := DatabaseStatus{Name: name, Path: db.Path(), Healthy: true}

		if err := db.HealthCheck(ctx); err != nil {
			status.Healthy = false
			status.Error = err.Error()
		} else if stats, err := db.GetStats(); err != nil {
			h.log.Warn().Err(err).Str("database", name).Msg("Failed to get database stats")
		} else {
			status.Stats = stats
		}

		statuses = append(statuses, status)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"databases":    statuses,
		"last_checked": time.Now().Format(time.RFC3339),
	})
}

func (h *SystemHandlers) jobStatus() []scheduler.JobStatus {
	if h.jobs == nil {
		return []scheduler.JobStatus{}
	}
	return h.jobs.Status()
}

// HandleListJobs returns every registered job with its schedule and last run
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": h.jobStatus()})
}

// HandleTriggerJob runs a job in the background
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	err := scheduler.ErrJobNotFound
	if h.jobs != nil {
		err = h.jobs.Trigger(name)
	}
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{
			"status":  "error",
			"message": "Job not registered: " + name,
		})
		return
	case errors.Is(err, scheduler.ErrJobRunning):
		h.writeJSON(w, http.StatusConflict, map[string]string{
			"status":  "error",
			"message": "Job " + name + " is already running",
		})
		return
	case err != nil:
		h.log.Error().Err(err).Str("job", name).Msg("Failed to trigger job")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "success",
		"message": "Job " + name + " triggered",
	})
}

// HandleListBackups lists the archives in the backup bucket
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"enabled": false,
			"backups": []reliability.BackupInfo{},
		})
		return
	}

	backups, err := h.backups.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"enabled": true,
		"backups": backups,
	})
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats returns CPU and RAM usage percentages.
// CPU is sampled over 100ms to keep the endpoint responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
