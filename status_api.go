package main

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/williamyang98/GPS-Correlation/gps"
)

// StatusHandler serves the JSON status endpoints for the front end.
type StatusHandler struct {
	engine    *gps.Engine
	reader    *BlockReader
	startTime time.Time
}

// NewStatusHandler creates the handler for /api/status and /api/prns.
func NewStatusHandler(engine *gps.Engine, reader *BlockReader) *StatusHandler {
	return &StatusHandler{
		engine:    engine,
		reader:    reader,
		startTime: time.Now(),
	}
}

// PRNStatus summarises one correlator for /api/prns
type PRNStatus struct {
	PRN          int     `json:"prn"`
	BestOffsetHz float64 `json:"best_offset_hz"`
	ModeOffsetHz float64 `json:"mode_offset_hz"`
	PeakValue    float64 `json:"peak_value"`
	PeakIndex    int     `json:"peak_index"`
}

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// HandleStatus reports engine counters alongside host load.
func (sh *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"uptime_seconds":   int64(time.Since(sh.startTime).Seconds()),
		"total_blocks":     sh.engine.TotalBlocks(),
		"block_size":       sh.engine.BlockSize(),
		"sample_rate":      sh.engine.SampleRate(),
		"total_prns":       sh.engine.TotalPRNs(),
		"always_correlate": sh.engine.AlwaysCorrelate(),
		"gain":             sh.reader.Gain(),
		"goroutines":       runtime.NumGoroutine(),
	}

	// Host load is best effort; missing values are omitted.
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		status["cpu_percent"] = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		status["memory_used_percent"] = vm.UsedPercent
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Printf("Failed to encode status response: %v", err)
	}
}

// HandlePRNs reports the acquisition evidence for every PRN.
func (sh *StatusHandler) HandlePRNs(w http.ResponseWriter, r *http.Request) {
	prns := make([]PRNStatus, 0, sh.engine.TotalPRNs())
	for prnIndex := 0; prnIndex < sh.engine.TotalPRNs(); prnIndex++ {
		correlator := sh.engine.Correlator(prnIndex)
		snapshot := correlator.SnapshotBin(-1)
		offsets := correlator.FrequencyOffsets()
		prns = append(prns, PRNStatus{
			PRN:          prnIndex + 1,
			BestOffsetHz: offsets[snapshot.BestIndex],
			ModeOffsetHz: offsets[snapshot.ModeIndex],
			PeakValue:    snapshot.PeakValue,
			PeakIndex:    snapshot.PeakIndex,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(prns); err != nil {
		log.Printf("Failed to encode prn response: %v", err)
	}
}
