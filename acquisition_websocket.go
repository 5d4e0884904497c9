package main

import (
	"encoding/binary"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"

	"github.com/williamyang98/GPS-Correlation/gps"
)

// triggerBlocks is how many blocks a viewed PRN stays correlated for.
// Refreshed on every streamed frame, so a PRN stops being correlated
// shortly after the last client stops watching it.
const triggerBlocks = 100

// AcquisitionWebSocketHandler streams per-PRN acquisition snapshots to
// browser front-ends and accepts control messages (PRN selection, bin
// selection, runtime gain).
type AcquisitionWebSocketHandler struct {
	engine   *gps.Engine
	reader   *BlockReader
	metrics  *PrometheusMetrics
	interval time.Duration
	encoder  *zstd.Encoder
	upgrader websocket.Upgrader
}

// AcquisitionClientMessage represents a message from the client
type AcquisitionClientMessage struct {
	Type string   `json:"type"`           // "select" or "gain"
	PRN  int      `json:"prn,omitempty"`  // 1-based PRN id
	Mode string   `json:"mode,omitempty"` // "best", "mode" or "manual"
	Bin  int      `json:"bin,omitempty"`  // Doppler bin for manual mode
	Gain *float64 `json:"gain,omitempty"` // New dequantization gain
}

// AcquisitionServerMessage represents a snapshot header to the client.
// The magnitude vector follows as a separate binary frame.
type AcquisitionServerMessage struct {
	Type        string    `json:"type"`
	SessionID   string    `json:"sessionId,omitempty"`
	PRN         int       `json:"prn,omitempty"`
	BestBin     int       `json:"bestBin"`
	ModeBin     int       `json:"modeBin"`
	Bin         int       `json:"bin"`
	FreqOffsets []float64 `json:"freqOffsets,omitempty"`
	OffsetHz    float64   `json:"offsetHz"`
	PeakIndex   int       `json:"peakIndex"`
	PeakValue   float64   `json:"peakValue"`
	TotalBlocks int64     `json:"totalBlocks"`
	Gain        float64   `json:"gain"`
	Error       string    `json:"error,omitempty"`
}

// Binary magnitude frame, zstd-compressed as a whole:
//
//	Offset | Size | Type    | Description
//	-------|------|---------|----------------------------------
//	0      | 2    | uint16  | Magic bytes: 0x4743 ("GC")
//	2      | 1    | uint8   | Version: 1
//	3      | 1    | uint8   | PRN id (1-based)
//	4      | 1    | uint8   | Doppler bin index
//	5      | 1    | uint8   | Reserved
//	6      | 4    | uint32  | Sample count N
//	10     | 4N   | float32 | Correlation magnitudes (little-endian)
const (
	magnitudeFrameMagic   = 0x4743
	magnitudeFrameVersion = 1
	magnitudeFrameHeader  = 10
)

// NewAcquisitionWebSocketHandler creates the handler for /ws/acquisition.
func NewAcquisitionWebSocketHandler(engine *gps.Engine, reader *BlockReader, metrics *PrometheusMetrics, streamInterval time.Duration) *AcquisitionWebSocketHandler {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		// Only reachable with invalid encoder options.
		log.Fatalf("Failed to create zstd encoder: %v", err)
	}
	return &AcquisitionWebSocketHandler{
		engine:   engine,
		reader:   reader,
		metrics:  metrics,
		interval: streamInterval,
		encoder:  encoder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 65536,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for now
			},
		},
	}
}

// clientView is the mutable per-connection display selection, owned by
// the read loop and copied to the write loop over a channel.
type clientView struct {
	prnIndex int    // 0-based
	mode     string // "best", "mode", "manual"
	bin      int
}

// HandleWebSocket handles acquisition WebSocket connections
func (h *AcquisitionWebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Acquisition WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.New().String()
	h.metrics.wsConnectionsTotal.Inc()
	h.metrics.wsActiveConnections.Inc()
	defer h.metrics.wsActiveConnections.Dec()
	log.Printf("Acquisition WebSocket connected: session=%s remote=%s", sessionID, r.RemoteAddr)

	views := make(chan clientView, 1)
	done := make(chan struct{})

	// Read loop: control messages.
	go func() {
		defer close(done)
		view := clientView{prnIndex: 0, mode: "mode"}
		for {
			var msg AcquisitionClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Type {
			case "select":
				if msg.PRN >= 1 && msg.PRN <= h.engine.TotalPRNs() {
					view.prnIndex = msg.PRN - 1
				}
				if msg.Mode == "best" || msg.Mode == "mode" || msg.Mode == "manual" {
					view.mode = msg.Mode
				}
				view.bin = msg.Bin
				select {
				case views <- view:
				default:
					// Drop stale selection; the latest one wins.
					select {
					case <-views:
					default:
					}
					views <- view
				}
			case "gain":
				if msg.Gain != nil && *msg.Gain > 0 && !math.IsInf(*msg.Gain, 0) {
					h.reader.SetGain(*msg.Gain)
				}
			}
		}
	}()

	// Write loop: stream snapshots at the configured interval.
	view := clientView{prnIndex: 0, mode: "mode"}
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	first := true
	for {
		select {
		case <-done:
			log.Printf("Acquisition WebSocket disconnected: session=%s", sessionID)
			return
		case v := <-views:
			view = v
		case <-ticker.C:
			// Keep the viewed PRN correlating, same as the original
			// front end did for the visible tab.
			h.engine.TriggerPRN(view.prnIndex, triggerBlocks)

			correlator := h.engine.Correlator(view.prnIndex)
			bin := -1
			switch view.mode {
			case "mode":
				bin = correlator.ModeFrequencyOffsetIndex()
			case "manual":
				bin = view.bin
			}
			snapshot := correlator.SnapshotBin(bin)

			state := AcquisitionServerMessage{
				Type:        "state",
				PRN:         view.prnIndex + 1,
				BestBin:     snapshot.BestIndex,
				ModeBin:     snapshot.ModeIndex,
				Bin:         snapshot.BinIndex,
				OffsetHz:    correlator.FrequencyOffsets()[snapshot.BinIndex],
				PeakIndex:   snapshot.PeakIndex,
				PeakValue:   snapshot.PeakValue,
				TotalBlocks: h.engine.TotalBlocks(),
				Gain:        h.reader.Gain(),
			}
			if first {
				state.SessionID = sessionID
				state.FreqOffsets = correlator.FrequencyOffsets()
				first = false
			}

			if err := conn.WriteJSON(state); err != nil {
				log.Printf("Acquisition WebSocket write failed: session=%s err=%v", sessionID, err)
				return
			}
			frame := h.encodeMagnitudeFrame(view.prnIndex+1, snapshot.BinIndex, snapshot.Magnitudes)
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				log.Printf("Acquisition WebSocket write failed: session=%s err=%v", sessionID, err)
				return
			}
			h.metrics.wsFramesSentTotal.Inc()
		}
	}
}

func (h *AcquisitionWebSocketHandler) encodeMagnitudeFrame(prnID, bin int, magnitudes []float64) []byte {
	packet := make([]byte, magnitudeFrameHeader+4*len(magnitudes))
	binary.LittleEndian.PutUint16(packet[0:2], magnitudeFrameMagic)
	packet[2] = magnitudeFrameVersion
	packet[3] = uint8(prnID)
	packet[4] = uint8(bin)
	binary.LittleEndian.PutUint32(packet[6:10], uint32(len(magnitudes)))
	for i, v := range magnitudes {
		binary.LittleEndian.PutUint32(packet[magnitudeFrameHeader+4*i:], math.Float32bits(float32(v)))
	}
	return h.encoder.EncodeAll(packet, nil)
}
