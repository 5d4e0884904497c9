package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/williamyang98/GPS-Correlation/gps"
)

// MQTTPublisher periodically publishes per-PRN acquisition summaries so
// remote consumers can watch satellite visibility without holding a
// WebSocket open.
type MQTTPublisher struct {
	client mqtt.Client
	config *MQTTConfig
	engine *gps.Engine
	stop   chan struct{}
}

// AcquisitionPayload is the per-PRN summary message
type AcquisitionPayload struct {
	Timestamp    int64   `json:"timestamp"`
	PRN          int     `json:"prn"`
	BestOffsetHz float64 `json:"best_offset_hz"`
	ModeOffsetHz float64 `json:"mode_offset_hz"`
	PeakValue    float64 `json:"peak_value"`
	PeakIndex    int     `json:"peak_index"`
	TotalBlocks  int64   `json:"total_blocks"`
}

// generateClientID creates a random client ID for the MQTT connection
func generateClientID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "gpscorr_" + hex.EncodeToString(bytes)
}

// NewMQTTPublisher creates and connects the publisher.
func NewMQTTPublisher(config *MQTTConfig, engine *gps.Engine) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(generateClientID())

	if config.Username != "" {
		opts.SetUsername(config.Username)
	}
	if config.Password != "" {
		opts.SetPassword(config.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(30 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout to %s", config.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect failed: %w", err)
	}
	log.Printf("MQTT publisher connected to %s", config.Broker)

	return &MQTTPublisher{
		client: client,
		config: config,
		engine: engine,
		stop:   make(chan struct{}),
	}, nil
}

// Start launches the periodic publish loop.
func (p *MQTTPublisher) Start() {
	go func() {
		ticker := time.NewTicker(time.Duration(p.config.IntervalSeconds) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				p.publishAll()
			}
		}
	}()
}

// Stop halts the publish loop and disconnects.
func (p *MQTTPublisher) Stop() {
	close(p.stop)
	p.client.Disconnect(250)
}

func (p *MQTTPublisher) publishAll() {
	now := time.Now().Unix()
	for prnIndex := 0; prnIndex < p.engine.TotalPRNs(); prnIndex++ {
		correlator := p.engine.Correlator(prnIndex)
		snapshot := correlator.SnapshotBin(-1)
		offsets := correlator.FrequencyOffsets()

		payload := AcquisitionPayload{
			Timestamp:    now,
			PRN:          prnIndex + 1,
			BestOffsetHz: offsets[snapshot.BestIndex],
			ModeOffsetHz: offsets[snapshot.ModeIndex],
			PeakValue:    snapshot.PeakValue,
			PeakIndex:    snapshot.PeakIndex,
			TotalBlocks:  p.engine.TotalBlocks(),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			log.Printf("MQTT payload marshal failed: %v", err)
			continue
		}

		topic := fmt.Sprintf("%s/prn/%d", p.config.TopicPrefix, prnIndex+1)
		token := p.client.Publish(topic, 0, false, data)
		go func(topic string) {
			token.Wait()
			if err := token.Error(); err != nil {
				log.Printf("MQTT publish to %s failed: %v", topic, err)
			}
		}(topic)
	}
}
