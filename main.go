package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/williamyang98/GPS-Correlation/gps"
)

func usage() {
	fmt.Fprintf(os.Stderr,
		"gps_corr, computes GPS correlation evidence for every PRN code\n\n"+
			"\t[-i input filename (default: None)]\n"+
			"\t    If no file is provided then stdin is used\n"+
			"\t[-f sample rate (default: 2048000Hz)]\n"+
			"\t[-F IQ format (default: u8) (options: u8, s8)]\n"+
			"\t[-g extra gain (default: 1)]\n"+
			"\t[-A (Always run correlation on each PRN)]\n"+
			"\t[-listen address (enable the HTTP/WebSocket server)]\n"+
			"\t[-config path (default: config.yaml)]\n"+
			"\t[-h (show usage)]\n",
	)
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := flag.NewFlagSet("gps_corr", flag.ContinueOnError)
	flags.Usage = usage
	inputFile := flags.String("i", "", "Input filename (stdin if empty)")
	sampleRate := flags.Int("f", 0, "Sample rate in Hz (overrides config)")
	format := flags.String("F", "", "IQ format: u8 or s8 (overrides config)")
	gain := flags.Float64("g", 0, "Extra gain (overrides config)")
	always := flags.Bool("A", false, "Always run correlation on each PRN")
	listen := flags.String("listen", "", "Enable the HTTP/WebSocket server on this address (overrides config)")
	configFile := flags.String("config", "config.yaml", "Path to configuration file")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	config, err := LoadConfig(*configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			config = DefaultConfig()
		} else {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			return 1
		}
	}

	// CLI flags override the config file.
	if *sampleRate != 0 {
		config.Acquisition.SampleRate = *sampleRate
	}
	if *format != "" {
		config.Acquisition.Format = *format
	}
	if *gain != 0 {
		config.Acquisition.Gain = *gain
	}
	if *always {
		config.Acquisition.AlwaysCorrelate = true
	}
	if *listen != "" {
		config.Server.Enabled = true
		config.Server.Listen = *listen
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	var input io.Reader = os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open file for reading: %v\n", err)
			return 1
		}
		defer f.Close()
		input = f
	}

	engine, err := gps.NewEngine(config.Acquisition.SampleRate, config.Acquisition.CodeRate, config.Acquisition.MaxDoppler)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create acquisition engine: %v\n", err)
		return 1
	}
	engine.SetAlwaysCorrelate(config.Acquisition.AlwaysCorrelate)

	reader, err := NewBlockReader(input, config.Acquisition.Format, engine.BlockSize(), config.Acquisition.Gain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create block reader: %v\n", err)
		return 1
	}

	metrics := NewPrometheusMetrics()

	log.Printf("GPS acquisition: Fs=%d block_size=%d format=%s prns=%d always_correlate=%v",
		config.Acquisition.SampleRate, engine.BlockSize(), config.Acquisition.Format,
		engine.TotalPRNs(), config.Acquisition.AlwaysCorrelate)

	// Producer: read blocks until the stream ends.
	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		block := make([]complex128, engine.BlockSize())
		for {
			n, err := reader.ReadBlock(block)
			if err != nil {
				if errors.Is(err, io.EOF) {
					log.Printf("End of input stream after %d blocks", engine.TotalBlocks())
				} else {
					log.Printf("Failed to read in data %d/%d", n, reader.BlockBytes())
					metrics.streamShortRead.Inc()
				}
				return
			}

			start := time.Now()
			dispatched := engine.Process(block)
			metrics.blockDuration.Observe(time.Since(start).Seconds())
			metrics.blocksProcessedTotal.Inc()
			metrics.correlationsTotal.Add(float64(dispatched))
		}
	}()

	if !config.Server.Enabled {
		// Headless mode, same shape as the original CLI: run the stream
		// to completion and exit cleanly.
		<-streamDone
		engine.Close()
		return 0
	}

	// Per-PRN gauges are refreshed off the hot path.
	gaugeStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gaugeStop:
				return
			case <-ticker.C:
				for prnIndex := 0; prnIndex < engine.TotalPRNs(); prnIndex++ {
					correlator := engine.Correlator(prnIndex)
					snapshot := correlator.SnapshotBin(-1)
					offsets := correlator.FrequencyOffsets()
					metrics.UpdatePRN(prnIndex, snapshot.PeakValue,
						offsets[snapshot.BestIndex], offsets[snapshot.ModeIndex])
				}
			}
		}
	}()
	defer close(gaugeStop)

	var mqttPublisher *MQTTPublisher
	if config.MQTT.Enabled {
		mqttPublisher, err = NewMQTTPublisher(&config.MQTT, engine)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start MQTT publisher: %v\n", err)
			return 1
		}
		mqttPublisher.Start()
		defer mqttPublisher.Stop()
	}

	statusHandler := NewStatusHandler(engine, reader)
	wsHandler := NewAcquisitionWebSocketHandler(engine, reader, metrics,
		time.Duration(config.Server.StreamInterval)*time.Millisecond)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/api/status", statusHandler.HandleStatus)
	mux.HandleFunc("/api/prns", statusHandler.HandlePRNs)
	mux.HandleFunc("/ws/acquisition", wsHandler.HandleWebSocket)
	if config.Prometheus.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	server := &http.Server{
		Addr:    config.Server.Listen,
		Handler: mux,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", config.Server.Listen)
		serverErr <- server.ListenAndServe()
	}()

	// The server outlives the stream so consumers can keep inspecting
	// the final acquisition state; shut down on signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down", sig)
	case err := <-serverErr:
		fmt.Fprintf(os.Stderr, "HTTP server failed: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown: %v", err)
	}

	// Only tear the pool down once the producer has stopped; if the
	// stream is still mid-read the process exit reaps it.
	select {
	case <-streamDone:
		engine.Close()
	default:
	}
	return 0
}
