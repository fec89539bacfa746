// Command simulator posts randomized sound readings to an ingestion server.
// Useful for demos and for exercising the live stream without real hardware.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soundsense/internal/domain"
	"soundsense/internal/platform/logger"
)

func main() {
	var (
		target   = flag.String("target", "http://localhost:8080/ingest", "ingest endpoint URL")
		interval = flag.Duration("interval", time.Second, "delay between readings")
		patient  = flag.String("patient", "patient-demo", "patient id to report for")
		device   = flag.String("device", "sim-mic-1", "device id to report as")
		base     = flag.Float64("base", 45, "baseline sound level in dB")
	)
	flag.Parse()

	log := logger.New("info")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 5 * time.Second}
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	log.Info("simulator started", "target", *target, "interval", *interval)
	for {
		select {
		case <-ctx.Done():
			log.Info("simulator stopped")
			return
		case <-ticker.C:
			reading := domain.Reading{
				PatientID: *patient,
				DeviceID:  *device,
				Code:      domain.SignalSound,
				Value:     nextLevel(*base),
				Unit:      "dB",
				Timestamp: time.Now().UTC(),
			}
			if err := post(ctx, client, *target, reading); err != nil {
				log.Warn("failed to send reading", "error", err)
			}
		}
	}
}

// nextLevel produces a plausible sound level: baseline noise with occasional
// loud spikes.
func nextLevel(base float64) float64 {
	level := base + rand.NormFloat64()*5
	if rand.Float64() < 0.05 {
		level += 20 + rand.Float64()*15
	}
	if level < 0 {
		level = 0
	}
	return level
}

func post(ctx context.Context, client *http.Client, target string, reading domain.Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}
