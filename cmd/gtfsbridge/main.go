// gtfsbridge polls a GTFS-realtime VehiclePositions feed and forwards
// vehicle telemetry into the fleet API, so externally tracked buses show
// up on the same live channel as driver-reported ones.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/joho/godotenv"
	"google.golang.org/protobuf/proto"
)

const maxSpeedKMH = 120.0

// LocationReport matches the API's location ingest payload.
type LocationReport struct {
	BusID     uint    `json:"bus_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	SpeedKMH  float64 `json:"speed_kmh"`
	Heading   float64 `json:"heading"`
}

type bridge struct {
	client    *http.Client
	feedURL   string
	apiURL    string
	apiToken  string
	busPrefix string
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feedURL := getEnv("BRIDGE_FEED_URL", "")
	if feedURL == "" {
		log.Fatalf("BRIDGE_FEED_URL is required")
	}
	apiURL := getEnv("BRIDGE_API_URL", "http://localhost:8080")
	apiToken := getEnv("BRIDGE_API_TOKEN", "")
	if apiToken == "" {
		log.Fatalf("BRIDGE_API_TOKEN is required")
	}
	busPrefix := getEnv("BRIDGE_BUS_PREFIX", "")
	intervalSec := getEnvInt("BRIDGE_POLL_INTERVAL_SEC", 30)
	timeoutSec := getEnvInt("BRIDGE_HTTP_TIMEOUT_SEC", 10)

	b := &bridge{
		client:    &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		feedURL:   feedURL,
		apiURL:    strings.TrimSuffix(apiURL, "/"),
		apiToken:  apiToken,
		busPrefix: busPrefix,
	}

	interval := time.Duration(intervalSec) * time.Second
	log.Printf("gtfs bridge running: feed=%s api=%s interval=%s", feedURL, apiURL, interval)

	b.runCycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.runCycle(ctx)
		case <-ctx.Done():
			log.Printf("gtfs bridge shutting down")
			return
		}
	}
}

func (b *bridge) runCycle(ctx context.Context) {
	feed, err := b.fetchFeed(ctx)
	if err != nil {
		log.Printf("feed fetch failed: %v", err)
		return
	}

	buses, err := b.fetchBusNumbers(ctx)
	if err != nil {
		log.Printf("bus list fetch failed: %v", err)
		return
	}

	posted := 0
	skipped := 0
	for _, entity := range feed.GetEntity() {
		vehicle := entity.GetVehicle()
		if vehicle == nil {
			continue
		}

		report, ok := reportFromVehicle(vehicle, b.busPrefix, buses)
		if !ok {
			skipped++
			continue
		}

		if err := b.postLocation(ctx, report); err != nil {
			log.Printf("post location failed for bus %d: %v", report.BusID, err)
			continue
		}
		posted++
	}

	log.Printf("bridge cycle completed: %d posted, %d skipped", posted, skipped)
}

// reportFromVehicle maps one GTFS vehicle position onto the API payload.
// Vehicles whose label does not resolve to a known bus number are skipped,
// as are positions without coordinates. GTFS speeds are m/s.
func reportFromVehicle(vehicle *gtfs.VehiclePosition, prefix string, buses map[string]uint) (LocationReport, bool) {
	label := vehicle.GetVehicle().GetLabel()
	if label == "" {
		label = vehicle.GetVehicle().GetId()
	}
	busNumber := busNumberForLabel(label, prefix)
	if busNumber == "" {
		return LocationReport{}, false
	}
	busID, ok := buses[busNumber]
	if !ok {
		return LocationReport{}, false
	}

	position := vehicle.GetPosition()
	if position == nil {
		return LocationReport{}, false
	}

	speed := float64(position.GetSpeed()) * 3.6
	if speed > maxSpeedKMH {
		speed = maxSpeedKMH
	}

	return LocationReport{
		BusID:     busID,
		Latitude:  float64(position.GetLatitude()),
		Longitude: float64(position.GetLongitude()),
		SpeedKMH:  speed,
		Heading:   float64(position.GetBearing()),
	}, true
}

// busNumberForLabel strips the configured agency prefix from a vehicle
// label. An empty prefix passes labels through unchanged.
func busNumberForLabel(label, prefix string) string {
	if label == "" {
		return ""
	}
	if prefix == "" {
		return label
	}
	trimmed, ok := strings.CutPrefix(label, prefix)
	if !ok {
		return ""
	}
	return trimmed
}

func (b *bridge) fetchFeed(ctx context.Context) (*gtfs.FeedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, fmt.Errorf("parsing protobuf: %w", err)
	}

	return feed, nil
}

// fetchBusNumbers pulls the fleet roster and maps bus number to id.
func (b *bridge) fetchBusNumbers(ctx context.Context) (map[string]uint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.apiURL+"/api/v1/buses", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+b.apiToken)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bus list returned status %d", resp.StatusCode)
	}

	var payload struct {
		Data []struct {
			ID        uint   `json:"id"`
			BusNumber string `json:"bus_number"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	buses := make(map[string]uint, len(payload.Data))
	for _, bus := range payload.Data {
		buses[bus.BusNumber] = bus.ID
	}
	return buses, nil
}

func (b *bridge) postLocation(ctx context.Context, report LocationReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.apiURL+"/api/v1/locations", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiToken)

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("api returned status %d", resp.StatusCode)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, value, fallback)
		return fallback
	}
	return n
}
