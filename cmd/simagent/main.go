// Simulated location agent for local development and end-to-end
// testing. It registers with the supervisor, emits heartbeats, and
// answers /execute with a canned location-flavored response built from
// a synthetic sensor reading.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/homefleet/supervisor/domain"
)

const heartbeatInterval = 30 * time.Second

type sensorReading struct {
	Timestamp       float64 `json:"timestamp"`
	Temperature     float64 `json:"temperature"`
	Humidity        float64 `json:"humidity"`
	Pressure        float64 `json:"pressure"`
	AirQualityIndex float64 `json:"air_quality_index"`
}

type agent struct {
	id         string
	location   string
	port       int
	supervisor string

	mu   sync.Mutex
	load float64
}

func main() {
	id := flag.String("id", "office-agent", "Agent ID")
	location := flag.String("location", "office", "Agent location tag")
	port := flag.Int("port", 8081, "Listen port")
	supervisorURL := flag.String("supervisor", "http://localhost:8080", "Supervisor base URL")
	flag.Parse()

	a := &agent{
		id:         *id,
		location:   *location,
		port:       *port,
		supervisor: *supervisorURL,
	}

	if err := a.register(); err != nil {
		log.Fatalf("Failed to register with supervisor: %v", err)
	}
	log.Printf("Registered as %s at %s", a.id, a.location)

	stop := make(chan struct{})
	go a.heartbeatLoop(stop)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.POST("/execute", a.execute)
	e.GET("/health", a.health)

	go func() {
		addr := fmt.Sprintf(":%d", a.port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start agent server: %v", err)
		}
	}()
	log.Printf("%s agent listening on port %d", a.location, a.port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	close(stop)
	log.Printf("Shutting down %s", a.id)
}

func (a *agent) register() error {
	reg := domain.Registration{
		ID:           a.id,
		Location:     a.location,
		Endpoint:     fmt.Sprintf("http://localhost:%d", a.port),
		Capabilities: []string{"chat", "sensor_context"},
	}
	body, _ := json.Marshal(reg)

	resp, err := http.Post(a.supervisor+"/register", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("supervisor returned status %d", resp.StatusCode)
	}
	return nil
}

func (a *agent) heartbeatLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.mu.Lock()
			hb := domain.Heartbeat{
				AgentID:   a.id,
				Status:    domain.AgentStatusActive,
				Load:      a.load,
				Timestamp: float64(time.Now().Unix()),
			}
			a.mu.Unlock()

			body, _ := json.Marshal(hb)
			resp, err := http.Post(a.supervisor+"/heartbeat", "application/json", bytes.NewReader(body))
			if err != nil {
				log.Printf("WARN: heartbeat failed: %v", err)
				continue
			}
			resp.Body.Close()
		}
	}
}

func (a *agent) execute(c echo.Context) error {
	var req struct {
		TaskID   string `json:"task_id"`
		Query    string `json:"query"`
		Location string `json:"location,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	a.mu.Lock()
	a.load = min(a.load+0.1, 1.0)
	a.mu.Unlock()

	reading := a.sample()
	answer := fmt.Sprintf("[%s] %s: currently %.1f°C, %.0f%% humidity, AQI %.0f",
		a.location, req.Query, reading.Temperature, reading.Humidity, reading.AirQualityIndex)

	result, _ := json.Marshal(map[string]interface{}{
		"response":       answer,
		"sensor_context": reading,
		"location":       a.location,
	})

	a.mu.Lock()
	a.load = max(a.load-0.05, 0.0)
	a.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]interface{}{
		"task_id":  req.TaskID,
		"agent":    a.id,
		"location": a.location,
		"result":   json.RawMessage(result),
	})
}

func (a *agent) health(c echo.Context) error {
	a.mu.Lock()
	load := a.load
	a.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]interface{}{
		"agent_id": a.id,
		"location": a.location,
		"status":   "active",
		"load":     load,
	})
}

// sample fabricates a plausible reading; the real fleet reads a BME680.
func (a *agent) sample() sensorReading {
	return sensorReading{
		Timestamp:       float64(time.Now().Unix()),
		Temperature:     20 + rand.Float64()*5,
		Humidity:        40 + rand.Float64()*20,
		Pressure:        1000 + rand.Float64()*30,
		AirQualityIndex: 1 + rand.Float64()*4,
	}
}
