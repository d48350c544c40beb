package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/homefleet/supervisor/allocator"
	"github.com/homefleet/supervisor/dispatch"
	"github.com/homefleet/supervisor/domain"
	"github.com/homefleet/supervisor/offload"
	"github.com/homefleet/supervisor/queue"
	"github.com/homefleet/supervisor/registry"
	"github.com/homefleet/supervisor/supervisor"
	"github.com/homefleet/supervisor/tests/helpers"
)

type testDispatcher struct {
	fail error
}

func (d *testDispatcher) Execute(ctx context.Context, endpoint string, task domain.Task) (*dispatch.ExecuteResponse, error) {
	if d.fail != nil {
		return nil, d.fail
	}
	return &dispatch.ExecuteResponse{
		TaskID: task.ID,
		Agent:  endpoint,
		Result: json.RawMessage(`{"answer":"ok"}`),
	}, nil
}

type testSampler struct {
	cpu float64
	mem float64
}

func (s *testSampler) Sample(ctx context.Context) (float64, float64, error) {
	return s.cpu, s.mem, nil
}

type testCloud struct{}

func (c *testCloud) Execute(ctx context.Context, task domain.Task) (*domain.TaskResult, error) {
	return &domain.TaskResult{TaskID: task.ID, Source: "cloud", Response: "cloud done"}, nil
}

type handlerFixture struct {
	handler    *Handler
	sup        *supervisor.Supervisor
	dispatcher *testDispatcher
	sampler    *testSampler
}

func newTestHandler(t *testing.T) *handlerFixture {
	t.Helper()

	engine, err := offload.NewEngine(context.Background(), offload.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	dispatcher := &testDispatcher{}
	sampler := &testSampler{cpu: 20, mem: 30}

	sup := supervisor.New(supervisor.Options{
		Registry:      registry.New(),
		Allocator:     allocator.New(allocator.DefaultResourceThreshold),
		Offload:       engine,
		Sampler:       sampler,
		Queue:         queue.New(),
		Dispatcher:    dispatcher,
		Cloud:         &testCloud{},
		Store:         helpers.NewTestSQLiteStore(t),
		MonitorEvery:  10 * time.Second,
		HeartbeatTTL:  30 * time.Second,
		LoadDecayStep: 0.01,
		LivenessWin:   10 * time.Second,
		ElectEvery:    10 * time.Second,
		ReconcileEvry: time.Second,
		ExpiryHorizon: 300 * time.Second,
		SampleEvery:   5 * time.Second,
	})

	return &handlerFixture{
		handler:    NewHandler(sup),
		sup:        sup,
		dispatcher: dispatcher,
		sampler:    sampler,
	}
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRegisterValidation(t *testing.T) {
	e := echo.New()
	f := newTestHandler(t)

	c, rec := postJSON(e, "/register", `{"location":"office"}`)
	if err := f.handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRegisterSuccess(t *testing.T) {
	e := echo.New()
	f := newTestHandler(t)

	body := `{"id":"office-1","location":"office","endpoint":"http://office:8081"}`
	c, rec := postJSON(e, "/register", body)
	if err := f.handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	agent, ok := f.sup.GetAgent("office-1")
	if !ok {
		t.Fatal("agent not registered")
	}
	if agent.Status != domain.AgentStatusActive {
		t.Fatalf("expected active, got %s", agent.Status)
	}
}

func TestHeartbeatKnownAndUnknown(t *testing.T) {
	e := echo.New()
	f := newTestHandler(t)
	f.sup.Register(context.Background(), domain.Registration{ID: "a", Location: "office", Endpoint: "http://a"})

	c, rec := postJSON(e, "/heartbeat", `{"agent_id":"a","load":0.4}`)
	if err := f.handler.Heartbeat(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["known"] != true {
		t.Fatalf("expected known=true, got %v", resp["known"])
	}

	c, rec = postJSON(e, "/heartbeat", `{"agent_id":"ghost"}`)
	if err := f.handler.Heartbeat(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unknown agent heartbeat must not error, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["known"] != false {
		t.Fatalf("expected known=false, got %v", resp["known"])
	}
}

func TestHeartbeatRequiresAgentID(t *testing.T) {
	e := echo.New()
	f := newTestHandler(t)

	c, rec := postJSON(e, "/heartbeat", `{"load":0.4}`)
	if err := f.handler.Heartbeat(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetAgentNotFound(t *testing.T) {
	e := echo.New()
	f := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/agents/ghost", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("agent_id")
	c.SetParamValues("ghost")

	if err := f.handler.GetAgent(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListAgents(t *testing.T) {
	e := echo.New()
	f := newTestHandler(t)
	f.sup.Register(context.Background(), domain.Registration{ID: "a", Location: "office", Endpoint: "http://a"})

	req := httptest.NewRequest(http.MethodGet, "/agents", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := f.handler.ListAgents(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Agents []domain.Agent `json:"agents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Agents) != 1 || resp.Agents[0].ID != "a" {
		t.Fatalf("unexpected agents: %+v", resp.Agents)
	}
}
