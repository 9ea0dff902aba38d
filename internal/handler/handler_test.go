package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/capitalize-ai/hotel-ops-console/internal/gateway"
	"github.com/capitalize-ai/hotel-ops-console/internal/ingest"
	"github.com/capitalize-ai/hotel-ops-console/internal/middleware"
	"github.com/capitalize-ai/hotel-ops-console/internal/model"
	"github.com/capitalize-ai/hotel-ops-console/internal/workspace"
)

const testSecret = "handler-secret"

type stubGateway struct {
	fail bool
}

func (g stubGateway) Send(_ context.Context, channel model.Channel, message string) gateway.Result {
	if g.fail {
		return gateway.Result{Response: gateway.FallbackMessage(channel), Fallback: true, Cause: errors.New("down")}
	}
	if strings.Contains(message, "room service") {
		return gateway.Result{Response: "Here is the menu", Context: gateway.ContextTag(channel)}
	}
	return gateway.Result{Response: "Noted: " + message, Context: gateway.ContextTag(channel)}
}

func (g stubGateway) Analyze(context.Context, gateway.Image) gateway.VisionResult {
	fb := gateway.FallbackAnalysis()
	return gateway.VisionResult{Detections: fb.Results, ProcessingTime: 0.4}
}

type stubBus struct{ connected bool }

func (b stubBus) IsConnected() bool { return b.connected }

func newServer(t *testing.T, gw workspace.Gateway, bus EventBus) *httptest.Server {
	t.Helper()
	reg, err := workspace.NewRegistry(gw, workspace.Config{Seed: ingest.Demo()})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	srv := httptest.NewServer(NewRouter(RouterConfig{
		Workspaces:    reg,
		Events:        bus,
		JWTSecret:     testSecret,
		MaxImageBytes: 1 << 20,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func token(t *testing.T, operator string, scopes ...string) string {
	t.Helper()
	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Scopes: scopes,
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c client) do(method, path string, body any, out any) int {
	c.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.base+path, rdr)
	if err != nil {
		c.t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.send(req, out)
}

func (c client) send(req *http.Request, out any) int {
	c.t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("decode %s %s: %v", req.Method, req.URL.Path, err)
		}
	}
	return resp.StatusCode
}

// snapshot mirrors the JSON shape of a console snapshot.
type snapshot struct {
	Greeting       string             `json:"greeting"`
	Active         *model.CallRecord  `json:"active"`
	Transcript     []json.RawMessage  `json:"transcript"`
	LatestResponse string             `json:"latestResponse"`
	History        []model.CallRecord `json:"history"`
	Stats          model.SessionStats `json:"stats"`
}

func TestHealthAndReady(t *testing.T) {
	srv := newServer(t, stubGateway{}, nil)
	c := client{t: t, base: srv.URL}

	var body map[string]string
	if code := c.do(http.MethodGet, "/health", nil, &body); code != http.StatusOK || body["status"] != "healthy" {
		t.Errorf("health: %d %v", code, body)
	}
	if code := c.do(http.MethodGet, "/ready", nil, &body); code != http.StatusOK || body["events"] != "disabled" {
		t.Errorf("ready: %d %v", code, body)
	}

	down := newServer(t, stubGateway{}, stubBus{connected: false})
	c.base = down.URL
	if code := c.do(http.MethodGet, "/ready", nil, nil); code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 with NATS down, got %d", code)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	srv := newServer(t, stubGateway{}, nil)
	c := client{t: t, base: srv.URL}

	if code := c.do(http.MethodGet, "/api/v1/chat", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", code)
	}
}

func TestCallLifecycle(t *testing.T) {
	srv := newServer(t, stubGateway{}, nil)
	c := client{t: t, base: srv.URL, token: token(t, "frontdesk")}

	if code := c.do(http.MethodPost, "/api/v1/calls/messages", MessageRequest{Message: "hello"}, nil); code != http.StatusConflict {
		t.Errorf("expected 409 without session, got %d", code)
	}

	var snap snapshot
	if code := c.do(http.MethodPost, "/api/v1/calls/start", map[string]string{"customerName": "John Smith"}, &snap); code != http.StatusCreated {
		t.Fatalf("start: %d", code)
	}
	if snap.Active == nil || snap.Active.Status != model.CallInProgress {
		t.Fatalf("expected active call, got %+v", snap.Active)
	}
	if code := c.do(http.MethodPost, "/api/v1/calls/start", nil, nil); code != http.StatusConflict {
		t.Errorf("expected 409 on second start, got %d", code)
	}

	var msg struct {
		Exchange struct {
			Ignored   bool `json:"ignored"`
			Assistant struct {
				Content string `json:"content"`
			} `json:"assistant"`
		} `json:"exchange"`
		Session snapshot `json:"session"`
	}
	if code := c.do(http.MethodPost, "/api/v1/calls/messages", MessageRequest{Message: "room service?"}, &msg); code != http.StatusOK {
		t.Fatalf("message: %d", code)
	}
	if msg.Exchange.Assistant.Content != "Here is the menu" || len(msg.Session.Transcript) != 2 {
		t.Errorf("unexpected exchange %+v", msg)
	}

	if code := c.do(http.MethodPost, "/api/v1/calls/messages", MessageRequest{Message: "   "}, &msg); code != http.StatusOK || !msg.Exchange.Ignored {
		t.Errorf("expected blank message ignored, got %d %+v", code, msg.Exchange)
	}
	if len(msg.Session.Transcript) != 2 {
		t.Errorf("expected transcript unchanged, got %d", len(msg.Session.Transcript))
	}

	if code := c.do(http.MethodPost, "/api/v1/calls/end", map[string]float64{"satisfaction": 9}, nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad rating, got %d", code)
	}

	var end struct {
		Ended   bool              `json:"ended"`
		Record  *model.CallRecord `json:"record"`
		Session snapshot          `json:"session"`
	}
	if code := c.do(http.MethodPost, "/api/v1/calls/end", map[string]float64{"satisfaction": 5}, &end); code != http.StatusOK || !end.Ended {
		t.Fatalf("end: %d %+v", code, end)
	}
	first := end.Session.History[0]
	if first.Status != model.CallCompleted || !strings.Contains(first.Transcript, "Customer: room service?") || !strings.Contains(first.Transcript, "AI: Here is the menu") {
		t.Errorf("unexpected history head %+v", first)
	}
	if len(end.Session.History) != 4 {
		t.Errorf("expected the call on top of 3 seeded records, got %d", len(end.Session.History))
	}

	if code := c.do(http.MethodPost, "/api/v1/calls/end", nil, &end); code != http.StatusOK || end.Ended {
		t.Errorf("expected no-op end, got %d %+v", code, end)
	}
}

func TestCallFallbackEscalates(t *testing.T) {
	srv := newServer(t, stubGateway{fail: true}, nil)
	c := client{t: t, base: srv.URL, token: token(t, "frontdesk")}

	c.do(http.MethodPost, "/api/v1/calls/start", nil, nil)

	var msg MessageResponse
	c.do(http.MethodPost, "/api/v1/calls/messages", MessageRequest{Message: "billing question"}, &msg)
	if msg.Exchange.Assistant.Content != gateway.CallCenterFallbackMessage || !msg.Exchange.Fallback {
		t.Errorf("expected call-center fallback, got %+v", msg.Exchange)
	}

	var end struct {
		Record *model.CallRecord `json:"record"`
	}
	c.do(http.MethodPost, "/api/v1/calls/end", nil, &end)
	if end.Record == nil || end.Record.AIHandled {
		t.Errorf("expected human-handled record, got %+v", end.Record)
	}
}

func TestChatConsole(t *testing.T) {
	srv := newServer(t, stubGateway{fail: true}, nil)
	c := client{t: t, base: srv.URL, token: token(t, "concierge")}

	var snap snapshot
	c.do(http.MethodGet, "/api/v1/chat", nil, &snap)
	if snap.Greeting != workspace.ChatGreeting || snap.Active != nil {
		t.Errorf("unexpected initial chat %+v", snap)
	}

	c.do(http.MethodPost, "/api/v1/chat/start", nil, nil)
	var msg MessageResponse
	c.do(http.MethodPost, "/api/v1/chat/messages", MessageRequest{Message: "Show churn"}, &msg)
	if msg.Exchange.Assistant.Content != gateway.ChatFallbackMessage {
		t.Errorf("expected chat fallback, got %q", msg.Exchange.Assistant.Content)
	}
	if msg.Session.Stats.TotalMessages != 2 || msg.Session.Stats.AIResponses != 1 {
		t.Errorf("unexpected chat stats %+v", msg.Session.Stats)
	}
}

func TestOperatorsAreIsolated(t *testing.T) {
	srv := newServer(t, stubGateway{}, nil)
	alice := client{t: t, base: srv.URL, token: token(t, "alice")}
	bob := client{t: t, base: srv.URL, token: token(t, "bob")}

	alice.do(http.MethodPost, "/api/v1/calls/start", nil, nil)

	var snap snapshot
	bob.do(http.MethodGet, "/api/v1/calls", nil, &snap)
	if snap.Active != nil {
		t.Error("expected bob to have no active call")
	}
	if code := bob.do(http.MethodPost, "/api/v1/calls/start", nil, nil); code != http.StatusCreated {
		t.Errorf("expected bob's start to succeed, got %d", code)
	}
}

func TestCustomers(t *testing.T) {
	srv := newServer(t, stubGateway{}, nil)
	reader := client{t: t, base: srv.URL, token: token(t, "analyst")}
	writer := client{t: t, base: srv.URL, token: token(t, "analyst", middleware.ScopeCustomersWrite)}

	var view struct {
		Customers []map[string]any   `json:"customers"`
		Stats     model.AggregateStats `json:"stats"`
		Matched   int                  `json:"matched"`
	}
	if code := reader.do(http.MethodGet, "/api/v1/customers?search=maria&segment=Leisure", nil, &view); code != http.StatusOK {
		t.Fatalf("list: %d", code)
	}
	if view.Matched != 1 || view.Customers[0]["name"] != "Maria Garcia" || view.Customers[0]["riskLevel"] != "low" {
		t.Errorf("unexpected filtered view %+v", view)
	}
	if view.Stats.Total != 5 || view.Stats.HighRisk != 2 {
		t.Errorf("unexpected stats %+v", view.Stats)
	}

	var one map[string]any
	if code := reader.do(http.MethodGet, "/api/v1/customers/1", nil, &one); code != http.StatusOK || one["riskLevel"] != "high" {
		t.Errorf("get: %d %v", code, one)
	}
	if code := reader.do(http.MethodGet, "/api/v1/customers/99", nil, nil); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}

	newCustomer := map[string]any{
		"id": "6", "name": "Ana Lopez", "email": "ana@email.com",
		"totalSpent": 900, "satisfactionScore": 3.5, "churnProbability": 0.5,
		"segment": "Group", "lastInteraction": "2024-02-01",
	}
	if code := reader.do(http.MethodPost, "/api/v1/customers", newCustomer, nil); code != http.StatusForbidden {
		t.Errorf("expected 403 without write scope, got %d", code)
	}
	if code := writer.do(http.MethodPost, "/api/v1/customers", newCustomer, nil); code != http.StatusCreated {
		t.Errorf("create: %d", code)
	}
	if code := writer.do(http.MethodPost, "/api/v1/customers", newCustomer, nil); code != http.StatusConflict {
		t.Errorf("expected 409 on duplicate, got %d", code)
	}

	withRisk := map[string]any{"id": "7", "name": "X", "riskLevel": "low"}
	if code := writer.do(http.MethodPost, "/api/v1/customers", withRisk, nil); code != http.StatusBadRequest {
		t.Errorf("expected riskLevel input to be rejected, got %d", code)
	}

	if code := writer.do(http.MethodPatch, "/api/v1/customers/2", map[string]any{"churnProbability": 1.5}, nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid churn, got %d", code)
	}
	var updated map[string]any
	if code := writer.do(http.MethodPatch, "/api/v1/customers/2", map[string]any{"churnProbability": 0.9}, &updated); code != http.StatusOK || updated["riskLevel"] != "high" {
		t.Errorf("patch: %d %v", code, updated)
	}
	if code := writer.do(http.MethodPatch, "/api/v1/customers/missing", map[string]any{}, nil); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}

	reader.do(http.MethodGet, "/api/v1/customers", nil, &view)
	if view.Stats.Total != 6 || view.Stats.HighRisk != 3 {
		t.Errorf("expected stats to follow mutations, got %+v", view.Stats)
	}
}

func TestVisionUpload(t *testing.T) {
	srv := newServer(t, stubGateway{}, nil)
	c := client{t: t, base: srv.URL, token: token(t, "security")}

	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 640, 480))); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="lobby.png"`)
	h.Set("Content-Type", "image/png")
	part, _ := mw.CreatePart(h)
	part.Write(img.Bytes())
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/vision/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	var result model.AnalysisResult
	if code := c.send(req, &result); code != http.StatusOK {
		t.Fatalf("analyze: %d", code)
	}
	if len(result.Results) != 3 || result.ImageWidth != 640 || result.ProcessingTime != 0.4 {
		t.Errorf("unexpected result %+v", result)
	}

	imgReq, _ := http.NewRequest(http.MethodGet, srv.URL+result.ImageURL, nil)
	imgReq.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := http.DefaultClient.Do(imgReq)
	if err != nil {
		t.Fatalf("get image: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("unexpected image response %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	var list VisionResponse
	c.do(http.MethodGet, "/api/v1/vision", nil, &list)
	if list.Current == nil || list.Current.ID != result.ID || len(list.History) != 1 {
		t.Errorf("unexpected vision list %+v", list)
	}

	if code := c.do(http.MethodPost, "/api/v1/vision/analyze", nil, nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 without file, got %d", code)
	}
}
