package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mailproof/mailproof/mailer"
	"github.com/mailproof/mailproof/pipeline"
	"github.com/mailproof/mailproof/prover"
	"github.com/mailproof/mailproof/server/api"
)

func testServer() *api.Server {
	registry := prover.NewRegistry()
	p := pipeline.New(&pipeline.StaticKeyProvider{Key: []byte("key material")}, nil)
	return api.NewServer(registry, p, nil)
}

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestHandleListCircuitsEmpty(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().HandleListCircuits(rec, httptest.NewRequest(http.MethodGet, "/circuits", nil))

	var body api.CircuitListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 0 {
		t.Errorf("count = %d, nothing was loaded", body.Count)
	}
}

func TestHandleWitnessRejectsMissingInput(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/witness", strings.NewReader(`{"email":""}`))
	testServer().HandleWitness(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body api.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Code != "missing_input" {
		t.Errorf("code = %q", body.Code)
	}
}

func TestHandleWitnessRejectsBadJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/witness", strings.NewReader(`{not json`))
	testServer().HandleWitness(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleWitnessUnloadedCircuit(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/witness",
		strings.NewReader(`{"email":"raw message","accountCode":"0x01"}`))
	testServer().HandleWitness(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

type stubMailer struct {
	sent []mailer.Message
}

func (m *stubMailer) Send(ctx context.Context, msg mailer.Message) (string, error) {
	m.sent = append(m.sent, msg)
	return "<stub-id>", nil
}

func TestHandleProveNotifications(t *testing.T) {
	registry := prover.NewRegistry()
	err := registry.Register(&prover.LoadedCircuit{
		Info:  prover.Circuits["email-auth"],
		Setup: &prover.Setup{},
	})
	if err != nil {
		t.Fatal(err)
	}

	m := &stubMailer{}
	p := pipeline.New(&pipeline.StaticKeyProvider{Key: []byte("key material")}, nil)
	srv := api.NewServer(registry, p, m)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/prove", strings.NewReader(
		`{"email":"not a wire-format message","accountCode":"0x01","notifyTo":"alice@example.com"}`))
	srv.HandleProve(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	// Receipt is acknowledged before the work starts; the failure then
	// produces an error notice.
	if len(m.sent) != 2 {
		t.Fatalf("sent %d notifications, want ack and error notice", len(m.sent))
	}
	if !strings.Contains(m.sent[0].BodyPlain, "was received") {
		t.Errorf("first notification is not an acknowledgement: %q", m.sent[0].BodyPlain)
	}
	if !strings.Contains(m.sent[1].BodyPlain, "An error occurred") {
		t.Errorf("second notification is not an error notice: %q", m.sent[1].BodyPlain)
	}
	for _, msg := range m.sent {
		if msg.To != "alice@example.com" {
			t.Errorf("notification sent to %q", msg.To)
		}
	}
}

func TestHandleVerifyUnknownCircuit(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/verify/{circuit}", testServer().HandleVerify)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/verify/no-such-circuit", strings.NewReader(`{}`)))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
