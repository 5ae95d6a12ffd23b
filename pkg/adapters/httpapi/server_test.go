package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atendo/atendo/internal/flow"
	"github.com/atendo/atendo/pkg/adapters/memory"
	"github.com/atendo/atendo/pkg/domain"
	"github.com/atendo/atendo/pkg/handler"
	"github.com/atendo/atendo/pkg/operator"
	"github.com/atendo/atendo/pkg/ports"
	"github.com/atendo/atendo/pkg/session"
)

const editorFlowJSON = `{
	"id": "flow-1",
	"name": "Atendimento",
	"isActive": true,
	"nodes": [
		{"id": "start", "type": "trigger", "data": {"triggerType": "keyword", "keywords": ["oi", "olá"]}},
		{"id": "greet", "type": "message", "content": "Olá! Como posso ajudar?"}
	],
	"edges": [
		{"id": "e1", "source": "start", "target": "greet"}
	]
}`

func newTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()

	flows := memory.NewFlowStore()
	sessions := session.NewManager(memory.NewContextStore())
	operators := operator.NewRegistry()
	h := handler.New(flow.New(flows), sessions, handler.WithAssigner(operators))

	srv := NewServer(h, sessions, flows, operators, WithVersion("test"))
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, srv
}

func request(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out []byte
	if resp.ContentLength != 0 {
		dec := json.NewDecoder(resp.Body)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil {
			out = raw
		}
	}
	return resp.StatusCode, out
}

func TestFlowLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	// Create.
	status, body := request(t, http.MethodPost, ts.URL+"/api/flows", editorFlowJSON)
	require.Equal(t, http.StatusCreated, status)
	var created struct {
		ID       string   `json:"id"`
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "flow-1", created.ID)
	assert.Empty(t, created.Warnings)

	// Saving never activates; activation is explicit.
	status, _ = request(t, http.MethodGet, ts.URL+"/api/flows/active", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = request(t, http.MethodPost, ts.URL+"/api/flows/flow-1/activate", "")
	require.Equal(t, http.StatusOK, status)

	status, body = request(t, http.MethodGet, ts.URL+"/api/flows/active", "")
	require.Equal(t, http.StatusOK, status)
	var active struct {
		ID     string `json:"id"`
		Active bool   `json:"isActive"`
	}
	require.NoError(t, json.Unmarshal(body, &active))
	assert.Equal(t, "flow-1", active.ID)
	assert.True(t, active.Active)

	// List.
	status, body = request(t, http.MethodGet, ts.URL+"/api/flows", "")
	require.Equal(t, http.StatusOK, status)
	var list []struct {
		ID    string `json:"id"`
		Nodes int    `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Nodes)

	// Delete.
	status, _ = request(t, http.MethodDelete, ts.URL+"/api/flows/flow-1", "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = request(t, http.MethodGet, ts.URL+"/api/flows/flow-1", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateFlowGeneratesID(t *testing.T) {
	ts, _ := newTestServer(t)

	doc := `{"name": "Sem ID", "nodes": [{"id": "n1", "type": "message", "content": "oi"}], "edges": []}`
	status, body := request(t, http.MethodPost, ts.URL+"/api/flows", doc)
	require.Equal(t, http.StatusCreated, status)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.ID)
}

func TestCreateFlowReturnsLintWarnings(t *testing.T) {
	ts, _ := newTestServer(t)

	// Trigger with no outgoing edge.
	doc := `{"id": "f", "name": "Quebrado", "nodes": [{"id": "start", "type": "trigger"}], "edges": []}`
	status, body := request(t, http.MethodPost, ts.URL+"/api/flows", doc)
	require.Equal(t, http.StatusCreated, status)

	var created struct {
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEmpty(t, created.Warnings)
}

func TestCreateFlowRejectsInvalidJSON(t *testing.T) {
	ts, _ := newTestServer(t)
	status, _ := request(t, http.MethodPost, ts.URL+"/api/flows", "{not json")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPostMessageRunsTurn(t *testing.T) {
	ts, _ := newTestServer(t)

	status, _ := request(t, http.MethodPost, ts.URL+"/api/flows", editorFlowJSON)
	require.Equal(t, http.StatusCreated, status)
	status, _ = request(t, http.MethodPost, ts.URL+"/api/flows/flow-1/activate", "")
	require.Equal(t, http.StatusOK, status)

	status, body := request(t, http.MethodPost, ts.URL+"/api/conversations/wa:111/messages", `{"text": "oi"}`)
	require.Equal(t, http.StatusOK, status)

	var resp struct {
		Reply string `json:"reply"`
		Stage string `json:"stage"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "Olá! Como posso ajudar?", resp.Reply)
	assert.Equal(t, "greet", resp.Stage)

	// Context is visible through the API.
	status, body = request(t, http.MethodGet, ts.URL+"/api/conversations/wa:111/context", "")
	require.Equal(t, http.StatusOK, status)
	var conv domain.Context
	require.NoError(t, json.Unmarshal(body, &conv))
	assert.Equal(t, "greet", conv.Stage)
	assert.Equal(t, 1, conv.Turns)

	// Reset.
	status, _ = request(t, http.MethodDelete, ts.URL+"/api/conversations/wa:111/context", "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = request(t, http.MethodGet, ts.URL+"/api/conversations/wa:111/context", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPostMessageWithoutActiveFlow(t *testing.T) {
	ts, _ := newTestServer(t)

	status, body := request(t, http.MethodPost, ts.URL+"/api/conversations/wa:111/messages", `{"text": "oi"}`)
	require.Equal(t, http.StatusOK, status)

	var resp struct {
		Reply string `json:"reply"`
		Stage string `json:"stage"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, flow.DefaultMessages().ConfigError, resp.Reply)
	assert.Equal(t, domain.StageInitial, resp.Stage, "context stays untouched until a flow is activated")
}

func TestOperatorLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	status, body := request(t, http.MethodPost, ts.URL+"/api/operators",
		`{"name": "Ana", "department": "Vendas"}`)
	require.Equal(t, http.StatusCreated, status)

	var op ports.Operator
	require.NoError(t, json.Unmarshal(body, &op))
	assert.NotEmpty(t, op.ID)
	assert.True(t, op.Active)

	status, body = request(t, http.MethodGet, ts.URL+"/api/operators", "")
	require.Equal(t, http.StatusOK, status)
	var ops []ports.Operator
	require.NoError(t, json.Unmarshal(body, &ops))
	require.Len(t, ops, 1)

	status, _ = request(t, http.MethodDelete, ts.URL+"/api/operators/"+op.ID, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = request(t, http.MethodDelete, ts.URL+"/api/operators/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateOperatorRequiresName(t *testing.T) {
	ts, _ := newTestServer(t)
	status, _ := request(t, http.MethodPost, ts.URL+"/api/operators", `{"department": "Vendas"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHealthAndInfo(t *testing.T) {
	ts, _ := newTestServer(t)

	status, body := request(t, http.MethodGet, ts.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status": "ok"}`, string(body))

	status, body = request(t, http.MethodGet, ts.URL+"/info", "")
	require.Equal(t, http.StatusOK, status)
	var info map[string]string
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, "test", info["version"])
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/flows", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStreamManagerBroadcast(t *testing.T) {
	sm := NewStreamManager()

	perConv, cancelConv := sm.Subscribe("wa:111")
	defer cancelConv()
	global, cancelGlobal := sm.Subscribe("")
	defer cancelGlobal()
	other, cancelOther := sm.Subscribe("wa:222")
	defer cancelOther()

	sm.Broadcast("wa:111", `{"reply": "oi"}`)

	assert.Equal(t, `{"reply": "oi"}`, <-perConv)
	assert.Equal(t, `{"reply": "oi"}`, <-global)
	select {
	case msg := <-other:
		t.Fatalf("unrelated subscriber received %q", msg)
	default:
	}
}

func TestStreamManagerBroadcastEmptyConversation(t *testing.T) {
	sm := NewStreamManager()

	global, cancel := sm.Subscribe("")
	defer cancel()

	sm.Broadcast("", "evento")

	assert.Equal(t, "evento", <-global)
	select {
	case msg := <-global:
		t.Fatalf("global subscriber received duplicate %q", msg)
	default:
	}
}
