package ofctl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeController serves a minimal ofctl_rest surface.
type fakeController struct {
	mu       sync.Mutex
	received map[string][]map[string]any
	status   int
}

func newFakeController(t *testing.T) (*fakeController, *Client) {
	t.Helper()

	fc := &fakeController{received: map[string][]map[string]any{}, status: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /stats/switches", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []uint64{3, 1, 2})
	})
	mux.HandleFunc("GET /stats/flow/{dpid}", func(w http.ResponseWriter, r *http.Request) {
		dpid := r.PathValue("dpid")
		if dpid == "99" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			dpid: []map[string]any{
				{"table_id": 0, "priority": 100, "match": map[string]any{"in_port": 1}, "actions": []string{"OUTPUT:2"}, "duration_sec": 12},
				{"table_id": 1, "priority": 10, "match": map[string]any{}, "actions": []string{}, "duration_sec": 3},
				{"table_id": 0, "priority": 0, "match": map[string]any{}, "actions": []string{"OUTPUT:CONTROLLER"}, "duration_sec": 40},
			},
		})
	})
	mux.HandleFunc("POST /stats/flowentry/{op}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fc.mu.Lock()
		fc.received[r.PathValue("op")] = append(fc.received[r.PathValue("op")], body)
		status := fc.status
		fc.mu.Unlock()
		w.WriteHeader(status)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return fc, NewClient(srv.URL, 2*time.Second)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListSwitches(t *testing.T) {
	_, client := newFakeController(t)

	names, err := client.ListSwitches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, names)
}

func TestSwitchStateGroupsByTable(t *testing.T) {
	_, client := newFakeController(t)

	rec, err := client.SwitchState(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, "1", rec.Name())
	assert.Equal(t, 3, rec.FlowCount())

	tables := rec.InstalledFlows()
	require.Contains(t, tables, "0")
	require.Contains(t, tables, "1")

	table0 := tables["0"].([]any)
	require.Len(t, table0, 2)
	first := table0[0].(map[string]any)
	assert.Equal(t, float64(100), first["priority"])
	assert.NotContains(t, first, "table_id")

	// Controller order is preserved within a table
	assert.Equal(t, float64(0), table0[1].(map[string]any)["priority"])
}

func TestSwitchStateNotConnected(t *testing.T) {
	_, client := newFakeController(t)

	_, err := client.SwitchState(context.Background(), "99")
	assert.ErrorIs(t, err, ErrSwitchNotConnected)
}

func TestFlowEntryOperations(t *testing.T) {
	fc, client := newFakeController(t)
	ctx := context.Background()

	mod := NewFlowMod("1", 0, map[string]any{"dl_type": 2048, "nw_src": "10.0.0.1"}, nil)

	tests := []struct {
		op string
		fn func(context.Context, FlowMod) (int, error)
	}{
		{"add", client.AddFlow},
		{"delete_strict", client.DeleteFlowStrict},
		{"modify_strict", client.ModifyFlowStrict},
		{"modify", client.ModifyFlows},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			status, err := tt.fn(ctx, mod)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, status)

			fc.mu.Lock()
			defer fc.mu.Unlock()
			require.Len(t, fc.received[tt.op], 1)
			body := fc.received[tt.op][0]
			assert.Equal(t, "1", body["dpid"])
			assert.Equal(t, float64(0), body["cookie"])
			assert.Equal(t, float64(0), body["table_id"])
			assert.Equal(t, float64(DefaultPriority), body["priority"])
			assert.Equal(t, []any{}, body["actions"], "drop action list must be encoded as []")
			assert.Equal(t, "10.0.0.1", body["match"].(map[string]any)["nw_src"])
		})
	}
}

func TestFlowEntryFailureStatus(t *testing.T) {
	fc, client := newFakeController(t)
	fc.status = http.StatusBadRequest

	status, err := client.AddFlow(context.Background(), NewFlowMod("1", 0, nil, []any{map[string]any{"type": "OUTPUT", "port": 2}}))
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFlowEntryRequiresDPID(t *testing.T) {
	_, client := newFakeController(t)

	_, err := client.AddFlow(context.Background(), FlowMod{})
	assert.Error(t, err)
}

func TestControllerUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond)

	_, err := client.ListSwitches(context.Background())
	assert.Error(t, err)
}
