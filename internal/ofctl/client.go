// Package ofctl is the client for the SDN controller's ofctl REST API (Ryu
// ofctl_rest). It reads the live switch list and per-switch flow tables for
// the reconciler and issues flow-entry mutations on behalf of intent
// fulfilment.
//
// SUPPORTED OPERATIONS:
//   - GET  /stats/switches                 datapath ids of connected switches
//   - GET  /stats/flow/{dpid}              flow stats of one switch
//   - POST /stats/flowentry/add            install a flow
//   - POST /stats/flowentry/delete_strict  remove one exactly matching flow
//   - POST /stats/flowentry/modify_strict  modify one exactly matching flow
//   - POST /stats/flowentry/modify         modify every matching flow
//
// Mutations return the controller's HTTP status; any non-2xx status is also
// returned as an error.
package ofctl

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/concave-dev/otto/internal/logging"
	"github.com/concave-dev/otto/internal/netstate"
	"github.com/concave-dev/otto/internal/version"
)

// DefaultPriority is the OpenFlow default flow priority.
const DefaultPriority = 32768

// FlowMod is the body of a flowentry request.
type FlowMod struct {
	DPID     string         `json:"dpid"`
	Cookie   uint64         `json:"cookie"`
	TableID  int            `json:"table_id"`
	Priority int            `json:"priority"`
	Match    map[string]any `json:"match"`
	Actions  []any          `json:"actions"`
}

// NewFlowMod builds a flow modification at DefaultPriority with cookie 0.
// A nil or empty action list drops matching packets.
func NewFlowMod(dpid string, tableID int, match map[string]any, actions []any) FlowMod {
	return FlowMod{
		DPID:     dpid,
		TableID:  tableID,
		Priority: DefaultPriority,
		Match:    match,
		Actions:  actions,
	}
}

// restyLogger routes resty's internal logging through the logging package.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) { logging.Error(format, v...) }
func (restyLogger) Warnf(format string, v ...any)  { logging.Warn(format, v...) }
func (restyLogger) Debugf(format string, v ...any) { logging.Debug(format, v...) }

// Client talks to one controller.
type Client struct {
	client  *resty.Client
	baseURL string
}

// NewClient creates a client for the controller at baseURL
// (e.g. "http://localhost:8080").
func NewClient(baseURL string, timeout time.Duration) *Client {
	client := resty.New()
	client.SetLogger(restyLogger{})

	client.
		SetTimeout(timeout).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", fmt.Sprintf("ottod/%s", version.OttodVersion))

	// Reads are idempotent; retry them on connection errors only
	client.
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil && r != nil && r.Request != nil && r.Request.Method == resty.MethodGet
		})

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		logging.Debug("Controller request: %s %s", req.Method, req.URL)
		return nil
	})

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logging.Debug("Controller response: %d %s (took %v)",
			resp.StatusCode(), resp.Request.URL, resp.Time())
		return nil
	})

	client.OnError(func(req *resty.Request, err error) {
		logging.Debug("Controller request failed: %s %s - %v", req.Method, req.URL, err)
	})

	return &Client{client: client, baseURL: baseURL}
}

// BaseURL returns the controller endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListSwitches returns the decimal datapath ids of every connected switch,
// sorted numerically.
func (c *Client) ListSwitches(ctx context.Context) ([]string, error) {
	var dpids []uint64

	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&dpids).
		Get("/stats/switches")
	if err != nil {
		return nil, fmt.Errorf("failed to reach controller at %s: %w", c.baseURL, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("list switches failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	slices.Sort(dpids)
	names := make([]string, len(dpids))
	for i, id := range dpids {
		names[i] = strconv.FormatUint(id, 10)
	}
	return names, nil
}

// SwitchState fetches the flow stats of one switch and shapes them into a
// switch record: entries are grouped by table_id under installedFlows in
// controller order.
func (c *Client) SwitchState(ctx context.Context, dpid string) (netstate.Record, error) {
	var stats map[string][]map[string]any

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("dpid", dpid).
		SetResult(&stats).
		Get("/stats/flow/{dpid}")
	if err != nil {
		return nil, fmt.Errorf("failed to reach controller at %s: %w", c.baseURL, err)
	}
	if resp.StatusCode() == 404 {
		return nil, fmt.Errorf("%w: %s", ErrSwitchNotConnected, dpid)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("flow stats for %s failed with status %d: %s", dpid, resp.StatusCode(), resp.String())
	}

	flows, ok := stats[dpid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSwitchNotConnected, dpid)
	}

	return netstate.NewRecord(dpid, groupByTable(flows)), nil
}

// groupByTable buckets flow stats by their table_id, dropping the id from
// each entry.
func groupByTable(flows []map[string]any) map[string][]map[string]any {
	tables := make(map[string][]map[string]any)
	for _, f := range flows {
		entry := make(map[string]any, len(f))
		for k, v := range f {
			if k != "table_id" {
				entry[k] = v
			}
		}

		table := "0"
		switch id := f["table_id"].(type) {
		case float64:
			table = strconv.FormatInt(int64(id), 10)
		case string:
			table = id
		}
		tables[table] = append(tables[table], entry)
	}
	return tables
}

// AddFlow installs a flow entry.
func (c *Client) AddFlow(ctx context.Context, mod FlowMod) (int, error) {
	return c.flowEntry(ctx, "add", mod)
}

// DeleteFlowStrict removes the flow exactly matching mod.
func (c *Client) DeleteFlowStrict(ctx context.Context, mod FlowMod) (int, error) {
	return c.flowEntry(ctx, "delete_strict", mod)
}

// ModifyFlowStrict modifies the flow exactly matching mod.
func (c *Client) ModifyFlowStrict(ctx context.Context, mod FlowMod) (int, error) {
	return c.flowEntry(ctx, "modify_strict", mod)
}

// ModifyFlows modifies every flow matching mod.
func (c *Client) ModifyFlows(ctx context.Context, mod FlowMod) (int, error) {
	return c.flowEntry(ctx, "modify", mod)
}

func (c *Client) flowEntry(ctx context.Context, op string, mod FlowMod) (int, error) {
	if mod.DPID == "" {
		return 0, fmt.Errorf("flowentry %s: dpid cannot be empty", op)
	}
	if mod.Match == nil {
		mod.Match = map[string]any{}
	}
	// An empty action list means drop; it must encode as [] not null
	if mod.Actions == nil {
		mod.Actions = []any{}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("op", op).
		SetBody(mod).
		Post("/stats/flowentry/{op}")
	if err != nil {
		return 0, fmt.Errorf("failed to reach controller at %s: %w", c.baseURL, err)
	}
	if !resp.IsSuccess() {
		return resp.StatusCode(), fmt.Errorf("flowentry %s on %s failed with status %d: %s",
			op, mod.DPID, resp.StatusCode(), resp.String())
	}

	logging.Info("Flowentry %s applied on switch %s (table %d, priority %d)", op, mod.DPID, mod.TableID, mod.Priority)
	return resp.StatusCode(), nil
}
