// Package names generates human-readable "adjective-noun" labels for intent
// processor workers so pool activity is easy to follow in logs and in the
// /api/v1/pool listing.
//
// Labels are display-only. Worker identity is the uuid carried by each
// processor; two workers may share a label.
//
// Examples: "steady-switch", "eager-packet", "patient-openflow"
package names

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var adjectives = []string{
	"agile", "alert", "ample", "brisk", "calm",
	"candid", "careful", "clever", "curious", "daring",
	"deft", "diligent", "eager", "earnest", "exact",
	"fair", "fluent", "focused", "frank", "gentle",
	"glad", "honest", "humble", "keen", "kind",
	"lucid", "mellow", "mindful", "modest", "nimble",
	"noble", "patient", "placid", "plucky", "polite",
	"prompt", "quick", "quiet", "ready", "serene",
	"sharp", "shrewd", "sincere", "smart", "steady",
	"stoic", "sturdy", "swift", "tidy", "upbeat",
	"vigilant", "vivid", "wary", "wise", "zealous",
}

var nouns = []string{
	// Forwarding plane
	"switch", "bridge", "router", "hub", "port",
	"link", "trunk", "uplink", "fabric", "spine",
	"leaf", "datapath", "pipeline", "table", "meter",

	// Packets and headers
	"packet", "frame", "header", "payload", "vlan",
	"label", "cookie", "tuple", "prefix", "subnet",

	// Control plane
	"openflow", "controller", "agent", "intent", "policy",
	"rule", "action", "match", "flow", "topology",
	"neighbor", "beacon", "probe", "heartbeat", "tunnel",
}

// Generate returns a random "adjective-noun" label.
func Generate() string {
	adjective := adjectives[randomIndex(len(adjectives))]
	noun := nouns[randomIndex(len(nouns))]
	return fmt.Sprintf("%s-%s", adjective, noun)
}

// ForModel returns a label prefixed with the model identity, e.g.
// "gpt-4o/steady-switch".
func ForModel(model string) string {
	return model + "/" + Generate()
}

// randomIndex picks an index in [0, max) using crypto/rand, falling back to 0.
func randomIndex(max int) int {
	if max <= 0 {
		return 0
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}

	return int(n.Int64())
}
