package netstate

import (
	"github.com/concave-dev/otto/internal/docstore"
)

// Field names of a switch record.
const (
	FieldName           = "name"
	FieldInstalledFlows = "installedFlows"
)

// Record is a switch document: the datapath id under "name", flow tables
// under "installedFlows" (table id -> ordered flow entries) and any other
// fields the controller reported.
type Record docstore.Document

// NewRecord builds a record for name with the given flow tables.
func NewRecord(name string, installedFlows map[string][]map[string]any) Record {
	tables := make(map[string]any, len(installedFlows))
	for table, flows := range installedFlows {
		entries := make([]any, len(flows))
		for i, f := range flows {
			entries[i] = f
		}
		tables[table] = entries
	}
	return Record{FieldName: name, FieldInstalledFlows: tables}
}

// Name returns the switch datapath id, or "" if the record has none.
func (r Record) Name() string {
	name, _ := r[FieldName].(string)
	return name
}

// InstalledFlows returns the flow tables keyed by table id, or nil.
func (r Record) InstalledFlows() map[string]any {
	flows, _ := r[FieldInstalledFlows].(map[string]any)
	return flows
}

// FlowCount returns the number of flow entries across all tables.
func (r Record) FlowCount() int {
	n := 0
	for _, table := range r.InstalledFlows() {
		if entries, ok := table.([]any); ok {
			n += len(entries)
		}
	}
	return n
}
