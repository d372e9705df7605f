// Switch registry endpoints.
//
// ENDPOINTS:
//   - GET /switches: registered switch names and flow counts
//   - GET /switches/:name: one registered switch record

package handlers

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/concave-dev/otto/internal/docstore"
	"github.com/concave-dev/otto/internal/netstate"
	"github.com/concave-dev/otto/internal/validate"
)

// SwitchRegistry is the registry surface the switch handlers read.
type SwitchRegistry interface {
	DumpAll(ctx context.Context) (map[string]netstate.Record, error)
	Get(ctx context.Context, name string, extra docstore.Filter) (netstate.Record, error)
	Len() int
}

// SwitchSummary is one entry of the switch listing.
type SwitchSummary struct {
	Name   string `json:"name"`
	Tables int    `json:"tables"`
	Flows  int    `json:"flows"`
}

// HandleSwitches lists every registered switch, sorted by name.
func HandleSwitches(registry SwitchRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := registry.DumpAll(c.Request.Context())
		if err != nil {
			respondInternal(c, "list switches", err)
			return
		}

		summaries := make([]SwitchSummary, 0, len(records))
		for name, rec := range records {
			summaries = append(summaries, SwitchSummary{
				Name:   name,
				Tables: len(rec.InstalledFlows()),
				Flows:  rec.FlowCount(),
			})
		}
		sortSummaries(summaries)

		respondData(c, gin.H{
			"switches": summaries,
			"count":    len(summaries),
		})
	}
}

// HandleSwitchByName returns one switch record.
func HandleSwitchByName(registry SwitchRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if err := validate.SwitchNameFormat(name); err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}

		rec, err := registry.Get(c.Request.Context(), name, nil)
		if errors.Is(err, netstate.ErrSwitchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "Switch not found",
				"name":    name,
			})
			return
		}
		if err != nil {
			respondInternal(c, "get switch", err)
			return
		}

		respondData(c, rec)
	}
}

// sortSummaries orders decimal datapath ids numerically.
func sortSummaries(s []SwitchSummary) {
	slices.SortFunc(s, func(a, b SwitchSummary) int {
		if len(a.Name) != len(b.Name) {
			return cmp.Compare(len(a.Name), len(b.Name))
		}
		return cmp.Compare(a.Name, b.Name)
	})
}
