// Package server exposes read-only diagnostics over the dataflow graph:
// node listings with operator descriptions, planner flags, and column
// provenance probes. It is an observability surface, not a data plane.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"

	"github.com/strata-db/strata/dataflow"
)

type nodeView struct {
	Address     string   `json:"address"`
	Name        string   `json:"name"`
	Fields      []string `json:"fields"`
	Description string   `json:"description"`
	Base        bool     `json:"base"`
	Materialize bool     `json:"materialize,omitempty"`
	WillQuery   bool     `json:"will_query,omitempty"`
}

type provenanceView struct {
	Node   string `json:"node"`
	Column int    `json:"column"`
}

// Router builds the diagnostics routes over a committed graph.
func Router(g *dataflow.Graph) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/health"))
	router.Use(middleware.CleanPath)
	router.Use(middleware.RequestID)

	router.Get("/graph", func(w http.ResponseWriter, r *http.Request) {
		views := make([]nodeView, 0, g.Size())
		for _, n := range g.Nodes() {
			v := nodeView{
				Address: n.Address().String(),
				Name:    n.Name(),
				Fields:  n.Fields(),
			}
			if op := n.Ingredient(); op != nil {
				v.Description = op.Description()
				v.Materialize = op.ShouldMaterialize()
				v.WillQuery = op.WillQuery(op.ShouldMaterialize())
			} else {
				v.Base = true
				v.Description = "B"
			}
			views = append(views, v)
		}
		writeJSON(w, http.StatusOK, views)
	})

	router.Get("/graph/{node}/resolve/{col}", func(w http.ResponseWriter, r *http.Request) {
		node, err := strconv.Atoi(chi.URLParam(r, "node"))
		if err != nil {
			http.Error(w, "bad node index", http.StatusBadRequest)
			return
		}
		col, err := strconv.Atoi(chi.URLParam(r, "col"))
		if err != nil {
			http.Error(w, "bad column index", http.StatusBadRequest)
			return
		}

		n, ok := g.Node(dataflow.GlobalAddress(node))
		if !ok {
			http.Error(w, "no such node", http.StatusNotFound)
			return
		}
		op := n.Ingredient()
		if op == nil {
			http.Error(w, "base tables have no provenance", http.StatusUnprocessableEntity)
			return
		}
		if col < 0 || col >= len(n.Fields()) {
			http.Error(w, "column out of range", http.StatusNotFound)
			return
		}

		sources := op.Resolve(col)
		views := make([]provenanceView, 0, len(sources))
		for _, nc := range sources {
			views = append(views, provenanceView{Node: nc.Node.String(), Column: nc.Column})
		}
		writeJSON(w, http.StatusOK, views)
	})

	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("error encoding a diagnostics response")
	}
}

// Run serves the diagnostics router until the listener fails.
func Run(config *koanf.Koanf, g *dataflow.Graph) {
	serverPort := config.String("port")
	log.Info().Msgf("Running the diagnostics server on port: %s", serverPort)
	log.Error().Msg(http.ListenAndServe(":"+serverPort, Router(g)).Error())
}
