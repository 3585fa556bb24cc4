package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/clinmodel/eclbridge/cmd/eclbridge/conversion"
	"github.com/clinmodel/eclbridge/cmd/eclbridge/ecl"
)

// Runner runs a full conversion batch on request.
type Runner interface {
	RunBatch() (conversion.Stats, error)
}

// Router exposes the conversion engine over HTTP: ad-hoc descriptor
// conversion for modelers, a batch trigger, and the stats of the last run.
type Router struct {
	runner Runner
	log    zerolog.Logger

	mutex     sync.RWMutex
	lastStats conversion.Stats
}

// NewRouter creates a Router. runner may be nil, in which case the batch
// endpoint reports that no model store is configured.
func NewRouter(runner Runner, log zerolog.Logger) *Router {
	return &Router{runner: runner, log: log}
}

// SetupRoutes builds the HTTP handler.
func (rt *Router) SetupRoutes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/convert", rt.handleConvert).Methods(http.MethodPost)
	r.HandleFunc("/run", rt.handleRun).Methods(http.MethodPost)
	r.HandleFunc("/stats", rt.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/rules", rt.handleRules).Methods(http.MethodGet)
	return r
}

type convertRequest struct {
	ValueSets string `json:"valueSets"`
}

type convertResponse struct {
	Matched   bool   `json:"matched"`
	Rule      string `json:"rule,omitempty"`
	SnomedECL string `json:"snomedECL,omitempty"`
}

func (rt *Router) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	expr, rule, ok := ecl.ConvertWithRule(req.ValueSets)
	resp := convertResponse{Matched: ok, Rule: rule, SnomedECL: expr}

	rt.log.Debug().
		Bool("matched", ok).
		Str("rule", rule).
		Msg("Ad-hoc conversion request")

	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) handleRun(w http.ResponseWriter, r *http.Request) {
	if rt.runner == nil {
		http.Error(w, "no model store configured", http.StatusServiceUnavailable)
		return
	}

	stats, err := rt.runner.RunBatch()
	if err != nil {
		rt.log.Error().Err(err).Msg("Batch conversion failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rt.mutex.Lock()
	rt.lastStats = stats
	rt.mutex.Unlock()

	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) handleStats(w http.ResponseWriter, r *http.Request) {
	rt.mutex.RLock()
	stats := rt.lastStats
	rt.mutex.RUnlock()

	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) handleRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"rules": ecl.RuleNames()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
