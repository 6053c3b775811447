package coredata

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// maxPayloadBytes bounds submitted batch payloads (a full daily push for
// every state is well under this).
const maxPayloadBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeIngestError maps coordinator errors onto status codes. Validation
// and configuration failures are the caller's fault; the aggregated message
// is returned as the response body so one response reports every problem.
func writeIngestError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, ErrInvalidTotalTestResultsSource):
		writeJSON(w, http.StatusBadRequest, err.Error())
	default:
		http.Error(w, "Failed to ingest batch: "+err.Error(), http.StatusInternalServerError)
	}
}

func ingestHandler(revision bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxPayloadBytes)
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "payload too large or unreadable", http.StatusRequestEntityTooLarge)
			return
		}
		defer r.Body.Close()

		var p Payload
		if err := json.Unmarshal(raw, &p); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		b, err := coordinator.Ingest(r.Context(), p, raw, revision)
		if err != nil {
			writeIngestError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"batch": b})
	}
}

// PostBatchesHandler ingests a bulk payload as a new draft batch.
var PostBatchesHandler = ingestHandler(false)

// PostEditBatchesHandler ingests a revision batch that publishes atomically.
var PostEditBatchesHandler = ingestHandler(true)

func PublishBatchHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid batch ID", http.StatusBadRequest)
		return
	}

	b, err := coordinator.Publish(r.Context(), id)
	switch {
	case errors.Is(err, ErrBatchNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrAlreadyPublished):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		http.Error(w, "Failed to publish batch: "+err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusCreated, b)
	}
}

func GetBatchesHandler(w http.ResponseWriter, r *http.Request) {
	batches, err := store.ListBatches()
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"batches": batches})
}

func GetBatchHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid batch ID", http.StatusBadRequest)
		return
	}

	b, err := store.GetBatch(id)
	if errors.Is(err, ErrBatchNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func StatesInfoHandler(w http.ResponseWriter, r *http.Request) {
	states, err := store.ListStates()
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, states)
}

// EditStateHandler applies a metadata edit to one state. Bad enum values
// for totalTestResultsSource are rejected here, before anything is written.
func EditStateHandler(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	edit, err := parseStateEdit(raw)
	if err != nil {
		if errors.Is(err, ErrInvalidTotalTestResultsSource) || errors.Is(err, ErrStateNotFound) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	st, err := store.UpsertState(edit)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func previewParam(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("preview"))
	return err == nil && v
}

// viewRows attaches derived values to rows using the current state registry.
func viewRows(rows []CoreData) ([]CoreDataView, error) {
	states, err := store.statesByCode()
	if err != nil {
		return nil, err
	}
	views := make([]CoreDataView, 0, len(rows))
	for _, row := range rows {
		var statePtr *State
		if st, ok := states[row.State]; ok {
			statePtr = &st
		}
		views = append(views, row.View(statePtr))
	}
	return views, nil
}

func StatesDailyHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := store.StatesDaily("", previewParam(r))
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	views, err := viewRows(rows)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func StateDailyHandler(w http.ResponseWriter, r *http.Request) {
	state := strings.ToUpper(chi.URLParam(r, "state"))
	rows, err := store.StatesDaily(state, previewParam(r))
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(rows) == 0 {
		// likely state not found
		http.Error(w, "States Daily data unavailable for state "+state, http.StatusNotFound)
		return
	}
	views, err := viewRows(rows)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func USDailyHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := store.USDaily(previewParam(r))
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
