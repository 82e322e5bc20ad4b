package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cvdnnn/clark-county-apn-scraper/lib/csvutil"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/scrapers/assessor"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/timezone"
	"github.com/cvdnnn/clark-county-apn-scraper/services/parcels"
	"github.com/cvdnnn/clark-county-apn-scraper/services/parcels/db"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type runResponse struct {
	Id         string `json:"id"`
	Status     string `json:"status"`
	Source     string `json:"source"`
	Total      int64  `json:"total"`
	Completed  int64  `json:"completed"`
	Succeeded  int64  `json:"succeeded"`
	Failed     int64  `json:"failed"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at,omitempty"`
}

func runToResponse(run db.Run) runResponse {
	return runResponse{
		Id:         run.ID,
		Status:     run.Status,
		Source:     run.Source,
		Total:      run.Total,
		Completed:  run.Completed,
		Succeeded:  run.Succeeded,
		Failed:     run.Failed,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}

type createRunRequest struct {
	Apns []string `json:"apns"`
}

// readRunInput accepts either a multipart upload carrying an apn list
// file, or a json body with an inline apn array.
func readRunInput(r *http.Request) ([]string, string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("missing file field: %w", err)
		}
		defer file.Close()

		apns, err := csvutil.ReadAPNsFrom(file, header.Filename, r.FormValue("column"))
		if err != nil {
			return nil, "", err
		}
		return apns, "upload:" + header.Filename, nil
	}

	var req createRunRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return nil, "", fmt.Errorf("invalid json body: %w", err)
	}
	return req.Apns, "api", nil
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	apns, source, err := readRunInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(apns) == 0 {
		writeError(w, http.StatusBadRequest, "no apns to scrape")
		return
	}

	s.runMu.Lock()
	if s.running {
		s.runMu.Unlock()
		writeError(w, http.StatusConflict, "a run is already in progress")
		return
	}
	s.running = true
	s.runMu.Unlock()

	runId, err := s.service.CreateRun(r.Context(), source, len(apns))
	if err != nil {
		s.runMu.Lock()
		s.running = false
		s.runMu.Unlock()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.runWg.Add(1)
	go func() {
		defer func() {
			s.runMu.Lock()
			s.running = false
			s.runMu.Unlock()
			s.runWg.Done()
		}()
		err := s.service.ExecuteRun(s.baseCtx, runId, apns)
		if err != nil {
			slog.Error("background run failed", "run_id", runId, "err", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"id":    runId,
		"total": len(apns),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]runResponse, len(runs))
	for i, run := range runs {
		out[i] = runToResponse(run)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runToResponse(run))
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	runId := chi.URLParam(r, "id")
	if _, err := s.service.GetRun(r.Context(), runId); errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	rows, err := s.service.ListRecords(r.Context(), runId)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	records := make([]*assessor.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, parcels.RecordFromRow(row))
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	runId := chi.URLParam(r, "id")
	if _, err := s.service.GetRun(r.Context(), runId); errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	rows, err := s.service.ListRecords(r.Context(), runId)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	records := make([]*assessor.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, parcels.RecordFromRow(row))
	}

	filename := fmt.Sprintf(
		"parcels_%s_%s.csv",
		runId, timezone.Now().Format("20060102_150405"),
	)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	err = csvutil.WriteRecordsTo(w, records)
	if err != nil {
		slog.Warn("failed to stream csv export", "run_id", runId, "err", err)
	}
}
