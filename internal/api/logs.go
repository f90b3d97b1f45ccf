package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/cagesvc/internal/logging"
)

// LogsResponse carries recent log entries from the ring buffer.
type LogsResponse struct {
	Body struct {
		Entries []logging.Entry `json:"entries"`
		Count   int             `json:"count" doc:"Number of entries returned"`
	}
}

// LogsInput selects how much history to return.
type LogsInput struct {
	Limit int `query:"limit" default:"0" minimum:"0" doc:"Return at most this many of the newest entries; 0 returns everything buffered"`
}

func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent Logs",
		Description: "Buffered log history, oldest first",
		Tags:        []string{"logs"},
	}, func(ctx context.Context, input *LogsInput) (*LogsResponse, error) {
		entries := s.options.Buffer.ReadAll()
		if input.Limit > 0 && len(entries) > input.Limit {
			entries = entries[len(entries)-input.Limit:]
		}

		resp := &LogsResponse{}
		resp.Body.Entries = entries
		resp.Body.Count = len(entries)
		return resp, nil
	})
}
