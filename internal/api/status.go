package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/cagesvc/internal/service"
	"github.com/smazurov/cagesvc/internal/version"
)

// StatusData describes the lifecycle of the managed cage.
type StatusData struct {
	service.Info
	ConfigStale bool   `json:"config_stale" doc:"True when the config file changed after start"`
	Version     string `json:"version" example:"1.2.0" doc:"cagesvc version"`
}

// StatusResponse wraps StatusData for Huma.
type StatusResponse struct {
	Body StatusData
}

// HealthResponse is the trivial liveness reply.
type HealthResponse struct {
	Body struct {
		Status string `json:"status" example:"ok"`
	}
}

func (s *Server) registerStatusRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
	}, func(ctx context.Context, _ *struct{}) (*HealthResponse, error) {
		resp := &HealthResponse{}
		resp.Body.Status = "ok"
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Service Status",
		Description: "Lifecycle state of the caged process",
		Tags:        []string{"service"},
	}, func(ctx context.Context, _ *struct{}) (*StatusResponse, error) {
		data := StatusData{
			Info:    s.options.Controller.Info(),
			Version: version.Get().Version,
		}
		if s.options.Stale != nil {
			data.ConfigStale = s.options.Stale()
		}
		return &StatusResponse{Body: data}, nil
	})
}
