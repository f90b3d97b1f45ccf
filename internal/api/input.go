package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/cagesvc/internal/service"
)

// InputRequest carries data destined for the cage's standard input.
type InputRequest struct {
	Body struct {
		Data string `json:"data" minLength:"1" doc:"Bytes to write to the cage's stdin"`
	}
}

// InputResponse reports how much of the payload was accepted.
type InputResponse struct {
	Body struct {
		Written int `json:"written" doc:"Bytes accepted; writes are capped per call, send the remainder again"`
	}
}

func (s *Server) registerInputRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "write-input",
		Method:      http.MethodPost,
		Path:        "/api/input",
		Summary:     "Write Input",
		Description: "Write bytes to the caged process's standard input",
		Tags:        []string{"service"},
		Errors:      []int{409},
	}, func(ctx context.Context, input *InputRequest) (*InputResponse, error) {
		n, err := s.options.Controller.Write([]byte(input.Body.Data))
		if err != nil {
			if errors.Is(err, service.ErrNotRunning) {
				return nil, huma.Error409Conflict("service is not running", err)
			}
			return nil, huma.Error500InternalServerError("failed to write input", err)
		}

		resp := &InputResponse{}
		resp.Body.Written = n
		return resp, nil
	})
}
