package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/justinas/alice"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	contractx "github.com/tualang-ai/tualang/agent/contract"
	plannode "github.com/tualang-ai/tualang/agent/nodes"
)

// Planner is the slice of the planner service the HTTP layer needs.
type Planner interface {
	PlanItinerary(ctx context.Context, in plannode.GraphInput) (contractx.Itinerary, error)
	Answer(ctx context.Context, question string) (string, error)
	LoadItinerary(ctx context.Context, id string) (contractx.Itinerary, error)
}

type planRequest struct {
	Query       string `json:"query"`
	Language    string `json:"language,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	PartySize   int    `json:"party_size,omitempty"`
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	planner Planner
	server  *http.Server
	logger  zerolog.Logger
}

func New(planner Planner, port int, logger zerolog.Logger) *Server {
	s := &Server{planner: planner, logger: logger}

	r := chi.NewRouter()
	r.Use(logMiddleware(logger))

	r.Post("/itineraries", s.handlePlan)
	r.Get("/itineraries/{id}", s.handleGet)
	r.Post("/ask", s.handleAsk)

	s.server = &http.Server{
		Addr:    fmt.Sprint(":", port),
		Handler: r,
	}
	return s
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := unmarshalRequestBody(r, &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "unable to parse body"})
		return
	}

	it, err := s.planner.PlanItinerary(r.Context(), plannode.GraphInput{
		Query:       req.Query,
		Language:    req.Language,
		Origin:      req.Origin,
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		PartySize:   req.PartySize,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, it)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	it, err := s.planner.LoadItinerary(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, it)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := unmarshalRequestBody(r, &req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "unable to parse body"})
		return
	}

	answer, err := s.planner.Answer(r.Context(), req.Question)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, askResponse{Answer: answer})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, contractx.ErrValidation):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, contractx.ErrItineraryNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, contractx.ErrNoItinerary):
		w.WriteHeader(http.StatusBadGateway)
	default:
		s.logger.Error().Err(err).Msg("request failed")
		w.WriteHeader(http.StatusInternalServerError)
	}
	render.JSON(w, r, errorResponse{Error: err.Error()})
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http server starting")
	err := s.server.ListenAndServe()
	if err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func logMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	c := alice.New()
	c = c.Append(hlog.NewHandler(logger))
	c = c.Append(hlog.RemoteAddrHandler("ip"))
	c = c.Append(hlog.UserAgentHandler("agent"))
	c = c.Append(hlog.RequestIDHandler("req_id", "Request-Id"))
	c = c.Append(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("verb", r.Method).
			Stringer("url", r.URL).
			Int("size", size).
			Int("status", status).
			Int64("duration", duration.Milliseconds()).
			Msg("REQ")
	}))
	return c.Then
}

func unmarshalRequestBody(req *http.Request, output any) error {
	if req.Body == nil {
		return errors.New("invalid body in request")
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}
	if err = req.Body.Close(); err != nil {
		return err
	}
	return json.Unmarshal(body, output)
}
