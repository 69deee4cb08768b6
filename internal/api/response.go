package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Response is the envelope for every successful JSON reply.
type Response struct {
	Data  any               `json:"data"`
	Links map[string]string `json:"links,omitempty"`
	Meta  map[string]any    `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Errors []Error `json:"errors"`
}

type Error struct {
	Status string `json:"status,omitempty"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) sendResponse(w http.ResponseWriter, response Response) {
	s.sendStatus(w, http.StatusOK, response)
}

func (s *Server) sendStatus(w http.ResponseWriter, statusCode int, response Response) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		log.Error().Err(err).Msg("marshal response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(jsonData)
}

func (s *Server) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Errors: []Error{
			{
				Status: strconv.Itoa(statusCode),
				Title:  http.StatusText(statusCode),
				Detail: message,
			},
		},
	}

	jsonData, err := json.Marshal(response)
	if err != nil {
		log.Error().Err(err).Msg("marshal error response")
		return
	}

	w.Write(jsonData)
}

// decodeBody reads an optional JSON body. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
