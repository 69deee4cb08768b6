package api

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"bus-tracker/internal/gtfsrt"
)

// handleVehiclePositions serves the tracked buses as a GTFS-realtime feed.
// ?format=json renders it as protojson.
func (s *Server) handleVehiclePositions(w http.ResponseWriter, r *http.Request) {
	feed := gtfsrt.VehiclePositions(s.manager.Views(), s.now())

	var (
		b           []byte
		err         error
		contentType = "application/x-protobuf"
	)
	if r.URL.Query().Get("format") == "json" {
		b, err = gtfsrt.MarshalJSON(feed)
		contentType = "application/json"
	} else {
		b, err = gtfsrt.Marshal(feed)
	}
	if err != nil {
		log.Error().Err(err).Msg("marshal vehicle positions")
		s.sendErrorResponse(w, http.StatusInternalServerError, "Could not encode feed")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(b)
}
