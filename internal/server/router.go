package server

import "net/http"

// NewRouter wires HTTP routes to the server's handlers.
func NewRouter(s *Server) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/decode", s.handleDecode)
	mux.HandleFunc("/validate", s.handleValidate)
	mux.HandleFunc("/tags", s.handleTags)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}
