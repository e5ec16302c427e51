package httpapi

import (
	"net/http"

	"github.com/LordofCoding06/M321-Distributed-Systems/internal/config"
)

func NewServer(cfg config.Config, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: requestLogger(mux),
	}
}
