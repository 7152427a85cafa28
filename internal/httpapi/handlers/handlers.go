package handlers

import (
	"chatshot/internal/pkg/logger"
	"chatshot/internal/render"
	"chatshot/internal/sink"
)

type Deps struct {
	Service *render.Service
	Sink    *sink.Sink
	Log     *logger.Logger
}

type Handler struct {
	svc  *render.Service
	sink *sink.Sink
	log  *logger.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		svc:  d.Service,
		sink: d.Sink,
		log:  d.Log,
	}
}
