// Copyright (C) 2025 Mono Technologies Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.

// Package api serves the device attribute surface over HTTP and exports
// telemetry to Prometheus.
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/we-are-mono/kraken/daemon/logger"
	"github.com/we-are-mono/kraken/device"
)

// DefaultListen is used when the configuration names no address.
const DefaultListen = "127.0.0.1:9062"

// Devices is the set of attached coolers the API serves.
type Devices interface {
	Devices() []*device.Device
	Device(id string) (*device.Device, bool)
}

// Server is the HTTP front end.
type Server struct {
	app      *fiber.App
	devices  Devices
	registry *prometheus.Registry
	log      logger.Logger
}

// NewServer builds the routes. Nothing listens until Start.
func NewServer(devices Devices, log logger.Logger) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		ServerHeader:          "kraken",
		AppName:               "kraken",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,PUT,OPTIONS",
	}))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		NewCollector(devices),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		app:      app,
		devices:  devices,
		registry: registry,
		log:      log.With(logger.Field{Key: "component", Value: "api"}),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.app.Group("/api")

	api.Get("/health", s.healthCheck)
	api.Get("/devices", s.listDevices)
	api.Get("/devices/:id/status", s.getStatus)
	api.Get("/devices/:id/attributes", s.listAttributes)
	api.Get("/devices/:id/attributes/:name", s.getAttribute)
	api.Put("/devices/:id/attributes/:name", s.setAttribute)

	s.app.Get("/metrics", adaptor.HTTPHandler(
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
}

// App exposes the fiber application, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens on address and blocks until Shutdown.
func (s *Server) Start(address string) error {
	if address == "" {
		address = DefaultListen
	}
	s.log.Info("HTTP API listening", logger.Field{Key: "address", Value: address})
	return s.app.Listen(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
