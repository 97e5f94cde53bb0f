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

package api

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/we-are-mono/kraken/daemon/logger"
	"github.com/we-are-mono/kraken/device"
)

// waitTimeout bounds a blocking update_indicator read.
const waitTimeout = 30 * time.Second

func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"devices":   len(s.devices.Devices()),
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) listDevices(c *fiber.Ctx) error {
	devices := s.devices.Devices()
	infos := make([]device.Info, 0, len(devices))
	for _, d := range devices {
		infos = append(infos, d.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return c.JSON(infos)
}

func deviceNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no such device: " + c.Params("id")})
}

func (s *Server) getStatus(c *fiber.Ctx) error {
	d, ok := s.devices.Device(c.Params("id"))
	if !ok {
		return deviceNotFound(c)
	}
	return c.JSON(d.Info())
}

func (s *Server) listAttributes(c *fiber.Ctx) error {
	if _, ok := s.devices.Device(c.Params("id")); !ok {
		return deviceNotFound(c)
	}
	return c.JSON(device.Attributes())
}

func (s *Server) getAttribute(c *fiber.Ctx) error {
	d, ok := s.devices.Device(c.Params("id"))
	if !ok {
		return deviceNotFound(c)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), waitTimeout)
	defer cancel()

	name := c.Params("name")
	value, err := d.Get(ctx, name)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"device": d.ID(), "name": name, "value": value})
}

func (s *Server) setAttribute(c *fiber.Ctx) error {
	d, ok := s.devices.Device(c.Params("id"))
	if !ok {
		return deviceNotFound(c)
	}

	name := c.Params("name")
	value := strings.TrimSpace(string(c.Body()))
	if err := d.Set(name, value); err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	s.log.Info("Attribute set over HTTP",
		logger.Field{Key: "device", Value: d.ID()},
		logger.Field{Key: "attribute", Value: name})
	return c.JSON(fiber.Map{"device": d.ID(), "name": name, "value": value})
}

// statusFor maps attribute errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, device.ErrUnknownAttribute):
		return fiber.StatusNotFound
	case errors.Is(err, device.ErrReadOnly), errors.Is(err, device.ErrWriteOnly):
		return fiber.StatusMethodNotAllowed
	case errors.Is(err, device.ErrClosed):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusBadRequest
	}
}
