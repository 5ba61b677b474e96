package backend

import (
	"bytes"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/goliatone/go-instructform/internal/export"
	"github.com/goliatone/go-instructform/internal/store"
)

// Liveness reports that the process is serving.
func (s *Server) Liveness(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

// Readiness reports whether the store answers.
func (s *Server) Readiness(c fiber.Ctx) error {
	if err := s.repo.Ping(c.Context()); err != nil {
		s.logger.Warn("readiness check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

type createdResponse struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	ReceivedAt time.Time `json:"received_at"`
}

// CreateInstruction accepts a submission. The body is either multipart with
// the JSON document in the "payload" field, a bare JSON document, or a
// multipart post of individual form fields. Files come in "attachments[]".
func (s *Server) CreateInstruction(c fiber.Ctx) error {
	in, err := s.decode(c)
	if err != nil {
		return err
	}

	sub, err := s.repo.Save(c.Context(), store.Submission{
		ID:              in.payload.SubmissionID,
		SubmittedAt:     in.payload.SubmittedAt,
		ReceivedAt:      s.now(),
		ClientName:      in.payload.ClientName,
		ClientEmail:     in.payload.ClientEmail,
		PropertyAddress: in.payload.PropertyAddress,
		Payload:         in.raw,
		Attachments:     in.files,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return reject(fiber.StatusConflict, "This instruction has already been received.", nil)
		}
		return err
	}

	s.logger.Info("instruction received",
		zap.String("id", sub.ID),
		zap.String("client", sub.ClientName),
		zap.Int("attachments", len(sub.Attachments)),
	)
	return c.Status(fiber.StatusCreated).JSON(createdResponse{
		ID:         sub.ID,
		Status:     "received",
		ReceivedAt: sub.ReceivedAt,
	})
}

// GetInstruction returns one stored submission with its attachment list.
func (s *Server) GetInstruction(c fiber.Ctx) error {
	sub, err := s.repo.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Instruction not found")
		}
		return err
	}
	return c.JSON(sub)
}

// ListInstructions returns the newest submissions. ?limit caps the count.
func (s *Server) ListInstructions(c fiber.Ctx) error {
	limit, err := queryLimit(c, 50)
	if err != nil {
		return err
	}
	list, err := s.repo.List(c.Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"instructions": list})
}

// ExportInstructions returns the submissions as an xlsx workbook, newest
// first. Without ?limit every submission is exported.
func (s *Server) ExportInstructions(c fiber.Ctx) error {
	limit, err := queryLimit(c, 0)
	if err != nil {
		return err
	}
	list, err := s.repo.List(c.Context(), limit)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, list); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="instructions.xlsx"`)
	return c.Send(buf.Bytes())
}

func queryLimit(c fiber.Ctx, fallback int) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "limit must be a non-negative integer")
	}
	return n, nil
}
