// FILE: internal/http/handler.go

// Package http serves the repertoire API over fiber.
package http

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"repertoire/internal/core"
	"repertoire/internal/metrics"
	"repertoire/internal/processor"
	"repertoire/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

const rateLimitRate = 10 // req/sec

const pgnContentType = "application/x-chess-pgn"

// HTTPHandler handles HTTP requests and routes them to the processor
type HTTPHandler struct {
	proc *processor.Processor
	svc  *service.Service
	log  *zap.Logger
}

func NewHTTPHandler(proc *processor.Processor, svc *service.Service, log *zap.Logger) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{proc: proc, svc: svc, log: log}
}

// NewFiberApp wires middleware and routes. A nil collector serves an empty
// /metrics page.
func NewFiberApp(proc *processor.Processor, svc *service.Service, m *metrics.Collector, devMode bool, log *zap.Logger) *fiber.App {
	h := NewHTTPHandler(proc, svc, log)

	// Write timeout exceeds the long-poll wait
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          35 * time.Second,
		IdleTimeout:           60 * time.Second,
		BodyLimit:             8 << 20,
		DisableStartupMessage: true,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Unlimited endpoints
	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	api := app.Group("/api/v1")

	// Login: 10 req/min per IP
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: "10 login attempts per minute allowed",
			})
		},
	}), contentTypeValidator, h.Login)

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	// Everything below needs a token once a secret is configured
	api.Use(authGate(svc))

	reps := api.Group("/repertoires")
	reps.Get("/", h.ListRepertoires)
	reps.Get("/:side", h.GetRepertoire)
	reps.Get("/:side/positions", h.GetPosition)
	reps.Post("/:side/moves", h.AddMove)
	reps.Delete("/:side/moves", h.DeleteMove)
	reps.Get("/:side/variations", h.GetVariations)
	reps.Get("/:side/descendants", h.GetDescendants)
	reps.Put("/:side/annotations", h.SetAnnotations)
	reps.Get("/:side/pgn", h.ExportPGN)
	reps.Post("/:side/pgn", h.ImportPGN)
	reps.Get("/:side/records", h.GetRecord)
	reps.Get("/:side/tags", h.ListTags)
	reps.Post("/:side/tags", h.AddTag)
	reps.Delete("/:side/tags", h.DeleteTag)
	reps.Get("/:side/wait", h.Wait)

	api.Post("/training/sessions", h.StartSession)
	api.Post("/training/events", h.RecordTraining)

	return app
}

// contentTypeValidator ensures POST and PUT requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodPost || method == fiber.MethodPut {
		contentType := c.Get("Content-Type")
		if contentType != "" && !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return c.Status(reqErr.status).JSON(reqErr.body)
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrInvalidRequest
			response.Details = "no such route"
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// statusFor maps an API error code to its HTTP status
func statusFor(code string) int {
	switch code {
	case core.ErrInvalidRequest, core.ErrInvalidFEN, core.ErrInvalidMove, core.ErrInvalidPGN:
		return fiber.StatusBadRequest
	case core.ErrPositionNotFound, core.ErrMoveNotFound, core.ErrTagNotFound:
		return fiber.StatusNotFound
	case core.ErrTagExists:
		return fiber.StatusConflict
	case core.ErrUnauthorized:
		return fiber.StatusUnauthorized
	case core.ErrStorageUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respond writes a processor response with status on success
func (h *HTTPHandler) respond(c *fiber.Ctx, resp processor.ProcessorResponse, status int) error {
	if !resp.Success {
		code := statusFor(resp.Error.Code)
		if code == fiber.StatusInternalServerError {
			h.log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("error", resp.Error.Error))
		}
		return c.Status(code).JSON(resp.Error)
	}
	return c.Status(status).JSON(resp.Data)
}

// Health check endpoint
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"storage": h.svc.GetStorageHealth(),
		"auth":    h.svc.AuthEnabled(),
	})
}

func (h *HTTPHandler) ListRepertoires(c *fiber.Ctx) error {
	return h.respond(c, h.proc.Execute(processor.NewListRepertoiresCommand()), fiber.StatusOK)
}

func (h *HTTPHandler) GetRepertoire(c *fiber.Ctx) error {
	return h.respond(c, h.proc.Execute(processor.NewGetRepertoireCommand(c.Params("side"))), fiber.StatusOK)
}

// GetPosition returns moves, parents and annotations of ?fen= (root when empty)
func (h *HTTPHandler) GetPosition(c *fiber.Ctx) error {
	cmd := processor.NewGetPositionCommand(c.Params("side"), c.Query("fen"))
	return h.respond(c, h.proc.Execute(cmd), fiber.StatusOK)
}

// AddMove inserts a move; 201 when new, 200 when already present
func (h *HTTPHandler) AddMove(c *fiber.Ctx) error {
	req, err := validatedBody[core.MoveRequest](c)
	if err != nil {
		return err
	}

	resp := h.proc.Execute(processor.NewAddMoveCommand(c.Params("side"), *req))
	status := fiber.StatusOK
	if resp.Success {
		if added, ok := resp.Data.(core.AddMoveResponse); ok && added.Added {
			status = fiber.StatusCreated
		}
	}
	return h.respond(c, resp, status)
}

func (h *HTTPHandler) DeleteMove(c *fiber.Ctx) error {
	san := c.Query("san")
	if san == "" {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "missing move",
			Code:    core.ErrInvalidRequest,
			Details: "san query parameter is required",
		})
	}
	cmd := processor.NewDeleteMoveCommand(c.Params("side"), c.Query("fen"), san)
	return h.respond(c, h.proc.Execute(cmd), fiber.StatusOK)
}

func (h *HTTPHandler) GetVariations(c *fiber.Ctx) error {
	cmd := processor.NewGetVariationsCommand(c.Params("side"), c.Query("fen"))
	return h.respond(c, h.proc.Execute(cmd), fiber.StatusOK)
}

func (h *HTTPHandler) GetDescendants(c *fiber.Ctx) error {
	cmd := processor.NewGetDescendantsCommand(c.Params("side"), c.Query("fen"))
	return h.respond(c, h.proc.Execute(cmd), fiber.StatusOK)
}

func (h *HTTPHandler) SetAnnotations(c *fiber.Ctx) error {
	req, err := validatedBody[core.AnnotationRequest](c)
	if err != nil {
		return err
	}
	cmd := processor.NewSetAnnotationsCommand(c.Params("side"), *req)
	return h.respond(c, h.proc.Execute(cmd), fiber.StatusOK)
}

// ExportPGN writes the subtree of ?fen= as one PGN game
func (h *HTTPHandler) ExportPGN(c *fiber.Ctx) error {
	resp := h.proc.Execute(processor.NewExportPGNCommand(c.Params("side"), c.Query("fen")))
	if !resp.Success {
		return h.respond(c, resp, fiber.StatusOK)
	}
	text, _ := resp.Data.(string)
	c.Set(fiber.HeaderContentType, pgnContentType)
	return c.SendString(text)
}

func (h *HTTPHandler) ImportPGN(c *fiber.Ctx) error {
	req, err := validatedBody[core.ImportPGNRequest](c)
	if err != nil {
		return err
	}
	cmd := processor.NewImportPGNCommand(c.Params("side"), *req)
	return h.respond(c, h.proc.Execute(cmd), fiber.StatusOK)
}

func (h *HTTPHandler) GetRecord(c *fiber.Ctx) error {
	san := c.Query("san")
	if san == "" {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "missing move",
			Code:    core.ErrInvalidRequest,
			Details: "san query parameter is required",
		})
	}
	cmd := processor.NewGetRecordCommand(c.Params("side"), c.Query("fen"), san)
	return h.respond(c, h.proc.Execute(cmd), fiber.StatusOK)
}

func (h *HTTPHandler) ListTags(c *fiber.Ctx) error {
	return h.respond(c, h.proc.Execute(processor.NewListTagsCommand(c.Params("side"))), fiber.StatusOK)
}

func (h *HTTPHandler) AddTag(c *fiber.Ctx) error {
	req, err := validatedBody[core.TagRequest](c)
	if err != nil {
		return err
	}
	cmd := processor.NewAddTagCommand(c.Params("side"), *req)
	return h.respond(c, h.proc.Execute(cmd), fiber.StatusCreated)
}

// DeleteTag removes ?path= and its subtags
func (h *HTTPHandler) DeleteTag(c *fiber.Ctx) error {
	cmd := processor.NewDeleteTagCommand(c.Params("side"), c.Query("path"))
	return h.respond(c, h.proc.Execute(cmd), fiber.StatusOK)
}

// Wait long-polls until the repertoire revision differs from ?revision=
func (h *HTTPHandler) Wait(c *fiber.Ctx) error {
	revision, err := strconv.ParseUint(c.Query("revision", "0"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid revision",
			Code:    core.ErrInvalidRequest,
			Details: "revision must be a non-negative integer",
		})
	}
	cmd := processor.NewWaitCommand(c.Context(), c.Params("side"), revision)
	return h.respond(c, h.proc.Execute(cmd), fiber.StatusOK)
}

func (h *HTTPHandler) StartSession(c *fiber.Ctx) error {
	req, err := validatedBody[core.SessionRequest](c)
	if err != nil {
		return err
	}
	cmd := processor.NewStartSessionCommand(userID(c), *req)
	return h.respond(c, h.proc.Execute(cmd), fiber.StatusCreated)
}

func (h *HTTPHandler) RecordTraining(c *fiber.Ctx) error {
	req, err := validatedBody[core.TrainingEventRequest](c)
	if err != nil {
		return err
	}
	cmd := processor.NewRecordTrainingCommand(userID(c), *req)
	return h.respond(c, h.proc.Execute(cmd), fiber.StatusOK)
}

// Login exchanges credentials for a bearer token
func (h *HTTPHandler) Login(c *fiber.Ctx) error {
	if !h.svc.AuthEnabled() {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "authentication is disabled",
			Code:  core.ErrInvalidRequest,
		})
	}

	var req core.LoginRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	resp := h.proc.Execute(processor.NewLoginCommand(req))
	if !resp.Success {
		h.log.Info("login rejected", zap.String("username", req.Username), zap.String("ip", c.IP()))
		// Unknown user and wrong password look the same
		return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
			Error: "invalid credentials",
			Code:  core.ErrUnauthorized,
		})
	}
	return c.JSON(resp.Data)
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}
