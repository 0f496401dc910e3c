package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/gguflens/internal/catalog"
	"github.com/samcharles93/gguflens/internal/gguf"
	"github.com/samcharles93/gguflens/internal/logger"
	"github.com/samcharles93/gguflens/internal/report"
	"github.com/samcharles93/gguflens/internal/version"
)

// DefaultMaxUploadBytes caps POST /v1/decode bodies when Config leaves it unset.
const DefaultMaxUploadBytes = 64 << 20

// Config configures the HTTP handlers. Decode.MaxDepth is the deepest
// nesting any request may ask for. Zero or a negative value means
// gguf.DefaultMaxDepth.
type Config struct {
	MaxUploadBytes int64
	Decode         gguf.Options
	Logger         logger.Logger
}

// Server serves the decode and catalog routes.
type Server struct {
	catalog  *catalog.Catalog
	cfg      Config
	log      logger.Logger
	maxDepth int
	clock    func() time.Time
}

// NewServer builds the HTTP handlers. cat may be nil, in which case catalog
// routes answer 503.
func NewServer(cat *catalog.Catalog, cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	maxDepth := cfg.Decode.MaxDepth
	if maxDepth <= 0 {
		if maxDepth < 0 {
			log.Warn("unlimited array nesting is not served; using the default limit", "max_depth", gguf.DefaultMaxDepth)
		}
		maxDepth = gguf.DefaultMaxDepth
	}
	return &Server{
		catalog:  cat,
		cfg:      cfg,
		log:      log,
		maxDepth: maxDepth,
		clock:    time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.Use(requestID)
	e.Use(serverHeader)

	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/decode", s.handleDecode)
	e.GET("/v1/catalog", s.handleListCatalog)
	e.GET("/v1/catalog/:id", s.handleGetCatalog)
}

func serverHeader(next echo.HandlerFunc) echo.HandlerFunc {
	ua := version.UserAgent()
	return func(c *echo.Context) error {
		c.Response().Header().Set("Server", ua)
		return next(c)
	}
}

type healthResponse struct {
	Status  string       `json:"status"`
	Version version.Info `json:"version"`
	Catalog bool         `json:"catalog"`
	Time    time.Time    `json:"time"`
}

func (s *Server) handleHealth(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Resolve(),
		Catalog: s.catalog != nil,
		Time:    s.clock().UTC(),
	})
}

// DecodeResponse is the body of a successful POST /v1/decode.
type DecodeResponse struct {
	RequestID string        `json:"request_id"`
	Size      int64         `json:"size"`
	Report    report.Report `json:"report"`
}

// handleDecode decodes the raw request body. Query parameters:
// name, expand_arrays, array_limit, tensors, max_depth, allow_bad_magic.
// max_depth may only tighten the server limit. Error kinds follow
// gguf.Kind; a body cut inside a string or array payload reports
// implausible_length rather than truncated, so clients treating both as
// short input should match on either.
func (s *Server) handleDecode(c *echo.Context) error {
	req := c.Request()
	limit := s.cfg.MaxUploadBytes
	if req.ContentLength > limit {
		return s.tooLarge(c)
	}

	opts := s.cfg.Decode
	opts.Logger = s.log.With("request_id", requestIDOf(c))
	ropts := report.Options{Tensors: -1}
	var err error
	if opts.AllowBadMagic, err = queryBool(c, "allow_bad_magic"); err != nil {
		return writeBadRequest(c, "allow_bad_magic", err.Error())
	}
	if s.cfg.Decode.AllowBadMagic {
		opts.AllowBadMagic = true
	}
	if opts.MaxDepth, err = queryInt(c, "max_depth", s.maxDepth); err != nil {
		return writeBadRequest(c, "max_depth", err.Error())
	}
	if opts.MaxDepth <= 0 || opts.MaxDepth > s.maxDepth {
		return writeBadRequest(c, "max_depth", fmt.Sprintf("max_depth must be between 1 and %d", s.maxDepth))
	}
	if ropts.ExpandArrays, err = queryBool(c, "expand_arrays"); err != nil {
		return writeBadRequest(c, "expand_arrays", err.Error())
	}
	if ropts.ArrayLimit, err = queryInt(c, "array_limit", 0); err != nil {
		return writeBadRequest(c, "array_limit", err.Error())
	}
	if ropts.Tensors, err = queryInt(c, "tensors", -1); err != nil {
		return writeBadRequest(c, "tensors", err.Error())
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, limit+1))
	if err != nil {
		return writeBadRequest(c, "", fmt.Sprintf("read body: %v", err))
	}
	if int64(len(body)) > limit {
		return s.tooLarge(c)
	}

	f, err := gguf.DecodeBytes(body, opts)
	if err != nil {
		s.log.Info("decode rejected", "request_id", requestIDOf(c), "size", len(body), "kind", gguf.Kind(err))
		return writeError(c, http.StatusUnprocessableEntity, decodeErrorBody(err))
	}

	return writeJSON(c, http.StatusOK, DecodeResponse{
		RequestID: requestIDOf(c),
		Size:      int64(len(body)),
		Report:    report.FromFile(c.QueryParam("name"), f, ropts),
	})
}

func (s *Server) tooLarge(c *echo.Context) error {
	return writeError(c, http.StatusRequestEntityTooLarge, ErrorBody{
		Type:    "invalid_request_error",
		Message: fmt.Sprintf("body exceeds %d bytes", s.cfg.MaxUploadBytes),
	})
}

type listResponse struct {
	Object string          `json:"object"`
	Data   []catalog.Entry `json:"data"`
}

func (s *Server) handleListCatalog(c *echo.Context) error {
	if s.catalog == nil {
		return s.noCatalog(c)
	}
	entries, err := s.catalog.List()
	if err != nil {
		return s.serverError(c, err)
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	return writeJSON(c, http.StatusOK, listResponse{Object: "list", Data: entries})
}

func (s *Server) handleGetCatalog(c *echo.Context) error {
	if s.catalog == nil {
		return s.noCatalog(c)
	}
	id := c.Param("id")
	e, err := s.catalog.GetByID(id)
	if errors.Is(err, catalog.ErrNotFound) {
		return writeNotFound(c, "catalog entry not found: "+id)
	}
	if err != nil {
		return s.serverError(c, err)
	}
	return writeJSON(c, http.StatusOK, e)
}

func (s *Server) noCatalog(c *echo.Context) error {
	return writeError(c, http.StatusServiceUnavailable, ErrorBody{
		Type:    "unavailable_error",
		Message: "catalog not configured",
	})
}

func (s *Server) serverError(c *echo.Context, err error) error {
	s.log.Error("request failed", "request_id", requestIDOf(c), "error", err)
	return writeError(c, http.StatusInternalServerError, ErrorBody{
		Type:    "server_error",
		Message: err.Error(),
	})
}
