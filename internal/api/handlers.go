package api

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arx-deidentifier/arx-sub007/internal/engine"
	"github.com/arx-deidentifier/arx-sub007/internal/lattice"
	"github.com/arx-deidentifier/arx-sub007/internal/models"
)

var validate = validator.New()

// Handler serves one checker. Until SetChecker is called every API route
// answers 503 so the server can listen while the data loads.
//
// Requests hold mu for reading while they use the checker; Reset and
// SetChecker hold it for writing, so a reset never interleaves with a check.
type Handler struct {
	mu      sync.RWMutex
	checker *engine.Checker
	space   *lattice.Space
}

func NewHandler() *Handler {
	return &Handler{}
}

// SetChecker makes the API live.
func (h *Handler) SetChecker(checker *engine.Checker) error {
	space, err := lattice.NewSpace(checker.Dataset().MaxLevels())
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.checker, h.space = checker, space
	h.mu.Unlock()
	return nil
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.POST("/check", h.Check)
	api.POST("/transform", h.Transform)
	api.GET("/history", h.GetHistory)
	api.POST("/reset", h.Reset)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// --- HELPERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// acquire read-locks the handler state. release must be called unless the
// checker is nil.
func (h *Handler) acquire() (*engine.Checker, *lattice.Space, func()) {
	h.mu.RLock()
	if h.checker == nil {
		h.mu.RUnlock()
		return nil, nil, nil
	}
	return h.checker, h.space, h.mu.RUnlock
}

func fail(c echo.Context, status int, err error) error {
	return c.JSON(status, models.ErrorResponse{Error: err.Error()})
}

func loading(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "dataset is loading"})
}

func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return validate.Struct(req)
}

// statusOf maps a checker error to an HTTP status.
func statusOf(err error) int {
	if errors.Is(err, lattice.ErrDimensionMismatch) || errors.Is(err, lattice.ErrLevelOutOfRange) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// --- HANDLERS ---

// Check evaluates one transformation.
func (h *Handler) Check(c echo.Context) error {
	checker, space, release := h.acquire()
	if checker == nil {
		return loading(c)
	}
	defer release()

	var req models.CheckRequest
	if err := bind(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	node, err := space.Get(req.Levels)
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	result, cached, err := checker.CheckCached(c.Request().Context(), node, req.ForceInformationLoss)
	if err != nil {
		return fail(c, statusOf(err), err)
	}

	return c.JSON(http.StatusOK, models.CheckResponse{
		Transformation: node.String(),
		Levels:         node.Levels(),
		Cached:         cached,
		Result:         result,
		RunID:          checker.RunID(),
	})
}

// Transform materializes a transformation and returns a page of its rows.
func (h *Handler) Transform(c echo.Context) error {
	checker, space, release := h.acquire()
	if checker == nil {
		return loading(c)
	}
	defer release()

	var req models.TransformRequest
	if err := bind(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	node, err := space.Get(req.Levels)
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}
	out, err := checker.ApplyTransformation(c.Request().Context(), node)
	if err != nil {
		return fail(c, statusOf(err), err)
	}

	data := checker.Dataset()
	total := out.Generalized.Rows()
	limit, offset := getPaginationParams(c, total)
	end := offset + limit
	if end > total {
		end = total
	}

	header := append(append([]string(nil), data.Header()...), out.MicroaggregatedHeader...)
	rows := make([][]string, 0, max(end-offset, 0))
	for row := offset; row < end; row++ {
		values := make([]string, 0, len(header))
		for col, code := range out.Generalized.Row(row) {
			values = append(values, data.Dictionary(col).Value(code))
		}
		if out.Microaggregated != nil {
			for col, code := range out.Microaggregated.Row(row) {
				values = append(values, out.MicroaggregationDictionaries[col].Value(code))
			}
		}
		rows = append(rows, values)
	}

	return c.JSON(http.StatusOK, models.TransformResponse{
		Transformation: node.String(),
		Result:         out.Result,
		Header:         header,
		Rows:           rows,
		Total:          total,
		Limit:          limit,
		Offset:         offset,
	})
}

// GetHistory reports the snapshot cache.
func (h *Handler) GetHistory(c echo.Context) error {
	checker, _, release := h.acquire()
	if checker == nil {
		return loading(c)
	}
	defer release()
	stats, nodes := checker.HistoryStats()
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.String()
	}
	return c.JSON(http.StatusOK, models.HistoryResponse{Stats: stats, Transformations: names})
}

// Reset starts a new search: checker state and memoized results are dropped.
func (h *Handler) Reset(c echo.Context) error {
	h.mu.Lock()
	if h.checker == nil {
		h.mu.Unlock()
		return loading(c)
	}
	h.checker.Reset()
	h.space.Reset()
	run := h.checker.RunID()
	h.mu.Unlock()

	return c.JSON(http.StatusOK, models.ResetResponse{RunID: run})
}
