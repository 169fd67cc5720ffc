package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"golang.org/x/time/rate"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

// Middleware runs trace injection, bearer auth and the optional per-IP rate
// limit in front of every API handler.
type Middleware struct {
	authToken    string
	noAuthBypass bool
	rateLimit    bool
	limiter      *IPRateLimiter
}

func New(cfg config.ServerConfig) *Middleware {
	return &Middleware{
		authToken:    cfg.AuthToken,
		noAuthBypass: cfg.NoAuthBypass,
		rateLimit:    cfg.RateLimit,
		limiter:      NewIPRateLimiter(rate.Limit(config.RATE_LIMIT_PER_SECOND), config.BURST_RATE_LIMIT_PER_SECOND),
	}
}

func (m *Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200}
		defer func() {
			metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
		}()

		re := m.processRequest(requestResponseStruct{req: r, writer: rec})
		if !handleBadRequest(re) {
			return
		}
		next(rec, re.req)
	}
}

func (m *Middleware) processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re.logger.Debug("New request received")

	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re = m.authenticate(re)
	if re.badRequest.isBadRequest || !m.rateLimit {
		return re
	}
	return m.rateLimiter(re)
}
