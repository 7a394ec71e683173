package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aguasdev/aguas-api/services/api/db"
	"github.com/aguasdev/aguas-api/services/api/ingest"
	"github.com/aguasdev/aguas-api/services/api/metrics"
)

// handleWebhook receives one device envelope and appends a record.
// POST /records/webhook
func (s *Server) handleWebhook(c *gin.Context) {
	start := time.Now()
	result := metrics.IngestResultSuccess
	defer func() {
		metrics.ObserveIngest(result, time.Since(start))
	}()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		result = metrics.IngestResultError
		metrics.IncIngestError("read_body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	env, err := ingest.ParsePayload(body)
	if err != nil {
		result = metrics.IngestResultError
		metrics.IncIngestError("invalid_payload")
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	rec, err := s.ingestor.Ingest(ctx, env, sourceIP(c))
	if err != nil {
		result = metrics.IngestResultError
		metrics.IncIngestError("insert_error")
		s.log.Error("webhook: ingest failed", "imei", env.Imei, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": []db.Record{rec}})
}

// sourceIP prefers the forwarded-for chain's first hop, then the peer
// address. An empty result makes the normalizer fall back to its fixed
// default.
func sourceIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.RemoteIP()
}
