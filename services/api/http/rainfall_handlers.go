package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleAllStationsRainfall returns every station with resolved channel values.
// GET /api/v1/stations/rainfall
func (s *Server) handleAllStationsRainfall(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	stations, err := s.agg.AllStations(ctx)
	if err != nil {
		s.log.Error("rainfall: aggregation failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  stations,
		"count": len(stations),
	})
}

// handleStationRainfall returns one station with resolved channel values.
// GET /api/v1/stations/:id/rainfall
func (s *Server) handleStationRainfall(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "station id is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	station, err := s.agg.Station(ctx, id)
	if err != nil {
		s.log.Error("rainfall: aggregation failed", "station", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if station == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "station not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": station})
}
