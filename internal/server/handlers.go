// file: internal/server/handlers.go
// version: 2.0.0
// guid: 5d6e7f8a-9b0c-1d2e-3f4a-5b6c7d8e9f0a

package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/canonmap/canonmap/internal/entity"
)

// resolveRequest is the body for POST /api/resolve.
type resolveRequest struct {
	Query string `json:"query" binding:"required"`
	Type  string `json:"type" binding:"required"`
}

// resolveBookRequest is the body for POST /api/resolve/book.
type resolveBookRequest struct {
	Title  string `json:"title" binding:"required"`
	Author string `json:"author"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"types":  entity.AllTypes,
	})
}

func (s *Server) handleResolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query and type are required"})
		return
	}

	typ, err := entity.ParseType(strings.TrimSpace(req.Type))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resolved, err := s.resolver.ResolveEntity(c.Request.Context(), strings.TrimSpace(req.Query), typ)
	if err != nil {
		log.Printf("[WARN] resolve request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolution failed"})
		return
	}
	if resolved == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "could not resolve entity"})
		return
	}
	c.JSON(http.StatusOK, resolved)
}

func (s *Server) handleResolveBook(c *gin.Context) {
	var req resolveBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	resolved, err := s.resolver.ResolveBook(c.Request.Context(), strings.TrimSpace(req.Title), strings.TrimSpace(req.Author))
	if err != nil {
		log.Printf("[WARN] resolve book request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolution failed"})
		return
	}
	if resolved == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "could not resolve book"})
		return
	}
	c.JSON(http.StatusOK, resolved)
}
