package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cdmworks/golden-keys-api/pkg/response"
)

// RoadmapHandler serves static placeholders for features not yet built.
type RoadmapHandler struct{}

// NewRoadmapHandler builds a new handler.
func NewRoadmapHandler() *RoadmapHandler {
	return &RoadmapHandler{}
}

// DRRAnalysis godoc
// @Summary DRR analysis placeholder
// @Tags Roadmap
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /drr-analysis [get]
func (h *RoadmapHandler) DRRAnalysis(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"title":       "DRR Analysis",
		"status":      "coming_soon",
		"description": "Comprehensive DRR (Data Regulatory Reporting) analysis features are in development.",
		"expected": []string{
			"Comprehensive DRR field mapping and validation",
			"Gap analysis between CDM and DRR requirements",
			"Regulatory compliance reporting and tracking",
			"Automated validation of reportable fields",
		},
	}, nil)
}
