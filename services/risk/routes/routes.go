// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jinterlante1206/AleutianRisk/services/risk/handlers"
	"github.com/jinterlante1206/AleutianRisk/services/risk/pipeline"
	"github.com/jinterlante1206/AleutianRisk/services/risk/storage"
)

// SetupRoutes registers the risk API on the router. store may be nil
// when persistence is not configured; the assess endpoint then skips
// the background write and history reads return 503.
func SetupRoutes(router *gin.Engine, p *pipeline.Pipeline, store *storage.Store, health handlers.HealthStatus) {
	router.GET("/health", handlers.HealthCheck(health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/assess", handlers.HandleAssess(p, store))
		v1.GET("/assessments/:companyId", handlers.HandleAssessmentHistory(store))
	}
}
