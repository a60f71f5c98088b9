package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/store-rating-backend/internal/app/service"
	"github.com/ikkim/store-rating-backend/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DashboardController struct {
	statsService service.StatsService
}

func NewDashboardController(statsService service.StatsService) *DashboardController {
	return &DashboardController{statsService: statsService}
}

// Stats returns the admin dashboard
// GET /api/dashboard/stats
func (ctrl *DashboardController) Stats(c *gin.Context) {
	dashboard, err := ctrl.statsService.Dashboard(middleware.GetActor(c))
	if err != nil {
		respondServiceError(c, err, "dashboard stats")
		return
	}
	respondData(c, http.StatusOK, dashboard)
}

// Export downloads the dashboard as a spreadsheet
// GET /api/dashboard/export
func (ctrl *DashboardController) Export(c *gin.Context) {
	// buffered so a failure can still produce a JSON error
	var buf bytes.Buffer
	if err := ctrl.statsService.ExportDashboard(middleware.GetActor(c), &buf); err != nil {
		respondServiceError(c, err, "export dashboard")
		return
	}

	filename := fmt.Sprintf("dashboard-%s.xlsx", time.Now().Format("20060102"))
	middleware.GetLoggerFromContext(c).Info("Dashboard exported", map[string]interface{}{
		"bytes": buf.Len(),
	})

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
