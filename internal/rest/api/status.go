package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sergeii/mcscan/cmd/mcscan/build"
	"github.com/sergeii/mcscan/internal/rest/model"
)

// Status reports the build of the running binary and how long it has been up
func (a *API) Status(c *gin.Context) {
	status := model.Status{
		Version: build.Version,
		Commit:  build.Commit,
		BuiltAt: build.Time,
		Uptime:  int64(a.clock.Since(a.startedAt).Seconds()),
	}
	c.JSON(http.StatusOK, status)
}
