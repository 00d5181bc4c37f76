package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sergeii/mcscan/internal/core/usecases/listservers"
	"github.com/sergeii/mcscan/internal/rest/model"
)

type ServerFilterForm struct {
	MinPlayers int    `binding:"gte=0" form:"min_players"`
	Version    string `form:"version"`
}

// ListServers godoc
// @Summary      List servers
// @Description  List the servers that answered the status query, most recently probed first
// @Tags         servers
// @Produce      json
// @Param        min_players  query    int     false  "Hide servers with fewer players online"
// @Param        version      query    string  false  "Version name or slug (1.20.4, paper-1-20-4, etc)"
// @Success      200 {array} model.Server
// @Failure      400 {object} Error
// @Router       /servers [get]
func (a *API) ListServers(c *gin.Context) {
	var form ServerFilterForm
	if err := c.ShouldBindQuery(&form); err != nil {
		c.JSON(http.StatusBadRequest, Error{Error: "Invalid filter"})
		return
	}

	ucRequest := listservers.NewRequest(form.MinPlayers, form.Version)
	servers, err := a.container.ListServers.Execute(c, ucRequest)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to obtain servers")
		c.Status(http.StatusInternalServerError)
		return
	}

	result := make([]model.Server, 0, len(servers))
	for _, svr := range servers {
		result = append(result, model.NewServerFromDomain(svr))
	}
	c.JSON(http.StatusOK, result)
}
