package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sergeii/mcscan/internal/core/usecases/getserver"
	"github.com/sergeii/mcscan/internal/rest/model"
)

// ViewServer godoc
// @Summary      View server detail
// @Description  Return the latest status of a specific server along with its player sample
// @Tags         servers
// @Produce      json
// @Param        address  path  string  true  "Server address (host or host:port)"
// @Success      200 {object} model.ServerDetail
// @Failure      400 {object} Error
// @Failure      404
// @Router       /servers/{address} [get]
func (a *API) ViewServer(c *gin.Context) {
	address := c.Param("address")

	svr, err := a.container.GetServer.Execute(c, address)
	if err != nil {
		switch {
		case errors.Is(err, getserver.ErrInvalidAddress):
			c.JSON(http.StatusBadRequest, Error{Error: "Invalid server address"})
		case errors.Is(err, getserver.ErrServerNotFound):
			a.logger.Debug().Str("addr", address).Msg("Requested server not found")
			c.Status(http.StatusNotFound)
		default:
			a.logger.Error().Err(err).Str("addr", address).Msg("Failed to obtain server")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, model.NewServerDetailFromDomain(svr))
}
