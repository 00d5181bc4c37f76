package testapp

import (
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/sergeii/mcscan/cmd/mcscan/application"
	"github.com/sergeii/mcscan/cmd/mcscan/components/api"
	"github.com/sergeii/mcscan/internal/core/repositories"
)

func PrepareTestServer(tb fxtest.TB, extra ...fx.Option) (*httptest.Server, func()) {
	gin.SetMode(gin.ReleaseMode) // prevent gin from overwriting middlewares

	var router *gin.Engine
	fxopts := []fx.Option{
		fx.Provide(ProvidePersistence),
		fx.Provide(NoLogging),
		application.Module,
		api.Module,
		fx.NopLogger,
		fx.Populate(&router),
	}
	fxopts = append(fxopts, extra...)

	app := fxtest.New(tb, fxopts...)
	app.RequireStart()

	ts := httptest.NewServer(router)

	return ts, func() {
		defer app.RequireStop()
		defer ts.Close()
	}
}

func PrepareTestServerWithRepo(
	tb fxtest.TB,
	extra ...fx.Option,
) (*httptest.Server, repositories.ServerRepository, func()) {
	var repo repositories.ServerRepository
	extra = append(extra, fx.Populate(&repo))
	ts, cleanup := PrepareTestServer(tb, extra...)
	return ts, repo, cleanup
}
