package container

import (
	"go.uber.org/fx"

	"github.com/sergeii/mcscan/internal/core/usecases/getserver"
	"github.com/sergeii/mcscan/internal/core/usecases/listservers"
	"github.com/sergeii/mcscan/internal/core/usecases/scanservers"
)

type Container struct {
	GetServer   getserver.UseCase
	ListServers listservers.UseCase
	ScanServers scanservers.UseCase
}

func New(
	getServerUseCase getserver.UseCase,
	listServersUseCase listservers.UseCase,
	scanServersUseCase scanservers.UseCase,
) Container {
	return Container{
		GetServer:   getServerUseCase,
		ListServers: listServersUseCase,
		ScanServers: scanServersUseCase,
	}
}

var Module = fx.Module("container",
	fx.Provide(getserver.New),
	fx.Provide(listservers.New),
	fx.Provide(scanservers.New),
	fx.Provide(New),
)
