//go:build wireinject
// +build wireinject

// The build tag keeps the stub out of the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/Lexazan/ape-ecs/internal/core/observability/log"
	"github.com/Lexazan/ape-ecs/pkg/ecs"
)

func ProvideWorld(level log.Level) *ecs.World {
	wire.Build(
		log.New,
		wire.Bind(new(log.Log), new(*log.Logger)),
		provideWorldWithLogger,
	)
	return nil
}

func provideWorldWithLogger(l log.Log) *ecs.World {
	return ecs.NewWorld(ecs.WithLogger(l))
}
