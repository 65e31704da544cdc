//go:build wireinject
// +build wireinject

//go:generate wire

package bootstrap

import (
	"context"

	"github.com/google/wire"
)

// InitializeApp creates and initializes a new application instance with all
// its dependencies. The cleanup function releases pools and connections.
func InitializeApp(ctx context.Context) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil // Wire will replace this with the actual implementation
}
