package infrastructure

import (
	"github.com/google/wire"
	"github.com/tasklet/backend/internal/infrastructure/config"
	"github.com/tasklet/backend/internal/infrastructure/eventbus"
	"github.com/tasklet/backend/internal/infrastructure/metrics"
	"github.com/tasklet/backend/internal/infrastructure/storage"
	"github.com/tasklet/backend/internal/infrastructure/websocket"
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	storage.ProviderSet,
	eventbus.ProviderSet,
	websocket.ProviderSet,
	metrics.ProviderSet,
)
