package interceptor

import (
	"context"

	"fitsync/internal/client/domain/entities"
)

// NetworkTypeSource сообщает текущий тип сети.
type NetworkTypeSource interface {
	NetworkType() string
}

// StaticContext - ContextProvider со статическими данными устройства и
// необязательным источником типа сети.
type StaticContext struct {
	Device  entities.DeviceContext
	Network NetworkTypeSource
}

// DeviceContext возвращает копию статического контекста с актуальным типом сети.
func (s *StaticContext) DeviceContext(context.Context) entities.DeviceContext {
	dc := s.Device
	if s.Network != nil {
		if nt := s.Network.NetworkType(); nt != "" {
			dc.NetworkType = nt
		}
	}
	return dc
}
