package handler

import (
	"roomcast/internal/app/chat"
	"roomcast/internal/configs"
)

type AppDeps struct {
	Manager *chat.Manager
	Config  *configs.AppConfig
}
