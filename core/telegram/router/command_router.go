package router

import (
	"context"
	"log/slog"
	"sort"

	"github.com/m3rciful/coursebot/core/logger"
	tg "github.com/m3rciful/coursebot/core/telegram"
)

// CommandRoutes binds every registered command, and each of its aliases, to
// its handler. Routes are named "command.<name>" in logs and metrics.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}
	cmds := reg.Commands()
	keys := make([]string, 0, len(cmds))
	for key := range cmds {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	routes := make([]tg.Route, 0, len(keys))
	for _, key := range keys {
		def := cmds[key]
		h := summarized("command."+handlerName(key), def.Handler)
		routes = append(routes, tg.Route{Endpoint: key, Handler: h})
		for _, alias := range def.Aliases {
			if alias == "" {
				continue
			}
			if alias[0] != '/' {
				alias = "/" + alias
			}
			routes = append(routes, tg.Route{Endpoint: alias, Handler: h})
		}
	}

	logger.TWire.LogAttrs(context.Background(), slog.LevelInfo, "tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(keys)),
		slog.Int("routes", len(routes)),
	)
	return routes
}
