package main

import (
	"errors"
	"log/slog"

	"github.com/freekieb7/httpcore/filesystem"
	"github.com/freekieb7/httpcore/http"
	"github.com/freekieb7/httpcore/telemetry"
)

func registerRoutes(server *http.Server, files filesystem.Filesystem, tel *telemetry.Telemetry) error {
	return errors.Join(
		server.Get("/", index),
		server.Get("/echo/<str>", echo),
		server.Get("/user-agent", userAgent),
		server.Get("/files/<file>", readFile(files)),
		server.Post("/files/<file>", writeFile(files)),
		server.Get("/metrics", tel.MetricsHandler()),
	)
}

func index(ctx *http.RequestCtx) *http.Response {
	return http.OK()
}

func echo(ctx *http.RequestCtx) *http.Response {
	str, _ := ctx.Var("str")
	return http.OK().WithText(str)
}

func userAgent(ctx *http.RequestCtx) *http.Response {
	agent, _ := ctx.Header("User-Agent")
	return http.OK().WithText(agent)
}

func readFile(files filesystem.Filesystem) http.HandlerFunc {
	return func(ctx *http.RequestCtx) *http.Response {
		if files == nil {
			return http.NotFound()
		}

		name, _ := ctx.Var("file")
		content, err := files.ReadFile(name)
		if err != nil {
			if !errors.Is(err, filesystem.ErrFileNotFound) && !errors.Is(err, filesystem.ErrInvalidPath) {
				slog.ErrorContext(ctx.Context(), "reading file failed", "file", name, "error", err)
			}
			return http.NotFound()
		}

		return http.OK().
			WithHeader("Content-Type", "application/octet-stream").
			WithBody(content)
	}
}

func writeFile(files filesystem.Filesystem) http.HandlerFunc {
	return func(ctx *http.RequestCtx) *http.Response {
		if files == nil {
			return http.NotFound()
		}

		name, _ := ctx.Var("file")
		if err := files.WriteFile(name, ctx.Request.Body); err != nil {
			if errors.Is(err, filesystem.ErrInvalidPath) {
				return http.NotFound()
			}
			slog.ErrorContext(ctx.Context(), "writing file failed", "file", name, "error", err)
			return http.InternalServerError()
		}

		return http.Created()
	}
}
