package main

import (
	"context"
	"net/http"
	"time"
)

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := app.db.Ping(ctx); err != nil {
		dbStatus = "unreachable"
	}

	data := map[string]string{
		"status":   "ok",
		"database": dbStatus,
		"env":      app.config.env,
		"version":  version,
	}

	status := http.StatusOK
	if dbStatus != "ok" {
		data["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}

	if err := app.jsonResponse(w, status, data); err != nil {
		app.internalServerError(w, r, err)
	}
}
