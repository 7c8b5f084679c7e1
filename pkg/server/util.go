package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Achyuth-Papisetty/Teams-to-SFMC-Webhook/pkg/activity"
)

// Write an activity as the JSON response body
func writeActivity(res http.ResponseWriter, a activity.Activity) {
	res.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(res).Encode(a)
	if err != nil {
		slog.Error("Failed to write activity response", slog.String("err", err.Error()))
	}
}
