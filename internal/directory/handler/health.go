package handler

import (
	"net/http"

	"github.com/staffdir/staffdir-backend/internal/directory/service"
	"github.com/staffdir/staffdir-backend/pkg/httputil"
)

// BrokerHealth reports message broker state. *messaging.RabbitMQ satisfies it.
type BrokerHealth interface {
	Health() map[string]string
}

// Health returns a handler reporting storage and, when configured, broker state
func Health(svc *service.DirectoryService, broker BrokerHealth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "healthy",
			"service": "employee-service",
			"storage": svc.Health(r.Context()),
		}
		if broker != nil {
			body["rabbitmq"] = broker.Health()
		}
		httputil.JSON(w, http.StatusOK, body)
	}
}
