// Package handler holds the gin handlers for the webhook and file endpoints.
package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"evodata/agent"
	"evodata/models"
	"evodata/request"
)

// Webhook accepts Evolution API message events. The event is ACKed
// immediately and processed in its own goroutine, one per message, so slow
// queries never hold the webhook open.
func Webhook(a *agent.Agent) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := &request.EvolutionWebhook{}

		if err := c.ShouldBindJSON(req); err != nil {
			c.JSON(http.StatusBadRequest, models.StandardResponse{
				Error:        "INVALID_REQUEST",
				ErrorMessage: err.Error(),
			})
			return
		}

		if err := req.Validate(); err != nil {
			// Not an error worth alarming the caller over: events we do not
			// handle (own messages, status updates) are acknowledged and
			// dropped.
			log.Printf("[Webhook] skipped event=%s reason=%v", req.Event, err)
			c.JSON(http.StatusOK, models.StandardResponse{
				Data: models.AckResponse{Accepted: false},
			})
			return
		}

		in := agent.Inbound{
			From:      req.Data.Key.RemoteJID,
			MessageID: req.Data.Key.ID,
			Text:      req.Text(),
		}
		if req.HasAudio() {
			in.AudioPath = saveInboundAudio(req)
		}

		go a.Handle(context.Background(), in)

		c.JSON(http.StatusOK, models.StandardResponse{
			Data: models.AckResponse{Accepted: true, MessageID: in.MessageID},
		})
	}
}
