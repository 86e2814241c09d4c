package websocket

import (
	"encoding/json"
	"log"

	"github.com/quillreads/quill-go/internal/models"
)

// Notifier sends plugin-update events to connected clients as JSON
// messages of the form {"type": "...", "payload": {...}}.
type Notifier struct {
	hub *Hub
}

// NewNotifier creates a notifier over a running hub.
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

// NotifyUpdatesAvailable announces newly found plugin updates.
func (n *Notifier) NotifyUpdatesAvailable(updates []models.PluginUpdate) {
	n.send("plugin_updates_available", map[string]interface{}{
		"count":   len(updates),
		"updates": updates,
	})
}

// NotifyUpdateInstalled announces a completed plugin install.
func (n *Notifier) NotifyUpdateInstalled(pluginID, version string) {
	n.send("plugin_update_installed", map[string]interface{}{
		"plugin_id": pluginID,
		"version":   version,
	})
}

func (n *Notifier) send(eventType string, payload interface{}) {
	message, err := json.Marshal(map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		log.Printf("Failed to marshal %s notification: %v", eventType, err)
		return
	}
	n.hub.Broadcast(message)
}
