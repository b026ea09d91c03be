// internal/websocket/utils.go
package websocket

import (
	"encoding/json"
	"fmt"

	wstypes "vehicle-booking-service/internal/domain/websocket"
)

// DecodeData re-decodes the loosely typed message data into target
func DecodeData(msg *wstypes.WSMessage, target interface{}) error {
	jsonData, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("failed to encode %s data: %w", msg.Type, err)
	}
	if err := json.Unmarshal(jsonData, target); err != nil {
		return fmt.Errorf("invalid %s data: %w", msg.Type, err)
	}
	return nil
}
