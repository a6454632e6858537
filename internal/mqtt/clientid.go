package mqtt

import (
	"fmt"
	"os"

	"github.com/denisbrodbeck/machineid"
)

const appID = "dht11-sensor"

// ClientID returns a broker client ID stable across restarts and unique per
// host. The machine ID is hashed with the app ID so it is never exposed.
func ClientID() string {
	if id, err := machineid.ProtectedID(appID); err == nil && len(id) >= 12 {
		return fmt.Sprintf("%s-%s", appID, id[:12])
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return fmt.Sprintf("%s-%s", appID, host)
	}
	return appID
}
