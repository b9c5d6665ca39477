package lockcli

import (
	"log"
	"net"

	"github.com/warpdl/warplock/common"
)

// dialFunc is replaced in tests.
var dialFunc = func(network, address string) (net.Conn, error) {
	return net.DialTimeout(network, address, common.DefaultDialTimeout)
}

func tcpAddress() string {
	return common.TCPAddress(common.TCPPort())
}

// debugLog logs only when WARPLOCK_DEBUG=1.
func debugLog(format string, args ...any) {
	if common.DebugMode() {
		log.Printf(format, args...)
	}
}
