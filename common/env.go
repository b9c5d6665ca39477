// Package common provides shared types and constants used across the warplock
// client-server communication layer.
package common

// Environment variable names for configuration.
const (
	// SocketPathEnv is the environment variable for custom socket path.
	SocketPathEnv = "WARPLOCK_SOCKET_PATH"

	// PipeNameEnv is the environment variable for a custom Windows pipe name.
	PipeNameEnv = "WARPLOCK_PIPE_NAME"

	// TCPPortEnv is the environment variable for custom TCP port.
	TCPPortEnv = "WARPLOCK_TCP_PORT"

	// ForceTCPEnv is the environment variable to force TCP connections.
	ForceTCPEnv = "WARPLOCK_FORCE_TCP"

	// DebugEnv is the environment variable to enable debug logging.
	DebugEnv = "WARPLOCK_DEBUG"

	// ConfigDirEnv overrides the configuration directory.
	ConfigDirEnv = "WARPLOCK_CONFIG_DIR"
)

const (
	// TCPHost is the loopback host used for the TCP fallback transport.
	TCPHost = "localhost"

	// DefaultTCPPort is the TCP fallback port when TCPPortEnv is unset.
	DefaultTCPPort = 3859

	// MaxMessageSize caps a single framed message on the socket.
	MaxMessageSize = 4 << 20
)
