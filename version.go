package cyrkana

// Version is the library version reported by every adapter.
const Version = "0.1.0"

// DefaultProfileID is used by the CLI and the MCP tools when no profile is given.
const DefaultProfileID = "rus_standard"
