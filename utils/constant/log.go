package constant

import "github.com/abhissng/synapse/utils/types"

// ANSI colours used by helpers.Println before a logger exists.
const (
	ResetColor  = "\033[0m"
	RedColor    = "\033[31m"
	YellowColor = "\033[33m"
	GreenColor  = "\033[32m"
	BlueColor   = "\033[34m"
)

const (
	DEBUG types.LogMode = "debug"
	INFO  types.LogMode = "info"
	WARN  types.LogMode = "warn"
	ERROR types.LogMode = "error"
	FATAL types.LogMode = "fatal"
)
