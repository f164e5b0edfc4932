package matcherrors

import "errors"

// Sentinel errors kept in their own package so any server package can use
// them without an import cycle; currently only the registry imports it
// (re-exporting ErrTableNotFound).
var (
	ErrTableNotFound  = errors.New("table not found")
	ErrInvalidTable   = errors.New("invalid table name")
	ErrInvalidPlayer  = errors.New("invalid player name")
	ErrTableFull      = errors.New("table is full")
	ErrGameInProgress = errors.New("game already in progress")
)
