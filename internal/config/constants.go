package config

const (
	// Configuration file paths
	ConfigPathSymbols = "configs/slots_symbols.json"
)
