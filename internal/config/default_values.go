package config

const (
	DefaultServerBaseURL   = "http://localhost:5001"
	DefaultServerTimeoutMS = 30000

	DefaultArchiveMax = 50
)
