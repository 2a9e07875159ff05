package config

import "errors"

// Configuration errors returned by Validate, RequireAPIKey and the loader.
var (
	// ErrNoAPIURL is returned when the API base URL is empty.
	ErrNoAPIURL = errors.New("no API URL configured")

	// ErrInvalidAPIURL is returned when the API base URL is not an http(s) URL.
	ErrInvalidAPIURL = errors.New("invalid API URL: must start with http:// or https://")

	// ErrNoAPIKey is returned when a command needs credentials and none are set.
	ErrNoAPIKey = errors.New("no API key configured: use --api-key, CRAWLCTL_API_KEY or the config file")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidFormat is returned for an unknown report format.
	ErrInvalidFormat = errors.New("invalid output format: must be text, json or markdown")

	// ErrInvalidProxy is returned when the proxy is not a socks5:// URL.
	ErrInvalidProxy = errors.New("invalid proxy: expected socks5://host:port")

	// ErrUnknownProfile is returned when --profile names no profile in the file.
	ErrUnknownProfile = errors.New("unknown profile")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
