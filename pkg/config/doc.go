// Package config loads typed configuration from environment variables.
//
// Load[T] parses a struct type with caarlos0/env tags and caches the result
// per type and prefix, so independent components can call it without
// coordinating. A .env file in the working directory is read once through
// godotenv before the first parse; WithEnvFiles names other files
// explicitly. WithEnvironment parses from an in-memory map and bypasses the
// cache, which keeps tests independent of the process environment.
//
//	cfg, err := config.Load[authkit.Config]()
//	if err != nil {
//	    return err
//	}
package config
