// Package config defines the application configuration structures and the
// viper-based loader that populates them from the environment.
package config
