// Package config reads cornwall-collections settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pfrederiksen/cornwall-collections/internal/collection"
	"github.com/pfrederiksen/cornwall-collections/internal/filter"
	"github.com/pfrederiksen/cornwall-collections/internal/logger"
	"github.com/pfrederiksen/cornwall-collections/internal/scraper"
	"github.com/pfrederiksen/cornwall-collections/internal/storage"
)

// Environment variable names
const (
	EnvUPRN       = "UPRN"
	EnvPostcode   = "POSTCODE"
	EnvHouse      = "HOUSE_NUMBER_OR_NAME"
	EnvOutputFile = "OUTPUT_FILE"
	EnvLogLevel   = "LOG_LEVEL"
)

// IncludeVars maps each collection type to the variable that toggles it
var IncludeVars = map[string]string{
	collection.TypeFood:      "INCLUDE_FOOD",
	collection.TypeRecycling: "INCLUDE_RECYCLING",
	collection.TypeRubbish:   "INCLUDE_RUBBISH",
	collection.TypeGarden:    "INCLUDE_GARDEN",
}

// ErrNoProperty is returned when neither UPRN nor POSTCODE is configured
var ErrNoProperty = errors.New("either UPRN or POSTCODE environment variable must be set")

// Error marks a configuration problem, as opposed to a lookup or network failure
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config holds the settings for one run
type Config struct {
	UPRN              string
	Postcode          string
	HouseNumberOrName string
	Include           map[string]bool
	OutputFile        string
	LogLevel          logger.Level
}

// LoadDotEnv loads variables from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return &Error{Err: fmt.Errorf("loading %s: %w", path, err)}
	}
	return nil
}

// Load reads the configuration from the process environment
func Load() (*Config, error) {
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config using getenv to look up variables
func FromEnv(getenv func(string) string) (*Config, error) {
	level, err := logger.ParseLevel(getenv(EnvLogLevel))
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("invalid %s: %w", EnvLogLevel, err)}
	}

	outputFile := strings.TrimSpace(getenv(EnvOutputFile))
	if outputFile == "" {
		outputFile = storage.DefaultICSFile
	}

	include := make(map[string]bool, len(IncludeVars))
	for collectionType, envVar := range IncludeVars {
		include[collectionType] = filter.ParseToggle(getenv(envVar))
	}

	return &Config{
		UPRN:              strings.TrimSpace(getenv(EnvUPRN)),
		Postcode:          strings.TrimSpace(getenv(EnvPostcode)),
		HouseNumberOrName: strings.TrimSpace(getenv(EnvHouse)),
		Include:           include,
		OutputFile:        outputFile,
		LogLevel:          level,
	}, nil
}

// Validate checks that a property can be identified
func (c *Config) Validate() error {
	if c.UPRN == "" && c.Postcode == "" {
		return &Error{Err: ErrNoProperty}
	}
	return nil
}

// Warnings returns non-fatal configuration issues worth logging
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Postcode != "" && c.HouseNumberOrName == "" {
		warnings = append(warnings, "POSTCODE is set but HOUSE_NUMBER_OR_NAME is not. "+
			"This may result in matching the first property at the postcode.")
	}
	return warnings
}

// Property returns the scraper lookup for the configured address
func (c *Config) Property() scraper.Property {
	return scraper.Property{
		UPRN:              c.UPRN,
		Postcode:          c.Postcode,
		HouseNumberOrName: c.HouseNumberOrName,
	}
}

// Filter builds the type filter from the INCLUDE_* settings
func (c *Config) Filter() *filter.Filter {
	f := filter.NewFilter()
	for collectionType, enabled := range c.Include {
		if !enabled {
			f.Exclude(collectionType)
		}
	}
	return f
}
