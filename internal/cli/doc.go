// Package cli implements the command-line interface for cornwall-collections.
//
// The cli package provides the Cobra root command. It merges environment
// configuration with flags, fetches the property's collections through the
// scraper, applies the type and date filters, prints the result (text/JSON)
// and writes the iCalendar file.
package cli
