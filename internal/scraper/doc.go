// Package scraper provides HTTP fetching and HTML parsing for Cornwall Council
// waste collection days.
//
// A property is identified by its UPRN. When only a postcode is known, the
// scraper first queries the "my area" page and picks the address option whose
// text starts with the given house number or name. The collection days page is
// then parsed for one (waste type, date) pair per collection block.
package scraper
