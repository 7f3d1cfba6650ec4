// Package storage writes generated calendar and JSON exports to disk.
//
// Files are written to a temporary sibling first and renamed into place, so a
// calendar app polling the output never reads a half-written file.
package storage
