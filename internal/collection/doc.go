// Package collection provides types and functions for waste collection entries.
//
// A Collection pairs a collection date with a waste stream (food, recycling,
// rubbish, garden). The council publishes dates without a year, so the package
// also infers the year relative to the current date, handling the December to
// January rollover.
package collection
