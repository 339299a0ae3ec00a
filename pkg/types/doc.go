// Package types defines the entity types, store interfaces and standard
// errors shared by every tripdeck backend and the itinerary core.
//
// An ItineraryItem lives in a day bucket at a dense sortOrder position. The
// ItemStore and ExpenseStore interfaces abstract the relational and document
// backends, and Backend ties them to a lifecycle.
package types
