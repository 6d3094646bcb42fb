// Package mediatypes defines the file extension sets used to classify
// folder contents as playable media or thumbnail sources.
package mediatypes
