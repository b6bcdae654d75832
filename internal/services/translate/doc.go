// Package translate converts subtitle text between languages, either through
// a local model CLI or Google's public endpoint.
package translate
