// Command vpipe is the command line front end for the media post-processing
// pipeline: it parses action chains, runs them over files or directories,
// and exposes probe, doctor, and config utilities.
package main
