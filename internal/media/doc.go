// Package media models the streams inside a container file and inspects
// files with ffprobe. FileStreams is the value every pipeline command
// consumes and produces; commands never mutate their input value.
package media
