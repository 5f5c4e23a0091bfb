// Package logtail reads the end of Harbor's log file and splits logrus text
// lines into fields for the logs command.
//
// Read seeks backwards from the end of the file in fixed-size chunks, so
// the cost depends on the number of lines requested rather than the size of
// the file. Parse understands the key=value layout written by the logrus
// text formatter; Filter narrows parsed entries by level and component.
package logtail
