// Package wire holds the primitive codecs shared by the section codec and the
// host module parser: LEB128 integers, option discriminants, length-prefixed
// strings and sequence counts.
package wire
