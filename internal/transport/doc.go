// Package transport provides the downstream sinks that receive captured
// audio frames. Every sink implements capture.TransportSink: Push is
// synchronous and the frame data is only valid for the duration of the
// call, so a sink that needs the bytes later must copy them.
package transport
