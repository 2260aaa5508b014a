// Package capture implements the real-time audio capture pipeline: sample
// format conversion, a reconfigurable ring buffer, frame assembly and the
// lifecycle controller that lets the producer callback and a control
// goroutine share those buffers safely.
//
// Data flow:
//
//	CaptureSource -> ConvertF32ToS16 -> RingBuffer.Write ->
//	  (AvailableRead >= frame size?) -> RingBuffer.Read into frame ->
//	  AcousticProcessor.Process (optional) -> TransportSink.Push
//
// All per-callback work executes synchronously inside the capture callback.
// A single mutex serializes buffer mutation between the producer thread and
// control operations (Stop, reconfiguration); the callback never blocks on
// anything else.
package capture
