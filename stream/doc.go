// Package stream provides event-based reading and writing of documents.
//
// A document is a sequence of structural events (begin/end object, begin/end
// array, key, scalar). The Decoder and Encoder translate JSON text to and
// from events; NodeReader and NodeBuilder translate ir.Node values. Anything
// implementing Source or Sink can feed or receive the bean mapper.
//
// # Example: Encoding
//
//	enc := stream.NewEncoder(writer)
//	enc.BeginObject()
//	enc.WriteKey("name")
//	enc.WriteString("value")
//	enc.EndObject()
//
// # Example: Decoding
//
//	dec := stream.NewDecoder(reader)
//	event, _ := dec.ReadEvent()  // EventBeginObject
//	event, _ = dec.ReadEvent()   // EventKey("name")
//	event, _ = dec.ReadEvent()   // EventString("value")
//	event, _ = dec.ReadEvent()   // EventEndObject
//
// Keys and string values are both JSON strings on the wire; the decoder
// uses its State to tell them apart.
package stream
