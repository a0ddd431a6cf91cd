package cache

// Encode exposes the wire format to tests.
var Encode = encode
