package protocol

// Diagnostic message strings. Kept as constants so tests and presentation
// collaborators can match on them without parsing.
const (
	diagPayloadTooShort   = "payload too short for request id"
	diagEmptySubstring    = "be_read request body must be at least 1 byte"
	diagBadIDLength       = "lc_read request id must be exactly 8 bytes"
	diagShortWriteBody    = "lc_write request body must be at least 8 bytes"
	diagBadFreqLength     = "be_read response freq must be exactly 8 bytes"
	diagMissingOptionTag  = "response body missing option tag"
	diagBadOptionTag      = "unknown option tag"
	diagTrailingAfterNone = "trailing bytes after none option tag"
	diagInvalidUTF8       = "text field is not valid utf-8"
	diagUnknownKind       = "unknown message type"
)
