package claudecode

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	ccprovider "github.com/ben-vargas/claude-code-provider-go"
)

// minTruncationBytes is the floor below which a parse failure is treated as
// malformed input rather than a cut-off stream. An agent that produced
// almost nothing did not run out of room.
const minTruncationBytes = 512

// truncationPhrases are the parse-failure messages that indicate input
// ending mid-value rather than being malformed.
var truncationPhrases = []string{
	"unexpected end of json input",
	"unexpected end of input",
	"unexpected eof",
	"eof while parsing",
}

// isTruncation reports whether a stream failure looks like the upstream was
// cut off mid-output rather than producing garbage. All three signals must
// agree: the error is a parse-level failure, its message indicates premature
// end of input, and enough bytes were consumed that real output was underway.
func isTruncation(err error, consumedBytes int) bool {
	if err == nil || consumedBytes < minTruncationBytes {
		return false
	}
	if !isParseFailure(err) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range truncationPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

func isParseFailure(err error) bool {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var parseErr *ccprovider.ParseError
	if errors.As(err, &parseErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
