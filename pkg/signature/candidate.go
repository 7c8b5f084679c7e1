package signature

import (
	"bytes"
	"encoding/json"
)

// Labels identifying which transformation produced a candidate. Stable, used
// in logs and metrics.
const (
	CandidateExact         = "exact"
	CandidateTrimCRLF      = "trim-trailing-crlf"
	CandidateNormalizeCRLF = "normalize-crlf"
	CandidateStripBOM      = "strip-bom"
	CandidateJSON          = "canonical-json"
	CandidateActivity      = "canonical-activity"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Candidate is one byte-sequence hypothesis for what the sender actually
// signed, derived from the received body.
type Candidate struct {
	Label string
	Bytes []byte
}

// Candidates derives the ordered list of plausible signing inputs from the
// exact received body bytes. The raw bytes always come first, transformations
// that do not apply or produce the same bytes as an earlier candidate are
// omitted. The list holds at most six entries and generation never fails,
// regardless of how malformed the body is.
func Candidates(body []byte) []Candidate {
	list := make([]Candidate, 0, 6)
	add := func(label string, b []byte) {
		for _, c := range list {
			if bytes.Equal(c.Bytes, b) {
				return
			}
		}
		list = append(list, Candidate{Label: label, Bytes: b})
	}

	add(CandidateExact, body)
	add(CandidateTrimCRLF, bytes.TrimRight(body, "\r\n"))
	add(CandidateNormalizeCRLF, bytes.ReplaceAll(body, []byte("\r\n"), []byte("\n")))
	if bytes.HasPrefix(body, utf8BOM) {
		add(CandidateStripBOM, body[len(utf8BOM):])
	}
	if compact, ok := compactJSON(body); ok {
		add(CandidateJSON, compact)
	}
	if reduced, ok := canonicalActivity(body); ok {
		add(CandidateActivity, reduced)
	}

	return list
}

// compactJSON re-serializes a JSON document with all insignificant whitespace
// removed. Field order is preserved, so the result differs from the wire
// bytes only by whitespace.
func compactJSON(body []byte) ([]byte, bool) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// reducedActivity is the fixed field subset some sender variants sign instead
// of the raw body. Fields absent in the source stay absent in the output.
type reducedActivity struct {
	Type      string `json:"type,omitempty"`
	ID        string `json:"id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Text      string `json:"text,omitempty"`
}

func canonicalActivity(body []byte) ([]byte, bool) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("{")) {
		return nil, false
	}

	var a reducedActivity
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, false
	}
	a.Text = PlainText(a.Text)

	out, err := json.Marshal(a)
	if err != nil {
		return nil, false
	}
	return out, true
}
