package sources

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"html"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Caption payload formats. YouTube serves timedtext XML by default (classic <text>
// cues or srv3 <p> cues) and event JSON when the URL carries fmt=json3.

// PayloadFormat is the wire format of a caption payload.
type PayloadFormat int

const (
	FormatUnknown PayloadFormat = iota
	FormatXML
	FormatJSON3
)

func (f PayloadFormat) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatJSON3:
		return "json3"
	}
	return "unknown"
}

// Entry is one timed caption line.
type Entry struct {
	Offset float64 `json:"offset"` // seconds
	Text   string  `json:"text"`
}

// SniffFormat picks the payload format from its first non-whitespace byte.
func SniffFormat(body []byte) PayloadFormat {
	body = bytes.TrimPrefix(bytes.TrimSpace(body), []byte("\ufeff"))
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return FormatUnknown
	}
	switch body[0] {
	case '<':
		return FormatXML
	case '{':
		return FormatJSON3
	}
	return FormatUnknown
}

// ParsePayload extracts entries in source order. Malformed payloads yield no entries.
func ParsePayload(format PayloadFormat, body []byte) []Entry {
	switch format {
	case FormatXML:
		return parseTimedTextXML(body)
	case FormatJSON3:
		return parseJSON3(body)
	}
	return nil
}

// --- timedtext XML ---

type xmlCue struct {
	Start string `xml:"start,attr"` // <text>: seconds
	T     string `xml:"t,attr"`     // <p>: milliseconds
	Inner string `xml:",innerxml"`
}

var cueTagRe = regexp.MustCompile(`<[^>]*>`)

// cueText flattens a cue's inner markup (srv3 nests <s> segments) into plain text.
func cueText(inner string) string {
	return html.UnescapeString(cueTagRe.ReplaceAllString(inner, ""))
}

// parseTimedTextXML reads <text start="s"> cues anywhere in the document. Only when
// none exist does it fall back to srv3 <p t="ms"> cues.
func parseTimedTextXML(body []byte) []Entry {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Entity = xml.HTMLEntity

	var texts, paras []Entry
	sawText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "text":
			sawText = true
			var c xmlCue
			if err := dec.DecodeElement(&c, &se); err != nil {
				return nil
			}
			texts = appendEntry(texts, parseSeconds(c.Start), cueText(c.Inner))
		case "p":
			var c xmlCue
			if err := dec.DecodeElement(&c, &se); err != nil {
				return nil
			}
			paras = appendEntry(paras, float64(parseMillis(c.T))/1000, cueText(c.Inner))
		}
	}
	if sawText {
		return texts
	}
	return paras
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseMillis(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// --- json3 events ---

type json3Doc struct {
	Events []struct {
		TStartMs float64 `json:"tStartMs"`
		Segs     []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func parseJSON3(body []byte) []Entry {
	var doc json3Doc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil
	}
	var entries []Entry
	for _, ev := range doc.Events {
		if len(ev.Segs) == 0 {
			continue
		}
		var sb strings.Builder
		for _, seg := range ev.Segs {
			if seg.UTF8 != "\n" {
				sb.WriteString(seg.UTF8)
			}
		}
		offset := ev.TStartMs / 1000
		if offset < 0 {
			offset = 0
		}
		entries = appendEntry(entries, offset, sb.String())
	}
	return entries
}

// appendEntry drops entries whose text is blank after trimming.
func appendEntry(entries []Entry, offset float64, text string) []Entry {
	if strings.TrimSpace(text) == "" {
		return entries
	}
	return append(entries, Entry{Offset: offset, Text: text})
}
