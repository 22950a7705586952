package editor

import (
	"html"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
)

// Clipboard moves text in and out of the editor. Copy writes a snapshot document;
// paste accepts a snapshot or falls back to plain text.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// SystemClipboard uses the desktop clipboard.
type SystemClipboard struct{}

func (SystemClipboard) ReadText() (string, error) {
	if runtime.GOOS == "darwin" {
		if out, err := exec.Command("pbpaste", "-Prefer", "txt").Output(); err == nil {
			return string(out), nil
		}
	}
	return clipboard.ReadAll()
}

func (SystemClipboard) WriteText(text string) error {
	return clipboard.WriteAll(text)
}

// MemoryClipboard keeps the clipboard inside the process, for tests and headless use.
type MemoryClipboard struct {
	text string
}

func (c *MemoryClipboard) ReadText() (string, error) {
	return c.text, nil
}

func (c *MemoryClipboard) WriteText(text string) error {
	c.text = text
	return nil
}

// plainText turns rich clipboard content into plain text for a text node.
func plainText(s string) string {
	switch {
	case strings.HasPrefix(s, `{\rtf`) || strings.Contains(s, `\rtf1`):
		s = fromRTF(s)
	case isHTML(s):
		s = fromHTML(s)
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || r >= 32 {
			b.WriteRune(r)
		}
	}
	out := strings.ReplaceAll(b.String(), "\r\n", "\n")
	return strings.TrimSpace(out)
}

func isHTML(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "<") &&
		(strings.Contains(s, "<html") || strings.Contains(s, "<body") || strings.Contains(s, "<div") || strings.Contains(s, "<p"))
}

func fromHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return html.UnescapeString(b.String())
}

// fromRTF keeps the text runs of an RTF document. \par and \line become newlines,
// \tab a tab, and \'hh escapes their byte.
func fromRTF(s string) string {
	var b strings.Builder
	src := []byte(s)
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '{' || c == '}':
		case c == '\\' && i+1 < len(src):
			next := src[i+1]
			switch {
			case next == '\'' && i+3 < len(src):
				if v, err := strconv.ParseUint(string(src[i+2:i+4]), 16, 8); err == nil {
					b.WriteByte(byte(v))
				}
				i += 3
			case next == '\\' || next == '{' || next == '}':
				b.WriteByte(next)
				i++
			case isLetter(next):
				j := i + 1
				for j < len(src) && isLetter(src[j]) {
					j++
				}
				word := string(src[i+1 : j])
				for j < len(src) && (src[j] == '-' || (src[j] >= '0' && src[j] <= '9')) {
					j++
				}
				if j < len(src) && src[j] == ' ' {
					j++
				}
				switch word {
				case "par", "line":
					b.WriteByte('\n')
				case "tab":
					b.WriteByte('\t')
				}
				i = j - 1
			default:
				i++
			}
		case c == '\r' || c == '\n':
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
