package commercial

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type comskipDoc struct {
	Children []comskipEntry `xml:",any"`
}

type comskipEntry struct {
	XMLName xml.Name
	Start   string `xml:"start,attr"`
	End     string `xml:"end,attr"`
}

// ParseXML reads a comskip XML document. Every child of the root element is
// a break with float start and end attributes in seconds. Order is kept as
// written.
func ParseXML(r io.Reader) ([]Marker, error) {
	var doc comskipDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode commercial xml: %w", err)
	}

	markers := make([]Marker, 0, len(doc.Children))
	for i, c := range doc.Children {
		start, err := parseAttr(c.Start)
		if err != nil {
			return nil, fmt.Errorf("commercial %d (<%s>): start: %w", i, c.XMLName.Local, err)
		}
		end, err := parseAttr(c.End)
		if err != nil {
			return nil, fmt.Errorf("commercial %d (<%s>): end: %w", i, c.XMLName.Local, err)
		}
		markers = append(markers, Marker{Start: start, End: end})
	}

	return markers, nil
}

// LoadFile parses the comskip XML file at path.
func LoadFile(path string) ([]Marker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open commercial file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	markers, err := ParseXML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return markers, nil
}

func parseAttr(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("attribute missing")
	}
	return strconv.ParseFloat(s, 64)
}
