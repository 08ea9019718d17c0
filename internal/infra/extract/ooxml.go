package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// PPTX returns the text of every slide, one line per paragraph, in slide order.
func PPTX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open pptx: %w", err)
	}
	defer zr.Close()

	var slides []*zip.File
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i].Name) < slideNumber(slides[j].Name)
	})

	var b strings.Builder
	for _, f := range slides {
		text, err := paragraphs(f, "p")
		if err != nil {
			return "", fmt.Errorf("read %s: %w", f.Name, err)
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

// DOCX returns the body text of a Word document.
func DOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			text, err := paragraphs(f, "p")
			if err != nil {
				return "", fmt.Errorf("read %s: %w", f.Name, err)
			}
			return text, nil
		}
	}
	return "", fmt.Errorf("docx: word/document.xml missing")
}

func slideNumber(name string) int {
	n := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
	v, err := strconv.Atoi(n)
	if err != nil {
		return 1 << 30
	}
	return v
}

// paragraphs streams an OOXML part and joins the <t> runs of each paragraph
// element (local name para) into one line.
func paragraphs(f *zip.File, para string) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var (
		b      strings.Builder
		line   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case para:
				if s := strings.TrimSpace(line.String()); s != "" {
					b.WriteString(s)
					b.WriteByte('\n')
				}
				line.Reset()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	if s := strings.TrimSpace(line.String()); s != "" {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
