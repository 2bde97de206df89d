// Package gpx читает и пишет треки в формате GPX 1.1.
//
// Пороги фильтров хранятся в metadata/extensions как простые элементы
// <key>value</key>. Скорость точки читается из элемента speed в расширениях
// trkpt (в том числе из вложенного TrackPointExtension).
package gpx

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/flybeeper/gps-filter/internal/models"
)

// ReadFile читает GPX файл. Путь файла становится идентификатором трека
func ReadFile(path string) (*models.GpxFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return Read(f, path)
}

// Read разбирает GPX из r
func Read(r io.Reader, path string) (*models.GpxFile, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse GPX: %w", err)
	}

	file := &models.GpxFile{Path: path}
	if md := doc.Metadata; md != nil {
		file.Name = md.Name
		file.Desc = md.Desc
		if md.Author != nil {
			file.Author = md.Author.Name
		}
		if md.Time != nil {
			file.Time = *md.Time
		}
		if md.Extensions != nil && len(md.Extensions.Items) > 0 {
			file.Extensions = make(map[string]string, len(md.Extensions.Items))
			for _, item := range md.Extensions.Items {
				file.Extensions[item.XMLName.Local] = strings.TrimSpace(item.Value)
			}
		}
	}

	for _, t := range doc.Tracks {
		track := &models.Track{Name: t.Name, Desc: t.Desc}
		for _, s := range t.Segments {
			segment := &models.Segment{Points: make([]*models.Point, 0, len(s.Points))}
			for _, p := range s.Points {
				segment.Points = append(segment.Points, readPoint(p))
			}
			track.Segments = append(track.Segments, segment)
		}
		file.Tracks = append(file.Tracks, track)
	}

	return file, nil
}

func readPoint(p pointXML) *models.Point {
	point := models.NewPoint(p.Lat, p.Lon)
	if p.Elevation != nil {
		point.Elevation = *p.Elevation
	}
	if p.Hdop != nil {
		point.Hdop = *p.Hdop
	}
	if p.Time != nil {
		point.Time = *p.Time
	}
	if p.Extensions != nil {
		point.Speed = findSpeed(p.Extensions.Items)
	}
	return point
}

// findSpeed ищет элемент speed, спускаясь во вложенные расширения
func findSpeed(items []extensionXML) float64 {
	for _, item := range items {
		if strings.EqualFold(item.XMLName.Local, "speed") {
			if v, err := strconv.ParseFloat(strings.TrimSpace(item.Value), 64); err == nil && v > 0 {
				return v
			}
		}
		if v := findSpeed(item.Items); v > 0 {
			return v
		}
	}
	return 0
}

// WriteFile записывает файл в GPX. extensions заменяют расширения файла,
// nil оставляет их без изменений
func WriteFile(path string, file *models.GpxFile, extensions map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := Write(f, file, extensions); err != nil {
		return err
	}
	return f.Close()
}

// Write кодирует файл в GPX и пишет в w
func Write(w io.Writer, file *models.GpxFile, extensions map[string]string) error {
	if extensions == nil {
		extensions = file.Extensions
	}

	doc := document{
		Version:  "1.1",
		Creator:  Creator,
		XMLNS:    Namespace,
		Metadata: writeMetadata(file, extensions),
		Tracks:   make([]trackXML, 0, len(file.Tracks)),
	}
	for _, track := range file.Tracks {
		t := trackXML{Name: track.Name, Desc: track.Desc}
		for _, segment := range track.Segments {
			s := segmentXML{Points: make([]pointXML, 0, len(segment.Points))}
			for _, point := range segment.Points {
				s.Points = append(s.Points, writePoint(point))
			}
			t.Segments = append(t.Segments, s)
		}
		doc.Tracks = append(doc.Tracks, t)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode GPX: %w", err)
	}
	return encoder.Close()
}

func writeMetadata(file *models.GpxFile, extensions map[string]string) *metadataXML {
	md := &metadataXML{Name: file.Name, Desc: file.Desc}
	if file.Author != "" {
		md.Author = &authorXML{Name: file.Author}
	}
	if !file.Time.IsZero() {
		t := file.Time
		md.Time = &t
	}
	if len(extensions) > 0 {
		keys := make([]string, 0, len(extensions))
		for key := range extensions {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		md.Extensions = &extensionsXML{Items: make([]extensionXML, 0, len(keys))}
		for _, key := range keys {
			md.Extensions.Items = append(md.Extensions.Items, extensionXML{
				XMLName: xml.Name{Local: key},
				Value:   extensions[key],
			})
		}
	}
	return md
}

func writePoint(point *models.Point) pointXML {
	p := pointXML{Lat: point.Lat, Lon: point.Lon}
	if point.HasElevation() {
		ele := point.Elevation
		p.Elevation = &ele
	}
	if !point.Time.IsZero() {
		t := point.Time
		p.Time = &t
	}
	if point.HasHdop() {
		hdop := point.Hdop
		p.Hdop = &hdop
	}
	if point.Speed > 0 && !math.IsInf(point.Speed, 0) {
		p.Extensions = &extensionsXML{Items: []extensionXML{{
			XMLName: xml.Name{Local: "speed"},
			Value:   strconv.FormatFloat(point.Speed, 'f', -1, 64),
		}}}
	}
	return p
}
