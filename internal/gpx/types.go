package gpx

import (
	"encoding/xml"
	"time"
)

const (
	// Namespace пространство имен GPX 1.1
	Namespace = "http://www.topografix.com/GPX/1/1"
	// Creator значение атрибута creator при записи
	Creator = "gpsfilter"
)

// document корневой элемент GPX
type document struct {
	XMLName  xml.Name     `xml:"gpx"`
	Version  string       `xml:"version,attr"`
	Creator  string       `xml:"creator,attr"`
	XMLNS    string       `xml:"xmlns,attr,omitempty"`
	Metadata *metadataXML `xml:"metadata,omitempty"`
	Tracks   []trackXML   `xml:"trk"`
}

type metadataXML struct {
	Name       string         `xml:"name,omitempty"`
	Desc       string         `xml:"desc,omitempty"`
	Author     *authorXML     `xml:"author,omitempty"`
	Time       *time.Time     `xml:"time,omitempty"`
	Extensions *extensionsXML `xml:"extensions,omitempty"`
}

type authorXML struct {
	Name string `xml:"name,omitempty"`
}

// extensionsXML список элементов вида <key>value</key>
type extensionsXML struct {
	Items []extensionXML `xml:",any"`
}

type extensionXML struct {
	XMLName xml.Name
	Value   string         `xml:",chardata"`
	Items   []extensionXML `xml:",any"`
}

type trackXML struct {
	Name     string       `xml:"name,omitempty"`
	Desc     string       `xml:"desc,omitempty"`
	Segments []segmentXML `xml:"trkseg"`
}

type segmentXML struct {
	Points []pointXML `xml:"trkpt"`
}

type pointXML struct {
	Lat        float64        `xml:"lat,attr"`
	Lon        float64        `xml:"lon,attr"`
	Elevation  *float64       `xml:"ele,omitempty"`
	Time       *time.Time     `xml:"time,omitempty"`
	Hdop       *float64       `xml:"hdop,omitempty"`
	Extensions *extensionsXML `xml:"extensions,omitempty"`
}
