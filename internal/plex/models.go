package plex

import (
	"strconv"
	"strings"
)

// ServerInfo identifies a connected media server.
type ServerInfo struct {
	FriendlyName      string
	MachineIdentifier string
	Version           string
}

// Section is a library section such as "TV Shows".
type Section struct {
	Key   string
	Title string
	Type  string
}

// IsTV reports whether the section holds shows.
func (s Section) IsTV() bool {
	switch strings.ToLower(s.Type) {
	case "show", "tvshows", "tv":
		return true
	}
	return false
}

// Show is a top-level series in a TV library.
type Show struct {
	RatingKey  string
	Title      string
	SectionKey string
}

// Season groups episodes of a show.
type Season struct {
	RatingKey string
	Title     string
	Index     int
	ShowTitle string
}

// Part is one file backing a media item.
type Part struct {
	Key  string
	File string
	Size int64
}

// Media is one version of an item; it usually has a single part.
type Media struct {
	Parts []Part
}

// Episode is a single TV episode.
type Episode struct {
	RatingKey  string
	Title      string
	ShowTitle  string
	Season     int
	Index      int
	SectionKey string
	Media      []Media
}

// FirstPart returns the first part of the first media version.
func (e Episode) FirstPart() (Part, bool) {
	if len(e.Media) == 0 || len(e.Media[0].Parts) == 0 {
		return Part{}, false
	}
	return e.Media[0].Parts[0], true
}

type mediaContainer struct {
	FriendlyName      string         `xml:"friendlyName,attr"`
	MachineIdentifier string         `xml:"machineIdentifier,attr"`
	Version           string         `xml:"version,attr"`
	LibrarySectionID  string         `xml:"librarySectionID,attr"`
	Directories       []xmlDirectory `xml:"Directory"`
	Videos            []xmlVideo     `xml:"Video"`
}

type xmlDirectory struct {
	Key              string `xml:"key,attr"`
	RatingKey        string `xml:"ratingKey,attr"`
	Title            string `xml:"title,attr"`
	Type             string `xml:"type,attr"`
	Index            string `xml:"index,attr"`
	ParentTitle      string `xml:"parentTitle,attr"`
	LibrarySectionID string `xml:"librarySectionID,attr"`
}

type xmlVideo struct {
	RatingKey        string     `xml:"ratingKey,attr"`
	Type             string     `xml:"type,attr"`
	Title            string     `xml:"title,attr"`
	GrandparentTitle string     `xml:"grandparentTitle,attr"`
	ParentIndex      string     `xml:"parentIndex,attr"`
	Index            string     `xml:"index,attr"`
	LibrarySectionID string     `xml:"librarySectionID,attr"`
	Media            []xmlMedia `xml:"Media"`
}

type xmlMedia struct {
	Parts []xmlPart `xml:"Part"`
}

type xmlPart struct {
	Key  string `xml:"key,attr"`
	File string `xml:"file,attr"`
	Size string `xml:"size,attr"`
}

func (v xmlVideo) episode(fallbackSection string) Episode {
	ep := Episode{
		RatingKey:  v.RatingKey,
		Title:      v.Title,
		ShowTitle:  v.GrandparentTitle,
		Season:     atoi(v.ParentIndex),
		Index:      atoi(v.Index),
		SectionKey: v.LibrarySectionID,
	}
	if ep.SectionKey == "" {
		ep.SectionKey = fallbackSection
	}
	for _, m := range v.Media {
		media := Media{}
		for _, p := range m.Parts {
			size, _ := strconv.ParseInt(p.Size, 10, 64)
			media.Parts = append(media.Parts, Part{Key: p.Key, File: p.File, Size: size})
		}
		ep.Media = append(ep.Media, media)
	}
	return ep
}

func atoi(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}
