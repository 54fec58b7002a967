package feed

import "encoding/xml"

// RSS is the root of an exported feed
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Atom    string   `xml:"xmlns:atom,attr"`
	Channel Channel  `xml:"channel"`
}

// Channel holds feed metadata and article items
type Channel struct {
	Title         string   `xml:"title"`
	Link          string   `xml:"link"`
	Description   string   `xml:"description"`
	Language      string   `xml:"language"`
	SelfLink      AtomLink `xml:"http://www.w3.org/2005/Atom link"`
	LastBuildDate string   `xml:"lastBuildDate"`
	Items         []Item   `xml:"item"`
}

// AtomLink is the atom:link self reference
type AtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// Item is a single article, category is the enriched label
type Item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link,omitempty"`
	GUID        GUID   `xml:"guid"`
	Description string `xml:"description"`
	Author      string `xml:"author,omitempty"`
	PubDate     string `xml:"pubDate"`
	Source      string `xml:"source,omitempty"`
	Category    string `xml:"category,omitempty"`
}

// GUID identifies an item, permalink only when it is the article url
type GUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}
