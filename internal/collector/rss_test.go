package collector

import (
	"encoding/xml"
	"strings"
	"testing"
)

const rss2Fixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Ad Age</title>
    <item>
      <title>WPP wins &lt;b&gt;global&lt;/b&gt; media account</title>
      <link>https://adage.com/article/wpp-wins</link>
      <description>The agency picked up a major account.</description>
      <pubDate>Sat, 14 Jun 2025 09:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Untitled entry has no link</title>
    </item>
  </channel>
</rss>`

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Adweek</title>
  <entry>
    <title>Holding company shakeup</title>
    <link rel="alternate" href="https://adweek.com/shakeup"/>
    <link rel="enclosure" href="https://adweek.com/shakeup.mp3"/>
    <summary>Leadership changes across the majors.</summary>
    <published>2025-06-13T08:00:00Z</published>
  </entry>
</feed>`

const rdfFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns="http://purl.org/rss/1.0/"
         xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel><title>Campaign</title></channel>
  <item>
    <title>Pitch season heats up</title>
    <link>https://campaignlive.co.uk/pitch-season</link>
    <dc:date>2025-06-12T10:00:00Z</dc:date>
  </item>
</rdf:RDF>`

func decodeFeed(t *testing.T, raw string) feedDocument {
	t.Helper()
	var doc feedDocument
	if err := xml.NewDecoder(strings.NewReader(raw)).Decode(&doc); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return doc
}

func TestFeedDocument_RSS2(t *testing.T) {
	doc := decodeFeed(t, rss2Fixture)
	if doc.Channel == nil || len(doc.Channel.Items) != 2 {
		t.Fatalf("expected 2 channel items, got %+v", doc.Channel)
	}

	e := doc.Channel.Items[0]
	if got := e.url(); got != "https://adage.com/article/wpp-wins" {
		t.Errorf("url = %q", got)
	}
	if got := e.date(); got != "2025-06-14" {
		t.Errorf("date = %q, want 2025-06-14", got)
	}
	if got := stripMarkup(e.Title); got != "WPP wins global media account" {
		t.Errorf("title = %q", got)
	}
	if got := e.snippet(); got != "The agency picked up a major account." {
		t.Errorf("snippet = %q", got)
	}

	// Entries without a link are unusable.
	if got := doc.Channel.Items[1].url(); got != "" {
		t.Errorf("linkless entry produced url %q", got)
	}
}

func TestFeedDocument_Atom(t *testing.T) {
	doc := decodeFeed(t, atomFixture)
	if len(doc.Entries) != 1 {
		t.Fatalf("expected 1 atom entry, got %d", len(doc.Entries))
	}

	e := doc.Entries[0]
	// The alternate link wins over the enclosure.
	if got := e.url(); got != "https://adweek.com/shakeup" {
		t.Errorf("url = %q", got)
	}
	if got := e.date(); got != "2025-06-13" {
		t.Errorf("date = %q, want 2025-06-13", got)
	}
	if got := e.snippet(); got != "Leadership changes across the majors." {
		t.Errorf("snippet = %q", got)
	}
}

func TestFeedDocument_RDF(t *testing.T) {
	doc := decodeFeed(t, rdfFixture)
	if len(doc.Items) != 1 {
		t.Fatalf("expected 1 top-level item, got %d", len(doc.Items))
	}

	e := doc.Items[0]
	if got := e.url(); got != "https://campaignlive.co.uk/pitch-season" {
		t.Errorf("url = %q", got)
	}
	if got := e.date(); got != "2025-06-12" {
		t.Errorf("dc:date = %q, want 2025-06-12", got)
	}
}
