package feed

import (
	"testing"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Blog</title>
    <link>https://example.com</link>
    <description>A test feed</description>
    <item>
      <guid>https://example.com/posts/1</guid>
      <title>First Post</title>
      <link>https://example.com/posts/1</link>
      <description>Summary of the first post</description>
      <author>jane@example.com (Jane Doe)</author>
      <category>golang</category>
      <category>testing</category>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    </item>
    <item>
      <title>Second Post</title>
      <link>https://example.com/posts/2</link>
      <description>Summary of the second post</description>
    </item>
  </channel>
</rss>`

func TestParserRun(t *testing.T) {
	parser := NewParser()

	metadata, items, err := parser.Run([]byte(sampleRSS))
	if err != nil {
		t.Fatal(err)
	}

	if metadata.Title != "Example Blog" {
		t.Errorf("Expected title 'Example Blog', got '%s'", metadata.Title)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.GUID != "https://example.com/posts/1" {
		t.Errorf("Expected explicit GUID, got '%s'", first.GUID)
	}
	if first.Title != "First Post" {
		t.Errorf("Expected title 'First Post', got '%s'", first.Title)
	}
	if first.Author != "Jane Doe" {
		t.Errorf("Expected author name 'Jane Doe', got '%s'", first.Author)
	}
	if len(first.Tags) != 2 || first.Tags[0] != "golang" {
		t.Errorf("Expected categories mapped to tags, got %v", first.Tags)
	}
	if first.Content == "" {
		t.Errorf("Expected description used as content fallback")
	}
	if first.PublishedAt == nil {
		t.Errorf("Expected published date parsed")
	}
	if first.ContentHash == "" {
		t.Errorf("Expected content hash")
	}

	// Missing GUID falls back to the link
	second := items[1]
	if second.GUID != "https://example.com/posts/2" {
		t.Errorf("Expected link as GUID fallback, got '%s'", second.GUID)
	}
}

func TestParserContentHashStable(t *testing.T) {
	parser := NewParser()

	a := parser.generateContentHash(Item{Title: "T", Link: "https://example.com/1"})
	b := parser.generateContentHash(Item{Title: "T", Link: "https://example.com/1"})
	c := parser.generateContentHash(Item{Title: "T2", Link: "https://example.com/1"})

	if a != b {
		t.Errorf("Expected identical hashes for identical input")
	}
	if a == c {
		t.Errorf("Expected different hashes for different titles")
	}
}

func TestParserInvalidData(t *testing.T) {
	parser := NewParser()

	_, _, err := parser.Run([]byte("not xml at all"))
	if err == nil {
		t.Error("Expected error for invalid feed data")
	}
}
