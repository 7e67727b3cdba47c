package feed

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) (*Metadata, []Item, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       parsed.Title,
		Link:        parsed.Link,
		Description: parsed.Description,
		Language:    parsed.Language,
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		normalized := p.normalizeItem(item)
		normalized.ContentHash = p.generateContentHash(normalized)
		items = append(items, normalized)
	}

	return metadata, items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		GUID:  cmp.Or(item.GUID, item.Link),
		Title: item.Title,
		Link:  item.Link,
		// Many feeds only carry a summary; fall back to it when the full
		// content element is absent.
		Content: cmp.Or(item.Content, item.Description),
		Author:  p.extractAuthor(item),
	}

	if item.PublishedParsed != nil {
		normalized.PublishedAt = item.PublishedParsed
	}

	if item.Categories != nil {
		normalized.Tags = item.Categories
	}

	return normalized
}

func (p *Parser) generateContentHash(item Item) string {
	content := fmt.Sprintf("%s|%s", item.Title, item.Link)

	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

func (p *Parser) extractAuthor(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		if author := p.formatAuthor(item.Authors[0].Name, item.Authors[0].Email); author != "" {
			return author
		}
	}
	if item.Author != nil {
		return p.formatAuthor(item.Author.Name, item.Author.Email)
	}
	return ""
}

func (p *Parser) formatAuthor(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name != "" {
		return name
	}
	return email
}
