package site

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/hitoshi/ticker/internal/model"
)

// サイト自身が配信するRSSフィードの最大件数。
const feedMaxItems = 50

const rfc1123GMT = "Mon, 02 Jan 2006 15:04:05 GMT"

type rssCDATA struct {
	Text string `xml:",cdata"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssItem struct {
	Title       rssCDATA `xml:"title"`
	Description rssCDATA `xml:"description"`
	Link        string   `xml:"link"`
	PubDate     string   `xml:"pubDate"`
	GUID        rssGUID  `xml:"guid"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Description   string    `xml:"description"`
	Link          string    `xml:"link"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Language      string    `xml:"language"`
	Items         []rssItem `xml:"item"`
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

// writeFeed はサイト自身のRSSフィード(feed.xml)を生成する。
// 最新の feedMaxItems 件のみを含める。guidは記事ID。
func (r *Renderer) writeFeed(articles []model.Article, now time.Time) error {
	items := articles
	if len(items) > feedMaxItems {
		items = items[:feedMaxItems]
	}

	channel := rssChannel{
		Title:         r.opts.SiteTitle,
		Description:   r.opts.SiteDescription,
		Link:          r.opts.SiteURL,
		LastBuildDate: now.UTC().Format(rfc1123GMT),
		Language:      "en",
	}
	for _, a := range items {
		channel.Items = append(channel.Items, rssItem{
			Title:       rssCDATA{Text: a.Title},
			Description: rssCDATA{Text: a.Summary},
			Link:        a.URL,
			PubDate:     a.PublishedAt.UTC().Format(rfc1123GMT),
			GUID:        rssGUID{IsPermaLink: "false", Value: a.ID},
		})
	}

	data, err := xml.MarshalIndent(rssDocument{Version: "2.0", Channel: channel}, "", "  ")
	if err != nil {
		return fmt.Errorf("feed.xmlの生成に失敗: %w", err)
	}

	if err := r.writeFile("feed.xml", xml.Header+string(data)+"\n"); err != nil {
		return fmt.Errorf("feed.xmlの書き込みに失敗: %w", err)
	}
	return nil
}
