package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/catalog"
)

// minChapterTitleRunes is the shortest recovered text accepted as a title.
const minChapterTitleRunes = 3

var (
	mp3URLPattern = regexp.MustCompile(`(?i)https?://[^"'\s\\]+\.mp3[^"'\s\\]*`)

	// Localized anchor texts that mark a download/play link.
	downloadTextMarkers = []string{"Tải", "Download"}

	scriptMarkers = []string{"playlist", "tracks", "mp3"}
)

// linkChapters scans anchors that look like download or play links and
// resolves each into a chapter. Anchors whose href yields no audio URL are
// dropped without consuming an index.
func linkChapters(doc *goquery.Document) []catalog.ExtractedChapter {
	var chapters []catalog.ExtractedChapter
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		text := strings.TrimSpace(sel.Text())
		if !isDownloadLink(href, text) {
			return
		}
		audioURL := ResolveAudioURL(href)
		if audioURL == "" {
			return
		}
		index := len(chapters) + 1
		chapters = append(chapters, catalog.ExtractedChapter{
			Title:        chapterTitle(sel, text, index),
			ChapterIndex: index,
			AudioURL:     audioURL,
		})
	})
	return chapters
}

// scriptChapters appends audio URLs found in inline player scripts after the
// link-based chapters, skipping URLs already collected. Indexing continues
// from the current chapter count rather than interleaving.
func scriptChapters(doc *goquery.Document, chapters []catalog.ExtractedChapter) []catalog.ExtractedChapter {
	seen := make(map[string]struct{}, len(chapters))
	for _, ch := range chapters {
		seen[ch.AudioURL] = struct{}{}
	}

	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		content := sel.Text()
		if !containsAny(content, scriptMarkers) {
			return
		}
		// Player configs JSON-escape forward slashes; undo that before
		// matching so escaped URLs are found too.
		content = strings.ReplaceAll(content, `\/`, "/")
		for _, match := range mp3URLPattern.FindAllString(content, -1) {
			audioURL := strings.Trim(match, `"'\`)
			if _, dup := seen[audioURL]; dup {
				continue
			}
			seen[audioURL] = struct{}{}
			index := len(chapters) + 1
			chapters = append(chapters, catalog.ExtractedChapter{
				Title:        fmt.Sprintf("Chương %d", index),
				ChapterIndex: index,
				AudioURL:     audioURL,
			})
		}
	})
	return chapters
}

func isDownloadLink(href, text string) bool {
	if strings.Contains(href, "megaurl") || strings.Contains(href, ".mp3") {
		return true
	}
	for _, marker := range downloadTextMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// chapterTitle prefers the first non-blank text node around the link (the
// list item usually carries the episode name), then the link text, then a
// numbered placeholder when the recovered text is blank or too short.
func chapterTitle(link *goquery.Selection, linkText string, index int) string {
	title := linkText
	if parent := link.Parent(); parent.Length() > 0 {
		if t := firstTextNode(parent.Get(0)); t != "" {
			title = t
		}
	}
	if utf8.RuneCountInString(title) < minChapterTitleRunes {
		title = fmt.Sprintf("Chương %d", index)
	}
	return title
}

// firstTextNode walks the subtree in document order and returns the first
// non-whitespace text node, trimmed.
func firstTextNode(n *html.Node) string {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			return t
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := firstTextNode(c); t != "" {
			return t
		}
	}
	return ""
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
