package xapi

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// bookmarkTemplate is the bird-CLI-compatible shape every normalized bookmark
// starts from, so both acquisition paths feed downstream consumers the same
// schema.
const bookmarkTemplate = `{"id":"","text":"","createdAt":"","replyCount":0,"retweetCount":0,"likeCount":0,"bookmarkCount":0,"viewCount":0,"author":{"username":"","name":""},"media":[]}`

// NormalizeBookmarksPage converts one X API v2 bookmarks response page into
// bird-CLI-compatible bookmark records. Tweet fields pass through; only the
// shape changes: authors and media are resolved from the response's includes
// section into inline objects.
func NormalizeBookmarksPage(page []byte) []string {
	root := gjson.ParseBytes(page)
	data := root.Get("data")
	if !data.Exists() || !data.IsArray() {
		return nil
	}

	// Build lookup maps from includes
	users := make(map[string]gjson.Result)
	root.Get("includes.users").ForEach(func(_, user gjson.Result) bool {
		users[user.Get("id").String()] = user
		return true
	})
	media := make(map[string]gjson.Result)
	root.Get("includes.media").ForEach(func(_, m gjson.Result) bool {
		media[m.Get("media_key").String()] = m
		return true
	})

	var bookmarks []string
	data.ForEach(func(_, tweet gjson.Result) bool {
		bookmarks = append(bookmarks, normalizeTweet(tweet, users, media))
		return true
	})
	return bookmarks
}

// normalizeTweet renders a single API v2 tweet as a bird-compatible record.
func normalizeTweet(tweet gjson.Result, users, media map[string]gjson.Result) string {
	out := bookmarkTemplate
	out, _ = sjson.Set(out, "id", tweet.Get("id").String())
	out, _ = sjson.Set(out, "text", tweet.Get("text").String())
	out, _ = sjson.Set(out, "createdAt", tweet.Get("created_at").String())

	metrics := tweet.Get("public_metrics")
	out, _ = sjson.Set(out, "replyCount", metrics.Get("reply_count").Int())
	out, _ = sjson.Set(out, "retweetCount", metrics.Get("retweet_count").Int())
	out, _ = sjson.Set(out, "likeCount", metrics.Get("like_count").Int())
	out, _ = sjson.Set(out, "bookmarkCount", metrics.Get("bookmark_count").Int())
	out, _ = sjson.Set(out, "viewCount", metrics.Get("impression_count").Int())

	if author, ok := users[tweet.Get("author_id").String()]; ok {
		out, _ = sjson.Set(out, "author.username", author.Get("username").String())
		out, _ = sjson.Set(out, "author.name", author.Get("name").String())
	}

	tweet.Get("attachments.media_keys").ForEach(func(_, key gjson.Result) bool {
		m, ok := media[key.String()]
		if !ok {
			return true
		}
		mediaType := m.Get("type").String()
		if mediaType == "" {
			mediaType = "photo"
		}
		mediaURL := m.Get("url").String()
		if mediaURL == "" {
			mediaURL = m.Get("preview_image_url").String()
		}
		entry, _ := sjson.Set(`{"type":"","url":""}`, "type", mediaType)
		entry, _ = sjson.Set(entry, "url", mediaURL)
		out, _ = sjson.SetRaw(out, "media.-1", entry)
		return true
	})

	// Only quote references are surfaced; replies and retweets stay implicit
	// in the text the way the bird CLI reports them.
	tweet.Get("referenced_tweets").ForEach(func(_, ref gjson.Result) bool {
		if ref.Get("type").String() == "quoted" {
			out, _ = sjson.Set(out, "quotedTweet.id", ref.Get("id").String())
			return false
		}
		return true
	})

	return out
}
