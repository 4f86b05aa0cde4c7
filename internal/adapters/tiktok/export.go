package tiktok

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"brandvoice/internal/core/domain"
)

// ParseReport is the result of parsing one channel export: the unique,
// view-sorted records plus counts for reporting. Malformed items (no id)
// are counted, never silently dropped.
type ParseReport struct {
	Records   []domain.VideoRecord
	Total     int
	Malformed int
}

type exportItem struct {
	ID     string `json:"id"`
	Desc   string `json:"desc"`
	Author struct {
		UniqueID string `json:"uniqueId"`
	} `json:"author"`
	Stats struct {
		PlayCount    int64 `json:"playCount"`
		DiggCount    int64 `json:"diggCount"`
		CommentCount int64 `json:"commentCount"`
		ShareCount   int64 `json:"shareCount"`
	} `json:"stats"`
	Video struct {
		Duration int `json:"duration"`
	} `json:"video"`
	Challenges []struct {
		Title string `json:"title"`
	} `json:"challenges"`
	TextExtra []hashtagRef `json:"textExtra"`
	Contents  []struct {
		Desc      string       `json:"desc"`
		TextExtra []hashtagRef `json:"textExtra"`
	} `json:"contents"`
}

type hashtagRef struct {
	HashtagName string `json:"hashtagName"`
}

type exportFile struct {
	ItemList []exportItem `json:"itemList"`
	Data     struct {
		ItemList []exportItem `json:"itemList"`
	} `json:"data"`
}

// ParseExport parses a channel-export JSON document (the raw item_list
// API response) into canonical records. Items are deduplicated by id and
// sorted by view count descending.
func ParseExport(data []byte) (*ParseReport, error) {
	var file exportFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid export JSON: %w", err)
	}

	items := file.ItemList
	if len(items) == 0 {
		items = file.Data.ItemList
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no itemList found in export")
	}

	report := &ParseReport{Total: len(items)}
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		if item.ID == "" {
			report.Malformed++
			continue
		}
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		report.Records = append(report.Records, toRecord(item))
	}

	sort.SliceStable(report.Records, func(i, j int) bool {
		return report.Records[i].Stats.Views > report.Records[j].Stats.Views
	})
	return report, nil
}

func toRecord(item exportItem) domain.VideoRecord {
	desc := item.Desc
	extra := item.TextExtra

	// Some exports nest desc/textExtra inside a contents array.
	if len(item.Contents) > 0 {
		if item.Contents[0].Desc != "" {
			desc = item.Contents[0].Desc
		}
		if len(item.Contents[0].TextExtra) > 0 {
			extra = item.Contents[0].TextExtra
		}
	}

	var hashtags []string
	seen := make(map[string]bool)
	for _, c := range item.Challenges {
		if c.Title != "" && !seen[c.Title] {
			seen[c.Title] = true
			hashtags = append(hashtags, c.Title)
		}
	}
	for _, t := range extra {
		if t.HashtagName != "" && !seen[t.HashtagName] {
			seen[t.HashtagName] = true
			hashtags = append(hashtags, t.HashtagName)
		}
	}

	username := item.Author.UniqueID
	if username == "" {
		username = "unknown"
	}

	return domain.VideoRecord{
		ID:       item.ID,
		URL:      fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", username, item.ID),
		Caption:  desc,
		Hashtags: hashtags,
		Stats: domain.Stats{
			Views:    item.Stats.PlayCount,
			Likes:    item.Stats.DiggCount,
			Comments: item.Stats.CommentCount,
			Shares:   item.Stats.ShareCount,
		},
		DurationSeconds: item.Video.Duration,
		Source:          domain.SourceNone,
	}
}

// ChannelFromPath derives the channel name from an export file path:
// "input/reidhoffman.json" -> "reidhoffman".
func ChannelFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
