package notion

import (
	"context"
	"strconv"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/neon-guide/guide-cli/internal/model"
)

// QueryAll fetches all pages from a Notion database, handling pagination.
// Rate limiting is enforced by the Client (3 req/s by default).
// Uses prefetch: starts fetching page N+1 in a goroutine while processing
// page N, reducing effective latency for multi-page results.
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page

	req := &notionapi.DatabaseQueryRequest{}
	if filter != nil {
		req.Filter = filter.Filter
		req.Sorts = filter.Sorts
		req.PageSize = filter.PageSize
	}

	// Prefetch state: holds the result of a prefetched next page.
	type prefetchResult struct {
		resp *notionapi.DatabaseQueryResponse
		err  error
	}
	var prefetchCh <-chan prefetchResult

	for {
		var resp *notionapi.DatabaseQueryResponse
		var err error

		if prefetchCh != nil {
			result := <-prefetchCh
			resp, err = result.resp, result.err
		} else {
			resp, err = c.QueryDatabase(ctx, dbID, req)
		}

		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}

		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}

		// Start prefetching the next page in a goroutine.
		nextReq := &notionapi.DatabaseQueryRequest{
			StartCursor: resp.NextCursor,
		}
		if filter != nil {
			nextReq.Filter = filter.Filter
			nextReq.Sorts = filter.Sorts
			nextReq.PageSize = filter.PageSize
		}

		ch := make(chan prefetchResult, 1)
		prefetchCh = ch
		go func() {
			r, e := c.QueryDatabase(ctx, dbID, nextReq)
			ch <- prefetchResult{resp: r, err: e}
		}()
	}

	return all, nil
}

// PublishFinds creates one review page per find, skipping finds whose
// Kakao ID already has a page in the database. Returns the number of
// pages created.
func PublishFinds(ctx context.Context, c Client, dbID string, finds []model.Find) (int, error) {
	existing, err := publishedKakaoIDs(ctx, c, dbID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, f := range finds {
		if f.KakaoID != "" && existing[f.KakaoID] {
			zap.L().Debug("notion: find already published",
				zap.String("place", f.Name), zap.String("kakao_id", f.KakaoID))
			continue
		}
		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(dbID),
			},
			Properties: findProperties(f),
		}
		if _, err := c.CreatePage(ctx, req); err != nil {
			return created, eris.Wrapf(err, "notion: publish %q", f.Name)
		}
		created++
	}
	zap.L().Info("notion: published review queue",
		zap.Int("created", created), zap.Int("skipped", len(finds)-created))
	return created, nil
}

// publishedKakaoIDs collects the Kakao ID of every page already in the
// review database.
func publishedKakaoIDs(ctx context.Context, c Client, dbID string) (map[string]bool, error) {
	pages, err := QueryAll(ctx, c, dbID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "notion: list published finds")
	}
	ids := make(map[string]bool, len(pages))
	for _, page := range pages {
		if id := pageKakaoID(page); id != "" {
			ids[id] = true
		}
	}
	return ids, nil
}

func pageKakaoID(page notionapi.Page) string {
	prop, ok := page.Properties["Kakao ID"]
	if !ok {
		return ""
	}
	rt, ok := prop.(*notionapi.RichTextProperty)
	if !ok || len(rt.RichText) == 0 {
		return ""
	}
	return rt.RichText[0].PlainText
}

func findProperties(f model.Find) notionapi.Properties {
	props := notionapi.Properties{
		"Restaurant Name": &notionapi.TitleProperty{
			Title: richText(f.Name),
		},
		"Neighborhood": &notionapi.RichTextProperty{RichText: richText(f.Neighborhood)},
		"Keyword":      &notionapi.RichTextProperty{RichText: richText(f.Keyword)},
		"Score":        &notionapi.NumberProperty{Number: float64(f.Score)},
		"Award Level": &notionapi.SelectProperty{
			Select: notionapi.Option{Name: awardOption(f.AwardLevel)},
		},
		"AI Justification": &notionapi.RichTextProperty{RichText: richText(f.Justification)},
		"English Desc":     &notionapi.RichTextProperty{RichText: richText(f.DescriptionEN)},
		"Korean Desc":      &notionapi.RichTextProperty{RichText: richText(f.DescriptionKO)},
		"Kakao ID":         &notionapi.RichTextProperty{RichText: richText(f.KakaoID)},
	}
	if f.KakaoURL != "" {
		props["Kakao URL"] = &notionapi.URLProperty{URL: f.KakaoURL}
	}
	if lat, err := strconv.ParseFloat(f.Latitude, 64); err == nil {
		props["Lat"] = &notionapi.NumberProperty{Number: lat}
	}
	if lon, err := strconv.ParseFloat(f.Longitude, 64); err == nil {
		props["Lon"] = &notionapi.NumberProperty{Number: lon}
	}
	return props
}

func richText(s string) []notionapi.RichText {
	if s == "" {
		return []notionapi.RichText{}
	}
	return []notionapi.RichText{{Text: &notionapi.Text{Content: s}}}
}

func awardOption(level string) string {
	if level == "" {
		return "None"
	}
	return level
}
