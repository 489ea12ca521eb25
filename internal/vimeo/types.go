package vimeo

import "time"

// PrivacyEmbedPrivate marks a video whose owner disabled embedding.
const PrivacyEmbedPrivate = "private"

// Picture is one thumbnail variant of a video.
type Picture struct {
	URL   string
	Width int
}

// Video is a single album entry as returned by the API.
type Video struct {
	Name         string
	Description  string
	EmbedHTML    string
	Pictures     []Picture
	PrivacyEmbed string
	ReleaseTime  time.Time
}

// Private reports whether embedding has been disabled for the video.
func (v Video) Private() bool {
	return v.PrivacyEmbed == PrivacyEmbedPrivate
}

// Page is one decoded API response page.
type Page struct {
	Videos []Video
	// Next is the paging pointer relative to the API host, empty on the last page.
	Next string
	// RateLimitRemaining is -1 when the response carried no rate-limit header.
	RateLimitRemaining int
}

// AlbumResult is the fold of every page of an album.
type AlbumResult struct {
	Videos   []Video
	Warnings []string
}

type pageResponse struct {
	Data   []videoPayload `json:"data"`
	Videos []videoPayload `json:"videos"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`

	Error            string `json:"error"`
	DeveloperMessage string `json:"developer_message"`
	ErrorCode        int    `json:"error_code"`
}

type videoPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Embed       struct {
		HTML string `json:"html"`
	} `json:"embed"`
	Pictures struct {
		Sizes []struct {
			Width              int    `json:"width"`
			Link               string `json:"link"`
			LinkWithPlayButton string `json:"link_with_play_button"`
		} `json:"sizes"`
	} `json:"pictures"`
	Privacy struct {
		Embed string `json:"embed"`
	} `json:"privacy"`
	ReleaseTime string `json:"release_time"`
}

func (p videoPayload) toVideo() Video {
	v := Video{
		Name:         p.Name,
		Description:  p.Description,
		EmbedHTML:    p.Embed.HTML,
		PrivacyEmbed: p.Privacy.Embed,
	}
	for _, size := range p.Pictures.Sizes {
		link := size.LinkWithPlayButton
		if link == "" {
			link = size.Link
		}
		v.Pictures = append(v.Pictures, Picture{URL: link, Width: size.Width})
	}
	if p.ReleaseTime != "" {
		if t, err := time.Parse(time.RFC3339, p.ReleaseTime); err == nil {
			v.ReleaseTime = t
		}
	}
	return v
}
