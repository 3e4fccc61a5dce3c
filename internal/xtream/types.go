package xtream

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// AuthInfo is the player_api.php response without an action.
type AuthInfo struct {
	UserInfo   UserInfo   `json:"user_info"`
	ServerInfo ServerInfo `json:"server_info"`
}

// UserInfo describes the account behind the credentials.
type UserInfo struct {
	Username       string  `json:"username"`
	Auth           FlexInt `json:"auth"`
	Status         string  `json:"status"`
	Message        string  `json:"message"`
	ExpDate        FlexInt `json:"exp_date"`
	MaxConnections FlexInt `json:"max_connections"`
}

// Authenticated reports whether the panel accepted the credentials.
func (u *UserInfo) Authenticated() bool {
	return u.Auth.Int() == 1
}

type ServerInfo struct {
	URL      string  `json:"url"`
	Port     FlexInt `json:"port"`
	Protocol string  `json:"server_protocol"`
	Timezone string  `json:"timezone"`
}

type category struct {
	ID   FlexString `json:"category_id"`
	Name string     `json:"category_name"`
}

type liveStream struct {
	StreamID           FlexString `json:"stream_id"`
	Name               string     `json:"name"`
	StreamIcon         string     `json:"stream_icon"`
	EPGChannelID       string     `json:"epg_channel_id"`
	CategoryID         FlexString `json:"category_id"`
	CategoryName       string     `json:"category_name"`
	ContainerExtension string     `json:"container_extension"`
}

type vodStream struct {
	StreamID           FlexString `json:"stream_id"`
	Name               string     `json:"name"`
	StreamIcon         string     `json:"stream_icon"`
	Plot               string     `json:"plot"`
	Year               FlexString `json:"year"`
	ReleaseDate        string     `json:"releasedate"`
	CategoryID         FlexString `json:"category_id"`
	CategoryName       string     `json:"category_name"`
	ContainerExtension string     `json:"container_extension"`
}

type seriesStream struct {
	SeriesID     FlexString `json:"series_id"`
	Name         string     `json:"name"`
	Cover        string     `json:"cover"`
	Plot         string     `json:"plot"`
	CategoryID   FlexString `json:"category_id"`
	CategoryName string     `json:"category_name"`
}

type seriesInfo struct {
	Info     seriesDetails   `json:"info"`
	Episodes json.RawMessage `json:"episodes"`
}

type seriesDetails struct {
	SeriesID     FlexString `json:"series_id"`
	Name         string     `json:"name"`
	Cover        string     `json:"cover"`
	Plot         string     `json:"plot"`
	CategoryID   FlexString `json:"category_id"`
	CategoryName string     `json:"category_name"`
}

type episode struct {
	ID                 FlexString `json:"id"`
	EpisodeNum         FlexInt    `json:"episode_num"`
	Title              string     `json:"title"`
	ContainerExtension string     `json:"container_extension"`
	Season             FlexInt    `json:"season"`
}

type epgListing struct {
	ID             FlexString `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Start          string     `json:"start"`
	End            string     `json:"end"`
	StartTimestamp FlexInt    `json:"start_timestamp"`
	StopTimestamp  FlexInt    `json:"stop_timestamp"`
}

const epgTimeLayout = "2006-01-02 15:04:05"

func (e *epgListing) startTime() time.Time {
	return listingTime(e.StartTimestamp, e.Start)
}

func (e *epgListing) endTime() time.Time {
	return listingTime(e.StopTimestamp, e.End)
}

func listingTime(ts FlexInt, s string) time.Time {
	if ts.Int() > 0 {
		return time.Unix(ts.Int(), 0).UTC()
	}
	if t, err := time.Parse(epgTimeLayout, s); err == nil {
		return t
	}
	return time.Time{}
}

// FlexInt decodes JSON numbers that panels send either bare or quoted.
// Unparseable values decode to zero.
type FlexInt int64

func (f FlexInt) Int() int64 { return int64(f) }

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			n = 0
		}
		*f = FlexInt(n)
		return nil
	}
	*f = 0
	return nil
}

// FlexString decodes JSON strings or numbers into a string.
type FlexString string

func (f FlexString) String() string { return string(f) }

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}
	*f = ""
	return nil
}
