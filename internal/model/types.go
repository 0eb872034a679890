package model

import (
	"encoding/json"
	"fmt"
)

// Message is one entry of an exported chat transcript.
type Message struct {
	ID              string            `json:"id,omitempty"`
	Author          Author            `json:"author"`
	Timestamp       string            `json:"timestamp"`
	TimestampEdited *string           `json:"timestampEdited,omitempty"`
	Content         string            `json:"content"`
	Attachments     []Attachment      `json:"attachments,omitempty"`
	Stickers        []json.RawMessage `json:"stickers,omitempty"`
	Reactions       []Reaction        `json:"reactions,omitempty"`
	InlineEmojis    []InlineEmoji     `json:"inlineEmojis,omitempty"`
}

// Edited reports whether the message carries a non-empty edit timestamp.
func (m Message) Edited() bool { return m.TimestampEdited != nil && *m.TimestampEdited != "" }

type Author struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Nickname string `json:"nickname,omitempty"`
}

type Attachment struct {
	FileName string `json:"fileName"`
	URL      string `json:"url,omitempty"`
}

type Reaction struct {
	Count int   `json:"count"`
	Emoji Emoji `json:"emoji"`
}

type Emoji struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// InlineEmoji is a custom emoji rendered inside message text.
type InlineEmoji struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Bucket is a time bucket and its message count, encoded as [key, count].
type Bucket struct {
	Key   string
	Count int
}

// EmptyBucket is reported when no message had a usable timestamp.
var EmptyBucket = Bucket{Key: "N/A", Count: 0}

func (b Bucket) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{b.Key, b.Count})
}

func (b *Bucket) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("bucket: want [key, count], got %d elements", len(pair))
	}
	var key any
	if err := json.Unmarshal(pair[0], &key); err != nil {
		return err
	}
	switch k := key.(type) {
	case string:
		b.Key = k
	case float64:
		b.Key = fmt.Sprintf("%.0f", k)
	default:
		return fmt.Errorf("bucket: unsupported key %T", key)
	}
	return json.Unmarshal(pair[1], &b.Count)
}

type MessageCounts struct {
	Total     int `json:"total_messages"`
	WithText  int `json:"messages_with_text"`
	WithLinks int `json:"messages_with_links"`
	Images    int `json:"messages_with_images"`
	GIFs      int `json:"messages_with_gifs"`
	Videos    int `json:"messages_with_videos"`
	Stickers  int `json:"messages_with_stickers"`
	Audio     int `json:"messages_with_audio_files"`
	Documents int `json:"messages_with_documents"`
	Other     int `json:"messages_with_other_files"`
	Edited    int `json:"edited_messages"`
}

type ActivityMetrics struct {
	AvgPerDay          float64 `json:"average_messages_per_day"`
	LongestGap         string  `json:"longest_period_without_messages"`
	LongestActiveStint string  `json:"longest_active_conversation"`
}

type TimeDetails struct {
	Year  Bucket `json:"most_active_year"`
	Month Bucket `json:"most_active_month"`
	Day   Bucket `json:"most_active_day"`
	Hour  Bucket `json:"most_active_hour"`
}

type WordUsage struct {
	Total     int     `json:"total_meaningful_words"`
	Unique    int     `json:"unique_words_used"`
	AvgPerMsg float64 `json:"average_words_per_message"`
}

type EmojiUsage struct {
	Total                int `json:"total_emoji_used"`
	MessagesWithEmoji    int `json:"messages_with_at_least_one_emoji"`
	ReactionTotal        int `json:"total_emoji_used_in_reactions"`
	ReactionUnique       int `json:"unique_emoji_used_in_reactions"`
	MessagesWithReaction int `json:"messages_with_at_least_one_emoji_reacted"`
}

type TopEmoji struct {
	Emoji    string `json:"emoji"`
	Count    int    `json:"count"`
	ImageURL string `json:"imageUrl"`
}

// Stats is the behavioral profile of one participant. Field names in JSON
// are part of the external contract.
type Stats struct {
	Counts   MessageCounts   `json:"Message Counts and Types"`
	Activity ActivityMetrics `json:"Activity Metrics"`
	Time     TimeDetails     `json:"Time-Related Details"`
	Words    WordUsage       `json:"Word Usage Statistics"`
	Emoji    EmojiUsage      `json:"Emoji Usage (in text and reactions)"`
	TopEmoji TopEmoji        `json:"Most Used Emoji"`

	Dryness      *float64 `json:"Dryness Score"`
	DrynessLabel string   `json:"Funny Dryness Label"`
	Humor        *float64 `json:"Humor Score"`
	HumorLabel   string   `json:"Funny Humor Label"`
	Romance      *float64 `json:"Romance Score"`
	RomanceLabel string   `json:"Funny Romance Label"`
}

// Keyword is a topic keyword with its share of the topic (percent).
type Keyword struct {
	Word   string  `json:"keyword"`
	Weight float64 `json:"weight"`
}

// Topic is a participant's favorite topic.
type Topic struct {
	Keywords []Keyword `json:"keywords"`
	Label    string    `json:"label"`
}

// EmptyTopic is returned when there is too little text to cluster.
func EmptyTopic() Topic { return Topic{Keywords: []Keyword{}} }

// Empty reports whether no topic could be derived.
func (t Topic) Empty() bool { return len(t.Keywords) == 0 && t.Label == "" }

// Profile is the full analysis output for one participant.
type Profile struct {
	Username   string      `json:"username"`
	Stats      Stats       `json:"stats"`
	Topic      Topic       `json:"topic"`
	Vector     []float64   `json:"vector"`
	Projection *[3]float64 `json:"projection,omitempty"`
}
