package verdict

import "strings"

// FactItem is one piece of trivia revealed during playback.
type FactItem struct {
	Text        string `json:"text"`
	SourceURL   string `json:"sourceUrl,omitempty"`
	SourceTitle string `json:"sourceTitle,omitempty"`
}

// Displayable reports whether the item has text worth showing.
func (f FactItem) Displayable() bool {
	return strings.TrimSpace(f.Text) != ""
}

// Verdict is the generation collaborator's classification plus trivia payload
// for one video identifier. The JSON names match the generation response.
type Verdict struct {
	Accepted   bool       `json:"isValidMusicVideo"`
	Uncertain  bool       `json:"isMusicVideoUnsure"`
	VideoTitle string     `json:"videoTitle,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	Items      []FactItem `json:"facts"`
}

// DisplayableItems returns a copy of the items with empty-text entries dropped,
// preserving order.
func (v Verdict) DisplayableItems() []FactItem {
	out := make([]FactItem, 0, len(v.Items))
	for _, it := range v.Items {
		if it.Displayable() {
			out = append(out, it)
		}
	}
	return out
}
