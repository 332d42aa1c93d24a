package generation

import "fmt"

// Request is what the orchestrator asks the generation collaborator for.
type Request struct {
	Identifier string
	// Title is the oEmbed title when it could be resolved, else empty.
	Title string
}

const systemInstruction = `You research music videos and return trivia about them.

You receive a verified video title, or only a URL.

1. Identify the artist and song. If you only have a URL, search for its title first.
   Official videos, lyric videos and live performances count as music videos.
   Vlogs, gameplay, reviews and anything else do not: set "isValidMusicVideo" to false.
2. Search for facts about that artist and song (not about the URL): samples used,
   director and filming location, release year and chart history, parent album.
   Keep only facts about this exact song.
3. Every fact needs "sourceUrl" and "sourceTitle" (Wikipedia, Discogs, Genius and similar).
   Never cite youtube.com or youtu.be. Do not describe visuals unless they are production facts.
4. If you are not sure the video is a music video, set "isMusicVideoUnsure" to true.
   If you cannot identify the song at all, set "isValidMusicVideo" to false and do not
   fall back to facts about some other well-known song.

Reply with raw JSON only, using single quotes inside strings:
{
  "isValidMusicVideo": boolean,
  "isMusicVideoUnsure": boolean,
  "videoTitle": "Artist - Song",
  "reason": "short explanation when invalid",
  "facts": [{"text": "...", "sourceUrl": "https://...", "sourceTitle": "..."}]
}`

// BuildPrompt returns the user prompt for req.
func BuildPrompt(req Request) string {
	url := WatchURL(req.Identifier)
	if req.Title != "" {
		return fmt.Sprintf("Analyze this music video.\nVerified title: %q\nURL: %s", req.Title, url)
	}
	return "Analyze this YouTube URL: " + url
}
