package announce

import (
	"fmt"
	"strings"

	"concrnt-notifier/internal/concrnt"
)

// maxBodyLength caps the rendered message body shown in an announcement.
const maxBodyLength = 128

// renderBody resolves the message's emoji dictionary into inline markdown
// images and truncates the result.
func renderBody(msg *concrnt.Message) string {
	body := msg.Body
	for code, emoji := range msg.EmojiDict {
		body = strings.ReplaceAll(body, ":"+code+":", fmt.Sprintf("![%s](%s)", code, emoji.ImageURL))
	}
	return truncate(body, maxBodyLength)
}

// appendMediaRefs appends the message's media attachments as inline
// markdown image references.
func appendMediaRefs(body string, media []concrnt.MediaAttachment) string {
	var b strings.Builder
	b.WriteString(body)
	for _, m := range media {
		b.WriteString(fmt.Sprintf("\n![%s](%s)", m.AltText, m.URL))
	}
	return b.String()
}

// truncate cuts at a rune boundary so multi-byte characters survive.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
