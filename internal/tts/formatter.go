package tts

import (
	"regexp"
	"strings"

	"github.com/Segu-g/NicomView/internal/domain"
)

// Format renders the built-in announcement text for an event. The second
// return value is false when there is nothing to say.
func Format(kind domain.EventKind, payload domain.EventPayload) (string, bool) {
	switch kind {
	case domain.KindComment, domain.KindEmotion:
		if payload.Content == "" {
			return "", false
		}
		return payload.Content, true

	case domain.KindGift:
		if payload.UserName == "" && payload.ItemName == "" {
			return "", false
		}
		user := payload.UserName
		if user == "" {
			user = "匿名"
		}
		item := payload.ItemName
		if item == "" {
			item = "ギフト"
		}
		return user + "さんが" + item + "を贈りました", true

	case domain.KindNotification:
		if payload.Message == "" {
			return "", false
		}
		return payload.Message, true

	case domain.KindOperatorComment:
		if payload.Content == "" {
			return "", false
		}
		return "運営コメント: " + payload.Content, true
	}

	return "", false
}

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// RenderTemplate substitutes {fieldName} placeholders with payload fields.
// Unknown or absent fields resolve to the empty string. When every
// placeholder resolves empty and no literal text remains, there is nothing
// to say and false is returned.
func RenderTemplate(template string, payload domain.EventPayload) (string, bool) {
	fields := map[string]string{
		"content":  payload.Content,
		"name":     payload.Name,
		"userName": payload.UserName,
		"itemName": payload.ItemName,
		"message":  payload.Message,
	}

	result := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		return fields[key]
	})

	if strings.TrimSpace(result) == "" {
		return "", false
	}
	return result, true
}
